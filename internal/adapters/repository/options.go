package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithIdleTTL evicts sessions that have not changed for d. Zero disables
// eviction.
func WithIdleTTL(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d >= 0 {
			s.idleTTL = d
		}
	}
}

// WithClock overrides time.Now for idle eviction.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}
