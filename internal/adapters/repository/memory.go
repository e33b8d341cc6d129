package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/teamdraw/internal/domain/session"
	"github.com/okian/teamdraw/pkg/metrics"
)

const defaultMetricsUpdateInterval = 5 * time.Second

// MemoryStore is a mutex-guarded in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	metricsUpdateInterval time.Duration
	idleTTL               time.Duration
	clock                 func() time.Time
	stop                  chan struct{}
	done                  chan struct{}
	closeOnce             sync.Once
}

// NewMemoryStore creates a store and starts its metrics updater, which also
// evicts idle sessions, until ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:              make(map[string]*session.Session),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		clock:                 time.Now,
		stop:                  make(chan struct{}),
		done:                  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.startMetricsUpdater(ctx)
	return s
}

// Create registers sess.
func (s *MemoryStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, sess.ID())
	}
	s.sessions[sess.ID()] = sess
	return nil
}

// Get returns the session with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Delete forgets the session with id.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EvictIdle deletes every session idle for longer than the idle TTL and
// returns how many were removed.
func (s *MemoryStore) EvictIdle(_ context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.clock().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.EvictIdle(ctx); n > 0 {
				metrics.RecordSessionsEvicted(n)
			}
			metrics.UpdateSessionsActive(s.Count(ctx))
		}
	}
}
