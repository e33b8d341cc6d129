// Package history keeps the partitions accepted during one session so later
// draws can avoid repeating them.
package history

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/teamdraw/internal/domain/partition"
)

// History is an append-only record of accepted partitions.
type History interface {
	// Record appends p. Entries are never pruned.
	Record(ctx context.Context, p partition.Partition)

	// Snapshot returns a deep copy of every entry in acceptance order.
	Snapshot(ctx context.Context) []partition.Partition

	// Reset drops every entry.
	Reset(ctx context.Context)

	Len() int64
}

// Option applies a configuration option to the in-memory history.
type Option func(*inMemoryHistory)

// WithEntries seeds the history with already accepted partitions.
func WithEntries(entries ...partition.Partition) Option {
	return func(h *inMemoryHistory) {
		for _, p := range entries {
			h.entries = append(h.entries, p.Clone())
		}
	}
}

type inMemoryHistory struct {
	mu      sync.RWMutex
	entries []partition.Partition
	size    atomic.Int64
}

// NewInMemory creates an empty in-memory history.
func NewInMemory(opts ...Option) History {
	h := &inMemoryHistory{}
	for _, opt := range opts {
		opt(h)
	}
	h.size.Store(int64(len(h.entries)))
	return h
}

func (h *inMemoryHistory) Record(_ context.Context, p partition.Partition) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, p.Clone())
	h.size.Add(1)
}

func (h *inMemoryHistory) Snapshot(_ context.Context) []partition.Partition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]partition.Partition, len(h.entries))
	for i, p := range h.entries {
		out[i] = p.Clone()
	}
	return out
}

func (h *inMemoryHistory) Reset(_ context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	h.size.Store(0)
}

func (h *inMemoryHistory) Len() int64 {
	return h.size.Load()
}
