// Package queue holds summaries waiting for delivery to the email sink.
package queue

import (
	"context"
	"sync"

	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/pkg/metrics"
)

const (
	defaultQueueCapacity = 1024
	defaultBufferSize    = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a notification. It returns false if the queue is full or
	// closed and the notification was not accepted.
	Enqueue(ctx context.Context, n model.Notification) bool

	// Dequeue returns a channel that delivers notifications as they arrive.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan model.Notification

	// Len returns the number of pending notifications.
	Len(ctx context.Context) int

	// Close stops accepting notifications. Pending ones are still delivered.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items      chan model.Notification
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan model.Notification, max(q.bufferSize, q.capacity))

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0, q.capacity)
	return q
}

// Capacity returns the maximum number of pending notifications.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a notification without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n model.Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.items) >= q.capacity {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.items <- n:
		metrics.RecordNotificationEnqueued()
		metrics.UpdateQueueSize(len(q.items), q.capacity)
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel fed from the queue until it is closed and drained
// or ctx is done.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Notification {
	out := make(chan model.Notification)
	go func() {
		defer close(out)
		for {
			select {
			case n, ok := <-q.items:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.items), q.capacity)
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending notifications.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size, q.capacity)
	return size
}

// Close stops accepting notifications. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Err returns why an Enqueue was refused: ErrClosed once closed, ErrFull
// otherwise.
func (q *InMemoryQueue) Err() error {
	if q.IsClosed() {
		return ErrClosed
	}
	return ErrFull
}
