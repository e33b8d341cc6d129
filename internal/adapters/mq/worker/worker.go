package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/pkg/logger"
	"github.com/okian/teamdraw/pkg/metrics"
)

const (
	defaultPoolShutdownTimeout = 10 * time.Second
)

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Notification
}

// Notifier delivers one notification to the sink.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// Reporter observes the outcome of every delivery attempt.
type Reporter interface {
	Report(ctx context.Context, d model.Delivery)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, d model.Delivery)

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, d model.Delivery) { f(ctx, d) }

// Worker sends notifications until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the current send to finish.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	notifier Notifier
	reporter Reporter
	name     string

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. reporter may be nil.
func NewInMemoryWorker(q Queue, notifier Notifier, reporter Reporter, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		notifier: notifier,
		reporter: reporter,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named("worker")
	}
	w.logger = w.logger.With(logger.String("worker", w.name))
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	// The queue forwards into items until this context ends, so it must end
	// with Run even when ctx never does.
	dequeueCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	items := w.queue.Dequeue(dequeueCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-items:
			if !ok {
				return
			}
			w.deliver(ctx, n)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown stops the worker without draining the queue.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) deliver(ctx context.Context, n model.Notification) {
	start := time.Now()
	err := w.notifier.Send(ctx, n)
	latency := time.Since(start)

	metrics.RecordNotificationResult(err == nil, latency)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "send_failed")
		w.logger.Error(ctx, "notification failed",
			logger.String("notification_id", n.ID),
			logger.String("session_id", n.SessionID),
			logger.Duration("latency", latency),
			logger.Error(err),
		)
	} else {
		w.logger.Debug(ctx, "notification sent",
			logger.String("notification_id", n.ID),
			logger.Duration("latency", latency),
		)
	}

	if w.reporter != nil {
		w.reporter.Report(ctx, model.Delivery{Notification: n, Err: err, Latency: latency})
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers         []*InMemoryWorker
	queue           Queue
	shutdownTimeout time.Duration
	started         atomic.Bool
	logger          logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 means runtime.NumCPU().
func NewPool(workerCount int, q Queue, notifier Notifier, reporter Reporter, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:         make([]*InMemoryWorker, workerCount),
		queue:           q,
		shutdownTimeout: defaultPoolShutdownTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("worker-pool")
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, notifier, reporter,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Stop signals every worker to exit without draining and waits for them.
func (p *Pool) Stop() {
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		w.stop()
	}
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue, lets workers drain what is pending and waits up
// to the shutdown timeout. Workers still busy after that are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	if timedOut {
		for _, w := range p.workers {
			w.stop()
		}
		return fmt.Errorf("worker pool shutdown: %w", waitCtx.Err())
	}
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}
