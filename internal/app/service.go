// Package service wires sessions, the partition engine and the notification
// pipeline into the operations used by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/teamdraw/internal/adapters/mq/queue"
	"github.com/okian/teamdraw/internal/adapters/mq/worker"
	"github.com/okian/teamdraw/internal/adapters/notify"
	"github.com/okian/teamdraw/internal/adapters/repository"
	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/internal/domain/partition"
	"github.com/okian/teamdraw/internal/domain/session"
	"github.com/okian/teamdraw/internal/domain/summary"
	"github.com/okian/teamdraw/internal/domain/types"
	"github.com/okian/teamdraw/pkg/logger"
	"github.com/okian/teamdraw/pkg/metrics"
)

const (
	defaultQueueSize       = 1024
	defaultShutdownTimeout = 10 * time.Second
	defaultSessionIdleTTL  = 30 * time.Minute

	sentMessage = "summary emailed"
)

// Service implements the API dependencies for the team draw system.
type Service struct {
	mu sync.RWMutex

	// Core components
	sessions *repository.MemoryStore
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	engine   *partition.Engine

	// Configuration
	workerCount     int
	queueSize       int
	maxAttempts     int
	minTeamCount    int
	shutdownTimeout time.Duration
	sessionIdleTTL  time.Duration
	notifier        notify.Notifier
	formatter       *summary.Formatter
	rng             partition.RNG
	clock           func() time.Time

	// State
	started  bool
	stopping bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of notification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many summaries may wait for delivery.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithMaxAttempts sets the engine retry budget per sort action.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithMinTeamCount sets the smallest team count a sort action accepts.
func WithMinTeamCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minTeamCount = n
		}
	}
}

// WithNotifier sets the summary sink.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithFormatter sets the summary formatter.
func WithFormatter(f *summary.Formatter) Option {
	return func(s *Service) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithRNG sets the random source shared by every session. It must be safe
// for concurrent use.
func WithRNG(rng partition.RNG) Option {
	return func(s *Service) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock overrides time.Now for sessions and notices.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for pending notifications.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithSessionIdleTTL sets how long an untouched session is kept. Zero keeps
// sessions until they are deleted.
func WithSessionIdleTTL(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sessionIdleTTL = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		maxAttempts:     partition.DefaultMaxAttempts,
		minTeamCount:    session.MinTeamCount,
		shutdownTimeout: defaultShutdownTimeout,
		sessionIdleTTL:  defaultSessionIdleTTL,
		notifier:        notify.Disabled{},
		formatter:       summary.New(),
		rng:             partition.DefaultRNG,
		clock:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the session store and the notification pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting team draw service...")

	s.sessions = repository.NewMemoryStore(ctx,
		repository.WithIdleTTL(s.sessionIdleTTL),
		repository.WithClock(s.clock),
	)
	s.engine = partition.NewEngine(
		partition.WithRNG(s.rng),
		partition.WithMaxAttempts(s.maxAttempts),
		partition.WithRejectHook(func(partition.Partition) { metrics.RecordDuplicateCandidate() }),
	)
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.notifier, s,
		worker.WithPoolLogger(s.logger.Named("worker")),
		worker.WithShutdownTimeout(s.shutdownTimeout),
	)
	// Workers outlive ctx so Stop can drain pending summaries.
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "team draw service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("maxAttempts", s.maxAttempts),
		logger.Bool("notifier", s.NotifierEnabled()),
	)
	return nil
}

// Stop drains pending notifications and shuts the pipeline down. Sessions
// stay readable while workers drain so their outcomes become notices.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	pool, sessions := s.pool, s.sessions
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping team draw service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
	}
	_ = sessions.Close()

	s.mu.Lock()
	s.started = false
	s.stopping = false
	s.mu.Unlock()
	s.logger.Info(ctx, "team draw service stopped")
}

// NotifierEnabled reports whether summaries go to a real sink.
func (s *Service) NotifierEnabled() bool {
	_, disabled := s.notifier.(notify.Disabled)
	return !disabled
}

func (s *Service) store() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.sessions, nil
}

func (s *Service) lookup(ctx context.Context, id string) (*session.Session, error) {
	store, err := s.store()
	if err != nil {
		return nil, err
	}
	return store.Get(ctx, id)
}

// CreateSession opens a new session with empty input and history.
func (s *Service) CreateSession(ctx context.Context) (types.SessionState, error) {
	store, err := s.store()
	if err != nil {
		return types.SessionState{}, err
	}
	sess := session.New("",
		session.WithEngine(s.engine),
		session.WithFormatter(s.formatter),
		session.WithDispatcher(s),
		session.WithClock(s.clock),
		session.WithMinTeamCount(s.minTeamCount),
		session.WithLogger(s.logger.Named("session")),
	)
	if err := store.Create(ctx, sess); err != nil {
		return types.SessionState{}, fmt.Errorf("create session: %w", err)
	}
	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(store.Count(ctx))
	s.logger.Debug(ctx, "session created", logger.String("session_id", sess.ID()))
	return stateOf(sess.State()), nil
}

// SortTeams runs one sort action on the session.
func (s *Service) SortTeams(ctx context.Context, id string, req types.SortRequest) (types.SortResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.SortResponse{}, err
	}

	out, err := sess.SortTeams(ctx, req.Participants, req.TeamCount)
	if err != nil {
		var ve *session.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationError(validationReason(ve))
		}
		return types.SortResponse{}, err
	}
	metrics.RecordDraw(out.Attempts, out.Exhausted, out.Partition.Sizes())
	return ResponseOf(id, out), nil
}

// ResponseOf converts a sort outcome of session id into its API shape.
func ResponseOf(id string, out session.Outcome) types.SortResponse {
	resp := types.SortResponse{
		SessionID:      id,
		Teams:          types.TeamsFrom(out.Partition),
		Attempts:       out.Attempts,
		Exhausted:      out.Exhausted,
		Summary:        out.Summary,
		GeneratedAt:    out.GeneratedAt,
		NotificationID: out.NotificationID,
	}
	if out.Exhausted {
		resp.Warning = session.ExhaustedMessage
	}
	return resp
}

func validationReason(ve *session.ValidationError) string {
	if errors.Is(ve, session.ErrTeamCountTooSmall) {
		return "team_count_too_small"
	}
	return "not_enough_participants"
}

// SessionState returns what the form page shows for the session.
func (s *Service) SessionState(ctx context.Context, id string) (types.SessionState, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return types.SessionState{}, err
	}
	return stateOf(sess.State()), nil
}

// History returns every partition accepted in the session, oldest first.
func (s *Service) History(ctx context.Context, id string) ([]types.HistoryEntry, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	past := sess.History(ctx)
	out := make([]types.HistoryEntry, len(past))
	for i, p := range past {
		out[i] = types.HistoryEntry{Index: i + 1, Teams: types.TeamsFrom(p)}
	}
	return out, nil
}

// Notices returns the session notices in arrival order.
func (s *Service) Notices(ctx context.Context, id string) ([]types.Notice, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return noticesOf(sess.Notices()), nil
}

// ResetSession clears input, result, notices and history.
func (s *Service) ResetSession(ctx context.Context, id string) error {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return err
	}
	sess.Reset(ctx)
	return nil
}

// DeleteSession releases the session and its history. Pending notifications
// for it are still sent; their outcome is dropped.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	store, err := s.store()
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.RecordSessionDeleted()
	metrics.UpdateSessionsActive(store.Count(ctx))
	s.logger.Debug(ctx, "session deleted", logger.String("session_id", id))
	return nil
}

// Dispatch queues a summary for delivery.
func (s *Service) Dispatch(ctx context.Context, n model.Notification) error {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		metrics.RecordNotificationDropped("not_started")
		return ErrNotStarted
	}
	if !q.Enqueue(ctx, n) {
		err := q.Err()
		reason := "queue_full"
		if errors.Is(err, queue.ErrClosed) {
			reason = "queue_closed"
		}
		metrics.RecordNotificationDropped(reason)
		return err
	}
	return nil
}

// Report turns a delivery outcome into a notice on the owning session.
func (s *Service) Report(ctx context.Context, d model.Delivery) {
	sess, err := s.lookup(ctx, d.Notification.SessionID)
	if err != nil {
		s.logger.Warn(ctx, "delivery for unknown session",
			logger.String("session_id", d.Notification.SessionID),
			logger.String("notification_id", d.Notification.ID),
		)
		return
	}

	switch {
	case d.OK():
		sess.RecordNotice(session.NoticeNotificationSent, sentMessage, d.Notification.ID)
	case errors.Is(d.Err, notify.ErrDisabled):
		sess.RecordNotice(session.NoticeNotificationDisabled, session.DisabledMessage, d.Notification.ID)
	default:
		sess.RecordNotice(session.NoticeNotificationFailed, "summary could not be sent: "+d.Err.Error(), d.Notification.ID)
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"maxAttempts":     s.maxAttempts,
		"minTeamCount":    s.minTeamCount,
		"notifierEnabled": s.NotifierEnabled(),
		"sessionIdleTTLMs": s.sessionIdleTTL.Milliseconds(),
	}
	if s.started {
		sessions := s.sessions.Count(ctx)
		stats["queueLength"] = s.queue.Len(ctx)
		stats["sessions"] = sessions
		metrics.UpdateSessionsActive(sessions)
	}
	return stats
}

func stateOf(st session.State) types.SessionState {
	return types.SessionState{
		SessionID:  st.ID,
		Input:      st.Input,
		TeamCount:  st.TeamCount,
		Visible:    st.Visible,
		Teams:      types.TeamsFrom(st.Current),
		HistoryLen: st.HistoryLen,
		Notices:    noticesOf(st.Notices),
		CreatedAt:  st.CreatedAt,
		UpdatedAt:  st.UpdatedAt,
	}
}

func noticesOf(in []session.Notice) []types.Notice {
	out := make([]types.Notice, len(in))
	for i, n := range in {
		out[i] = types.Notice{
			ID:             n.ID,
			Kind:           string(n.Kind),
			Message:        n.Message,
			NotificationID: n.NotificationID,
			CreatedAt:      n.CreatedAt,
		}
	}
	return out
}
