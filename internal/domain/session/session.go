// Package session holds the state of one interactive session and runs the
// sort action against it: parse, validate, draw, commit, summarize, notify.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/teamdraw/internal/domain/history"
	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/internal/domain/partition"
	"github.com/okian/teamdraw/internal/domain/summary"
	"github.com/okian/teamdraw/pkg/logger"
)

const (
	// MinTeamCount is the smallest team count a session accepts.
	MinTeamCount = 2

	// ExhaustedMessage is the notice shown when no unique partition was found.
	ExhaustedMessage = "could not generate a unique combination; showing a repeated one"

	// DisabledMessage is the notice shown when no notification sink is configured.
	DisabledMessage = "notifications are not configured; summary was not sent"
)

// NoticeKind classifies a notice.
type NoticeKind string

// Notice kinds.
const (
	NoticeExhausted            NoticeKind = "exhausted"
	NoticeNotificationSent     NoticeKind = "notification_sent"
	NoticeNotificationFailed   NoticeKind = "notification_failed"
	NoticeNotificationDropped  NoticeKind = "notification_dropped"
	NoticeNotificationDisabled NoticeKind = "notification_disabled"
)

// Notice is a user-facing message attached to the session.
type Notice struct {
	ID             string
	Kind           NoticeKind
	Message        string
	NotificationID string
	CreatedAt      time.Time
}

// Dispatcher hands a summary to the notification sink without waiting for
// delivery. An error means the summary was not accepted for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// Outcome is the result of one accepted sort action.
type Outcome struct {
	Partition      partition.Partition
	Attempts       int
	Exhausted      bool
	Summary        string
	GeneratedAt    time.Time
	NotificationID string // empty when nothing was dispatched
}

// State is a point-in-time copy of the session.
type State struct {
	ID         string
	Input      string
	TeamCount  int
	Current    partition.Partition
	Visible    bool
	HistoryLen int
	Notices    []Notice
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithEngine sets the partition engine.
func WithEngine(e *partition.Engine) Option {
	return func(s *Session) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithHistory sets the history store, e.g. a pre-seeded one.
func WithHistory(h history.History) Option {
	return func(s *Session) {
		if h != nil {
			s.history = h
		}
	}
}

// WithFormatter sets the summary formatter.
func WithFormatter(f *summary.Formatter) Option {
	return func(s *Session) {
		if f != nil {
			s.formatter = f
		}
	}
}

// WithDispatcher sets where summaries go. Without one, sort actions record a
// notification_disabled notice instead.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Session) {
		s.dispatcher = d
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Session) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMinTeamCount raises or lowers the smallest accepted team count (>= 1).
func WithMinTeamCount(n int) Option {
	return func(s *Session) {
		if n >= 1 {
			s.minTeamCount = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session owns the mutable state of one user session.
type Session struct {
	mu sync.Mutex

	id           string
	input        string
	teamCount    int
	current      partition.Partition
	visible      bool
	notices      []Notice
	createdAt    time.Time
	updatedAt    time.Time
	minTeamCount int

	history    history.History
	engine     *partition.Engine
	formatter  *summary.Formatter
	dispatcher Dispatcher
	clock      func() time.Time
	logger     logger.Logger
}

// New creates a session. An empty id gets a random UUID.
func New(id string, opts ...Option) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	s := &Session{
		id:           id,
		teamCount:    MinTeamCount,
		minTeamCount: MinTeamCount,
		history:      history.NewInMemory(),
		engine:       partition.NewEngine(),
		formatter:    summary.New(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("session")
	}
	s.logger = s.logger.With(logger.String("session_id", s.id))
	s.createdAt = s.clock()
	s.updatedAt = s.createdAt
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SetInput stores the raw participant text without sorting.
func (s *Session) SetInput(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = raw
	s.updatedAt = s.clock()
}

// SetTeamCount stores the desired team count without sorting.
func (s *Session) SetTeamCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teamCount = n
	s.updatedAt = s.clock()
}

// Sort runs SortTeams with the stored input and team count.
func (s *Session) Sort(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	raw, n := s.input, s.teamCount
	s.mu.Unlock()
	return s.SortTeams(ctx, raw, n)
}

// SortTeams parses raw into a roster, draws teamCount teams that avoid
// repeating this session's history, commits the result and dispatches a
// summary.
//
// On a validation error nothing is changed. Otherwise input, team count,
// current partition and history are updated together before the summary is
// dispatched; a dispatch failure only adds a notice.
func (s *Session) SortTeams(ctx context.Context, raw string, teamCount int) (Outcome, error) {
	names := partition.ParseRoster(raw)

	s.mu.Lock()
	if err := s.validate(len(names), teamCount); err != nil {
		s.mu.Unlock()
		s.logger.Debug(ctx, "sort rejected", logger.Error(err))
		return Outcome{}, err
	}

	res, err := s.engine.Generate(names, teamCount, s.history.Snapshot(ctx))
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}

	now := s.clock()
	s.input = raw
	s.teamCount = teamCount
	s.current = res.Partition.Clone()
	s.visible = true
	s.updatedAt = now
	s.history.Record(ctx, res.Partition)
	if res.Exhausted {
		s.addNoticeLocked(NoticeExhausted, ExhaustedMessage, "", now)
	}
	text := s.formatter.Format(now, res.Partition)
	dispatcher := s.dispatcher
	s.mu.Unlock()

	out := Outcome{
		Partition:   res.Partition,
		Attempts:    res.Attempts,
		Exhausted:   res.Exhausted,
		Summary:     text,
		GeneratedAt: now,
	}
	s.logger.Info(ctx, "teams drawn",
		logger.Int("participants", len(names)),
		logger.Int("teams", teamCount),
		logger.Int("attempts", res.Attempts),
		logger.Bool("exhausted", res.Exhausted),
	)

	if dispatcher == nil {
		s.RecordNotice(NoticeNotificationDisabled, DisabledMessage, "")
		return out, nil
	}

	n := model.NewNotification(s.id, text, now)
	if err := dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Warn(ctx, "summary not dispatched", logger.String("notification_id", n.ID), logger.Error(err))
		s.RecordNotice(NoticeNotificationDropped, "summary was not sent: "+err.Error(), n.ID)
		return out, nil
	}
	out.NotificationID = n.ID
	return out, nil
}

func (s *Session) validate(rosterLen, teamCount int) error {
	switch {
	case teamCount < s.minTeamCount:
		return &ValidationError{Err: ErrTeamCountTooSmall, RosterLen: rosterLen, TeamCount: teamCount, Min: s.minTeamCount}
	case rosterLen < teamCount:
		return &ValidationError{Err: ErrNotEnoughParticipants, RosterLen: rosterLen, TeamCount: teamCount, Min: s.minTeamCount}
	}
	return nil
}

// RecordNotice appends a notice and returns it.
func (s *Session) RecordNotice(kind NoticeKind, message, notificationID string) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addNoticeLocked(kind, message, notificationID, s.clock())
}

func (s *Session) addNoticeLocked(kind NoticeKind, message, notificationID string, at time.Time) Notice {
	n := Notice{
		ID:             uuid.NewString(),
		Kind:           kind,
		Message:        message,
		NotificationID: notificationID,
		CreatedAt:      at,
	}
	s.notices = append(s.notices, n)
	return n
}

// Notices returns a copy of every notice in arrival order.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
}

// History returns a copy of every accepted partition.
func (s *Session) History(ctx context.Context) []partition.Partition {
	return s.history.Snapshot(ctx)
}

// State returns a copy of the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ID:         s.id,
		Input:      s.input,
		TeamCount:  s.teamCount,
		Current:    s.current.Clone(),
		Visible:    s.visible,
		HistoryLen: int(s.history.Len()),
		Notices:    append([]Notice(nil), s.notices...),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

// LastActive returns when the session was last changed.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Reset returns the session to its initial state, clearing history.
func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = ""
	s.teamCount = MinTeamCount
	s.current = nil
	s.visible = false
	s.notices = nil
	s.history.Reset(ctx)
	s.updatedAt = s.clock()
}
