package session_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/teamdraw/internal/domain/history"
	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/internal/domain/partition"
	"github.com/okian/teamdraw/internal/domain/session"
	"github.com/okian/teamdraw/internal/domain/summary"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n model.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 10, 19, 18, 30, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newSession(d session.Dispatcher, opts ...session.Option) *session.Session {
	base := []session.Option{
		session.WithClock(fixedClock()),
		session.WithEngine(partition.NewEngine(partition.WithRNG(rand.New(rand.NewPCG(7, 11))))),
		session.WithFormatter(summary.New(summary.WithLocation(time.UTC))),
	}
	if d != nil {
		base = append(base, session.WithDispatcher(d))
	}
	return session.New("s-1", append(base, opts...)...)
}

func TestSortTeams(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session with a dispatcher", t, func() {
		d := &recordingDispatcher{}
		s := newSession(d)

		Convey("When four participants are sorted into two teams", func() {
			out, err := s.SortTeams(ctx, "Ana, Bob ,Carla,,Diego", 2)
			So(err, ShouldBeNil)

			Convey("Then two teams of two hold every participant once", func() {
				So(out.Partition.Sizes(), ShouldResemble, []int{2, 2})
				So(out.Partition.Members(), ShouldHaveLength, 4)
				So(out.Partition.Members(), ShouldContain, "Ana")
				So(out.Partition.Members(), ShouldContain, "Bob")
				So(out.Partition.Members(), ShouldContain, "Carla")
				So(out.Partition.Members(), ShouldContain, "Diego")
				So(out.Attempts, ShouldEqual, 1)
				So(out.Exhausted, ShouldBeFalse)
			})

			Convey("Then exactly one summary is dispatched", func() {
				So(d.count(), ShouldEqual, 1)
				So(out.NotificationID, ShouldEqual, d.sent[0].ID)
				So(d.sent[0].SessionID, ShouldEqual, "s-1")
				So(d.sent[0].Message, ShouldEqual, out.Summary)
				So(out.Summary, ShouldStartWith, "Teams drawn - 19/10/2026 18:30:00\nTeam 1: ")
			})

			Convey("Then the state is committed and visible", func() {
				st := s.State()
				So(st.Input, ShouldEqual, "Ana, Bob ,Carla,,Diego")
				So(st.TeamCount, ShouldEqual, 2)
				So(st.Visible, ShouldBeTrue)
				So(st.Current, ShouldResemble, out.Partition)
				So(st.HistoryLen, ShouldEqual, 1)
				So(st.Notices, ShouldBeEmpty)
				So(s.History(ctx)[0], ShouldResemble, out.Partition)
			})
		})

		Convey("When the team count is below the minimum", func() {
			_, err := s.SortTeams(ctx, "Ana,Bob,Carla", 1)

			Convey("Then a validation error is returned and nothing changes", func() {
				So(errors.Is(err, session.ErrTeamCountTooSmall), ShouldBeTrue)
				So(session.IsValidation(err), ShouldBeTrue)
				st := s.State()
				So(st.Visible, ShouldBeFalse)
				So(st.Input, ShouldEqual, "")
				So(st.HistoryLen, ShouldEqual, 0)
				So(d.count(), ShouldEqual, 0)
			})
		})

		Convey("When there are fewer participants than teams", func() {
			_, err := s.SortTeams(ctx, "Ana, ,Bob", 3)

			Convey("Then a validation error is returned and nothing changes", func() {
				So(errors.Is(err, session.ErrNotEnoughParticipants), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "2 participants, 3 teams")
				So(s.State().HistoryLen, ShouldEqual, 0)
				So(d.count(), ShouldEqual, 0)
			})
		})

		Convey("When sorting after a successful draw fails validation", func() {
			first, err := s.SortTeams(ctx, "Ana,Bob,Carla,Diego", 2)
			So(err, ShouldBeNil)
			_, err = s.SortTeams(ctx, "Ana", 2)
			So(err, ShouldNotBeNil)

			Convey("Then the previous result is still shown", func() {
				st := s.State()
				So(st.Current, ShouldResemble, first.Partition)
				So(st.Input, ShouldEqual, "Ana,Bob,Carla,Diego")
				So(st.HistoryLen, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a session whose history holds every arrangement", t, func() {
		d := &recordingDispatcher{}
		seeded := history.NewInMemory(history.WithEntries(
			partition.Partition{{"Ana"}, {"Bob"}},
			partition.Partition{{"Bob"}, {"Ana"}},
		))
		s := newSession(d, session.WithHistory(seeded))

		Convey("When sorting again", func() {
			out, err := s.SortTeams(ctx, "Ana,Bob", 2)
			So(err, ShouldBeNil)

			Convey("Then the repeated result is accepted with an exhausted notice", func() {
				So(out.Exhausted, ShouldBeTrue)
				So(out.Attempts, ShouldEqual, partition.DefaultMaxAttempts)
				So(s.State().HistoryLen, ShouldEqual, 3)
				notices := s.Notices()
				So(notices, ShouldHaveLength, 1)
				So(notices[0].Kind, ShouldEqual, session.NoticeExhausted)
				So(notices[0].Message, ShouldEqual, session.ExhaustedMessage)
				So(d.count(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a dispatcher that refuses work", t, func() {
		d := &recordingDispatcher{err: errors.New("queue full")}
		s := newSession(d)

		Convey("When sorting", func() {
			out, err := s.SortTeams(ctx, "Ana,Bob,Carla,Diego", 2)

			Convey("Then the draw still succeeds and a dropped notice is recorded", func() {
				So(err, ShouldBeNil)
				So(out.NotificationID, ShouldBeEmpty)
				So(s.State().Visible, ShouldBeTrue)
				notices := s.Notices()
				So(notices, ShouldHaveLength, 1)
				So(notices[0].Kind, ShouldEqual, session.NoticeNotificationDropped)
				So(notices[0].Message, ShouldContainSubstring, "queue full")
			})
		})
	})

	Convey("Given a session without a dispatcher", t, func() {
		s := newSession(nil)

		Convey("When sorting", func() {
			out, err := s.SortTeams(ctx, "Ana,Bob", 2)

			Convey("Then a disabled notice is recorded", func() {
				So(err, ShouldBeNil)
				So(out.NotificationID, ShouldBeEmpty)
				notices := s.Notices()
				So(notices, ShouldHaveLength, 1)
				So(notices[0].Kind, ShouldEqual, session.NoticeNotificationDisabled)
				So(notices[0].Message, ShouldEqual, session.DisabledMessage)
			})
		})
	})
}

func TestSortUsesStoredInput(t *testing.T) {
	ctx := context.Background()

	Convey("Given input and team count set separately", t, func() {
		s := newSession(&recordingDispatcher{})
		s.SetInput("Ana,Bob,Carla,Diego,Eva,Fabio")
		s.SetTeamCount(3)

		Convey("When Sort runs", func() {
			out, err := s.Sort(ctx)

			Convey("Then it uses the stored values", func() {
				So(err, ShouldBeNil)
				So(out.Partition.Sizes(), ShouldResemble, []int{2, 2, 2})
			})
		})

		Convey("When the stored count is invalid", func() {
			s.SetTeamCount(0)
			_, err := s.Sort(ctx)

			Convey("Then Sort fails validation", func() {
				So(errors.Is(err, session.ErrTeamCountTooSmall), ShouldBeTrue)
			})
		})
	})
}

func TestRepeatedSortsAvoidHistory(t *testing.T) {
	ctx := context.Background()

	Convey("Given a roster with several distinct arrangements", t, func() {
		s := newSession(&recordingDispatcher{})

		Convey("When sorting a few times", func() {
			for range 5 {
				out, err := s.SortTeams(ctx, "Ana,Bob,Carla,Diego", 2)
				So(err, ShouldBeNil)
				So(out.Exhausted, ShouldBeFalse)
			}

			Convey("Then no two history entries repeat", func() {
				past := s.History(ctx)
				So(past, ShouldHaveLength, 5)
				for i := 1; i < len(past); i++ {
					So(partition.IsDuplicate(past[i], past[:i]), ShouldBeFalse)
				}
			})
		})
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session after a draw", t, func() {
		s := newSession(nil)
		_, err := s.SortTeams(ctx, "Ana,Bob,Carla", 3)
		So(err, ShouldBeNil)

		Convey("When it is reset", func() {
			s.Reset(ctx)

			Convey("Then everything returns to the initial state", func() {
				st := s.State()
				So(st.Input, ShouldEqual, "")
				So(st.TeamCount, ShouldEqual, session.MinTeamCount)
				So(st.Visible, ShouldBeFalse)
				So(st.Current, ShouldBeEmpty)
				So(st.HistoryLen, ShouldEqual, 0)
				So(st.Notices, ShouldBeEmpty)
			})
		})
	})
}

func TestMinTeamCountOption(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session that accepts a single team", t, func() {
		s := newSession(nil, session.WithMinTeamCount(1))

		Convey("Then one team holds everyone", func() {
			out, err := s.SortTeams(ctx, "Ana,Bob", 1)
			So(err, ShouldBeNil)
			So(out.Partition, ShouldHaveLength, 1)
			So(strings.Join(out.Partition.Members(), ","), ShouldHaveLength, len("Ana,Bob"))
		})
	})
}
