package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/teamdraw/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx)
		defer s.Close()

		So(s.Count(ctx), ShouldEqual, 0)

		Convey("When a session is created", func() {
			sess := session.New("abc")
			So(s.Create(ctx, sess), ShouldBeNil)

			Convey("Then it can be fetched by ID", func() {
				got, err := s.Get(ctx, "abc")
				So(err, ShouldBeNil)
				So(got, ShouldEqual, sess)
				So(s.Count(ctx), ShouldEqual, 1)
			})

			Convey("Then creating the same ID again fails", func() {
				err := s.Create(ctx, session.New("abc"))
				So(errors.Is(err, ErrAlreadyExists), ShouldBeTrue)
			})

			Convey("Then deleting it makes it unknown", func() {
				So(s.Delete(ctx, "abc"), ShouldBeNil)
				_, err := s.Get(ctx, "abc")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(s.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When an unknown ID is used", func() {
			_, getErr := s.Get(ctx, "missing")
			delErr := s.Delete(ctx, "missing")

			Convey("Then both report ErrNotFound", func() {
				So(errors.Is(getErr, ErrNotFound), ShouldBeTrue)
				So(errors.Is(delErr, ErrNotFound), ShouldBeTrue)
				So(getErr.Error(), ShouldContainSubstring, "missing")
			})
		})
	})
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	Convey("Given many goroutines creating sessions", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx)
		defer s.Close()

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range 10 {
					_ = s.Create(ctx, session.New(fmt.Sprintf("s-%d-%d", i, j)))
				}
			}()
		}
		wg.Wait()

		Convey("Then every session is stored", func() {
			So(s.Count(ctx), ShouldEqual, 200)
		})
	})
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	Convey("Given a store with a one hour idle TTL", t, func() {
		ctx := context.Background()
		start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		now := start
		clock := func() time.Time { return now }

		s := NewMemoryStore(ctx, WithIdleTTL(time.Hour), WithClock(clock))
		defer s.Close()

		stale := session.New("stale", session.WithClock(clock))
		So(s.Create(ctx, stale), ShouldBeNil)
		now = start.Add(50 * time.Minute)
		fresh := session.New("fresh", session.WithClock(clock))
		So(s.Create(ctx, fresh), ShouldBeNil)

		Convey("When time passes beyond the TTL of the first session only", func() {
			now = start.Add(61 * time.Minute)
			evicted := s.EvictIdle(ctx)

			Convey("Then only the idle session is removed", func() {
				So(evicted, ShouldEqual, 1)
				So(s.Count(ctx), ShouldEqual, 1)
				_, err := s.Get(ctx, "stale")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the older session is used again", func() {
			now = start.Add(55 * time.Minute)
			stale.SetInput("Ana,Bob")
			now = start.Add(61 * time.Minute)

			Convey("Then nothing is evicted", func() {
				So(s.EvictIdle(ctx), ShouldEqual, 0)
				So(s.Count(ctx), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a store without an idle TTL", t, func() {
		ctx := context.Background()
		s := NewMemoryStore(ctx)
		defer s.Close()
		So(s.Create(ctx, session.New("old", session.WithClock(func() time.Time { return time.Unix(0, 0) }))), ShouldBeNil)

		Convey("Then sessions are never evicted", func() {
			So(s.EvictIdle(ctx), ShouldEqual, 0)
			So(s.Count(ctx), ShouldEqual, 1)
		})
	})

	Convey("Given a store whose updater runs often", t, func() {
		ctx := context.Background()
		old := func() time.Time { return time.Now().Add(-time.Hour) }
		s := NewMemoryStore(ctx, WithIdleTTL(time.Minute), WithMetricsUpdateInterval(time.Millisecond))
		defer s.Close()
		So(s.Create(ctx, session.New("old", session.WithClock(old))), ShouldBeNil)

		Convey("Then the background loop evicts idle sessions", func() {
			deadline := time.Now().Add(2 * time.Second)
			for s.Count(ctx) > 0 && time.Now().Before(deadline) {
				time.Sleep(2 * time.Millisecond)
			}
			So(s.Count(ctx), ShouldEqual, 0)
		})
	})
}

func TestMemoryStore_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	Convey("Given a store with a fast metrics updater", t, func() {
		s := NewMemoryStore(context.Background(), WithMetricsUpdateInterval(time.Millisecond))
		time.Sleep(5 * time.Millisecond)

		Convey("Then Close stops it and can be repeated", func() {
			So(s.Close(), ShouldBeNil)
			So(s.Close(), ShouldBeNil)
		})
	})
}
