package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/teamdraw/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNotification(t *testing.T) {
	Convey("Given a new notification", t, func() {
		at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		n := model.NewNotification("session-1", "Team 1: Ana", at)

		Convey("Then it carries a valid random ID and the given fields", func() {
			_, err := uuid.Parse(n.ID)
			So(err, ShouldBeNil)
			So(n.SessionID, ShouldEqual, "session-1")
			So(n.Message, ShouldEqual, "Team 1: Ana")
			So(n.CreatedAt, ShouldEqual, at)
		})

		Convey("Then two notifications never share an ID", func() {
			other := model.NewNotification("session-1", "Team 1: Ana", at)
			So(other.ID, ShouldNotEqual, n.ID)
		})
	})
}

func TestDelivery(t *testing.T) {
	Convey("Given deliveries", t, func() {
		Convey("Then OK reflects the error", func() {
			So(model.Delivery{}.OK(), ShouldBeTrue)
			So(model.Delivery{Err: errors.New("rejected")}.OK(), ShouldBeFalse)
		})
	})
}
