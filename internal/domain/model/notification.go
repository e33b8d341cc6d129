// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one summary waiting to be delivered to the email sink.
type Notification struct {
	ID        string    // unique per sort action
	SessionID string    // session that produced the summary
	Message   string    // formatted summary text
	CreatedAt time.Time // when the summary was formatted
}

// NewNotification stamps a notification with a fresh random ID.
func NewNotification(sessionID, message string, at time.Time) Notification {
	return Notification{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Message:   message,
		CreatedAt: at,
	}
}

// Delivery is the outcome of sending one notification.
type Delivery struct {
	Notification Notification
	Err          error         // nil on success
	Latency      time.Duration // time spent in the notifier
}

// OK reports whether the sink accepted the notification.
func (d Delivery) OK() bool { return d.Err == nil }
