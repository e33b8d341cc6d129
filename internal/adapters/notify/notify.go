// Package notify sends drawn-team summaries to an external email sink.
package notify

import (
	"context"

	"github.com/okian/teamdraw/internal/domain/model"
)

// Notifier delivers one summary.
type Notifier interface {
	Send(ctx context.Context, n model.Notification) error
}

// Disabled is the Notifier used when no sink is configured.
type Disabled struct{}

// Send always fails with ErrDisabled.
func (Disabled) Send(context.Context, model.Notification) error { return ErrDisabled }
