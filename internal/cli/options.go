package cli

import (
	"io"
	"time"

	"github.com/okian/teamdraw/internal/adapters/notify"
	"github.com/okian/teamdraw/internal/domain/partition"
)

// Option configures the draw command.
type Option func(*runner)

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(r *runner) {
		if in != nil {
			r.in = in
		}
		if out != nil {
			r.out = out
		}
		if errOut != nil {
			r.errOut = errOut
		}
	}
}

// WithNotifier overrides the EmailJS notifier built from configuration.
func WithNotifier(n notify.Notifier) Option {
	return func(r *runner) {
		r.notifier = n
	}
}

// WithRNG seeds local draws.
func WithRNG(rng partition.RNG) Option {
	return func(r *runner) {
		r.rng = rng
	}
}

// WithClock overrides time.Now for local draws.
func WithClock(clock func() time.Time) Option {
	return func(r *runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}
