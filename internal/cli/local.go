package cli

import (
	"context"
	"fmt"

	"github.com/okian/teamdraw/internal/adapters/notify"
	app "github.com/okian/teamdraw/internal/app"
	"github.com/okian/teamdraw/internal/config"
	"github.com/okian/teamdraw/internal/domain/model"
	"github.com/okian/teamdraw/internal/domain/partition"
	"github.com/okian/teamdraw/internal/domain/session"
	"github.com/okian/teamdraw/internal/domain/summary"
	"github.com/okian/teamdraw/internal/domain/types"
	"github.com/okian/teamdraw/pkg/logger"
)

// syncDispatcher delivers summaries inline; a CLI run has no worker pool to
// hand them to.
type syncDispatcher struct {
	notifier notify.Notifier
}

func (d syncDispatcher) Dispatch(ctx context.Context, n model.Notification) error {
	return d.notifier.Send(ctx, n)
}

// drawLocal runs every round on one in-process session so later rounds avoid
// earlier arrangements.
func (r *runner) drawLocal(ctx context.Context, raw string) ([]types.SortResponse, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	engineOpts := []partition.Option{partition.WithMaxAttempts(cfg.MaxAttempts)}
	if r.rng != nil {
		engineOpts = append(engineOpts, partition.WithRNG(r.rng))
	}
	opts := []session.Option{
		session.WithEngine(partition.NewEngine(engineOpts...)),
		session.WithFormatter(summary.New(
			summary.WithTitle(cfg.SummaryTitle),
			summary.WithLayout(cfg.SummaryTimeLayout),
			summary.WithLocation(loc),
		)),
		session.WithMinTeamCount(cfg.MinTeamCount),
		session.WithClock(r.clock),
		session.WithLogger(logger.Named("draw")),
	}
	if r.flags.notify {
		n, err := r.localNotifier(cfg)
		if err != nil {
			return nil, err
		}
		opts = append(opts, session.WithDispatcher(syncDispatcher{notifier: n}))
	}

	sess := session.New("", opts...)
	results := make([]types.SortResponse, 0, r.flags.rounds)
	for range r.flags.rounds {
		seen := len(sess.Notices())
		out, err := sess.SortTeams(ctx, raw, r.flags.teams)
		if err != nil {
			return results, err
		}
		results = append(results, app.ResponseOf(sess.ID(), out))
		for _, n := range sess.Notices()[seen:] {
			if n.Kind == session.NoticeNotificationDisabled || n.Kind == session.NoticeExhausted {
				continue
			}
			r.warn(n.Message)
		}
	}
	return results, nil
}

func (r *runner) localNotifier(cfg *config.Config) (notify.Notifier, error) {
	if r.notifier != nil {
		return r.notifier, nil
	}
	n, err := notify.NewEmailJS(notify.Credentials{
		ServiceID:  cfg.EmailJSServiceID,
		TemplateID: cfg.EmailJSTemplateID,
		PublicKey:  cfg.EmailJSPublicKey,
		PrivateKey: cfg.EmailJSPrivateKey,
	},
		notify.WithEndpoint(cfg.EmailJSEndpoint),
		notify.WithMessageParam(cfg.EmailJSMessageParam),
		notify.WithTimeout(cfg.NotifyTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("--notify: %w", err)
	}
	return n, nil
}
