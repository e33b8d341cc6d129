// Package cli implements the draw command: split a roster into teams from the
// terminal, either in-process or against a running team draw server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/teamdraw/internal/adapters/notify"
	"github.com/okian/teamdraw/internal/domain/partition"
	"github.com/okian/teamdraw/internal/domain/types"
)

const (
	defaultRounds  = 1
	defaultTimeout = 30 * time.Second
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type flags struct {
	teams   int
	rounds  int
	output  string
	notify  bool
	url     string
	timeout time.Duration
}

type runner struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	notifier notify.Notifier
	rng      partition.RNG
	clock    func() time.Time
	flags    flags
}

// NewCommand returns the root draw command.
func NewCommand(opts ...Option) *cobra.Command {
	r := &runner{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	cmd := &cobra.Command{
		Use:   "draw [participants...]",
		Short: "Split a list of participants into random teams",
		Long: `Split a comma separated list of participants into random teams.

Participants come from the arguments, or from stdin when there are none
(one per line or comma separated). Repeated rounds never reuse an
arrangement until every arrangement has been drawn.`,
		Example: `  draw "Ana, Bob, Carla, Diego" --teams 2
  draw Ana Bob Carla Diego Eva Fabio -t 3 -r 4 -o yaml
  cat roster.txt | draw --teams 4 --notify
  draw "Ana,Bob,Carla,Diego" --url http://localhost:9080`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd.Context(), args)
		},
	}
	cmd.SetIn(r.in)
	cmd.SetOut(r.out)
	cmd.SetErr(r.errOut)

	f := cmd.Flags()
	f.IntVarP(&r.flags.teams, "teams", "t", 2, "number of teams")
	f.IntVarP(&r.flags.rounds, "rounds", "r", defaultRounds, "number of consecutive draws")
	f.StringVarP(&r.flags.output, "output", "o", OutputText, "output format: text, json or yaml")
	f.BoolVar(&r.flags.notify, "notify", false, "email each summary through EmailJS (local draws only)")
	f.StringVar(&r.flags.url, "url", "", "draw on a running server instead of in-process, e.g. http://localhost:9080")
	f.DurationVar(&r.flags.timeout, "timeout", defaultTimeout, "HTTP request timeout for --url")
	return cmd
}

// Execute runs the draw command with process defaults.
func Execute(ctx context.Context) error {
	return NewCommand().ExecuteContext(ctx)
}

func (r *runner) run(ctx context.Context, args []string) error {
	render, err := rendererFor(r.flags.output)
	if err != nil {
		return err
	}
	if r.flags.rounds < 1 {
		return fmt.Errorf("--rounds must be at least 1, got %d", r.flags.rounds)
	}

	raw, err := r.roster(args)
	if err != nil {
		return err
	}

	var results []types.SortResponse
	if r.flags.url != "" {
		results, err = r.drawRemote(ctx, raw)
	} else {
		results, err = r.drawLocal(ctx, raw)
	}
	if len(results) > 0 {
		if rerr := render(r.out, results); rerr != nil {
			return rerr
		}
	}
	return err
}

// roster joins the arguments, or reads stdin when there are none. Newlines
// count as separators.
func (r *runner) roster(args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, ","), nil
	}
	b, err := io.ReadAll(r.in)
	if err != nil {
		return "", fmt.Errorf("read participants: %w", err)
	}
	return strings.NewReplacer("\r\n", ",", "\n", ",").Replace(string(b)), nil
}

func (r *runner) warn(msg string) {
	_, _ = fmt.Fprintln(r.errOut, msg)
}
