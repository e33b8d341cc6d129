// Package summary renders a drawn partition as the plain-text message that is
// shown to users and mailed to the notification sink.
package summary

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/teamdraw/internal/domain/partition"
)

const (
	DefaultTitle  = "Teams drawn"
	DefaultLayout = "02/01/2006 15:04:05"
	emptyTeam     = "(empty)"
)

// Option applies a configuration option to the Formatter.
type Option func(*Formatter)

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(f *Formatter) {
		if strings.TrimSpace(title) != "" {
			f.title = title
		}
	}
}

// WithLayout sets the time.Format layout of the header timestamp.
func WithLayout(layout string) Option {
	return func(f *Formatter) {
		if layout != "" {
			f.layout = layout
		}
	}
}

// WithLocation sets the time zone the timestamp is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(f *Formatter) {
		if loc != nil {
			f.loc = loc
		}
	}
}

// Formatter builds summaries. The zero value is not usable; call New.
type Formatter struct {
	title  string
	layout string
	loc    *time.Location
}

// New returns a Formatter rendering timestamps in the local zone by default.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		title:  DefaultTitle,
		layout: DefaultLayout,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format returns a header line with the generation time followed by one
// "Team N: a, b" line per team, numbered from 1.
func (f *Formatter) Format(at time.Time, p partition.Partition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", f.title, at.In(f.loc).Format(f.layout))
	for i, team := range p {
		members := emptyTeam
		if len(team) > 0 {
			members = strings.Join(team, ", ")
		}
		fmt.Fprintf(&b, "Team %d: %s\n", i+1, members)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
