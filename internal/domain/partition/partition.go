// Package partition splits a roster of participant names into randomly drawn
// teams and detects draws that repeat earlier ones.
package partition

import (
	"math/rand/v2"
	"strings"
)

// Team is one ordered group of participant names.
type Team []string

// Partition is the full set of teams produced by one draw.
type Partition []Team

// Sizes returns the member count of every team, in team order.
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, t := range p {
		sizes[i] = len(t)
	}
	return sizes
}

// Members returns every name in the partition, team by team.
func (p Partition) Members() []string {
	var out []string
	for _, t := range p {
		out = append(out, t...)
	}
	return out
}

// Clone returns a deep copy of p.
func (p Partition) Clone() Partition {
	if p == nil {
		return nil
	}
	out := make(Partition, len(p))
	for i, t := range p {
		out[i] = append(Team(make([]string, 0, len(t))), t...)
	}
	return out
}

// RNG is the source of randomness used for shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type RNG interface {
	IntN(n int) int
}

type globalRNG struct{}

func (globalRNG) IntN(n int) int { return rand.IntN(n) }

// DefaultRNG draws from the goroutine-safe top-level math/rand/v2 source.
var DefaultRNG RNG = globalRNG{}

// ParseRoster splits raw on commas, trims every entry and drops empty ones.
// Repeated names are kept.
func ParseRoster(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Shuffle returns a uniformly random permutation of a copy of names
// (Fisher-Yates). names is left untouched.
func Shuffle(names []string, rng RNG) []string {
	if rng == nil {
		rng = DefaultRNG
	}
	out := append([]string(nil), names...)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Split cuts names into teamCount contiguous chunks of ceil(len/teamCount)
// members. Chunks are clamped to the end of names, so trailing teams can be
// short or empty: 7 names in 3 teams give sizes [3 3 1], 5 names in 4 teams
// give [2 2 1 0]. It returns nil when teamCount < 1.
func Split(names []string, teamCount int) Partition {
	if teamCount < 1 {
		return nil
	}
	size := (len(names) + teamCount - 1) / teamCount
	p := make(Partition, teamCount)
	for i := range p {
		start := min(i*size, len(names))
		end := min(start+size, len(names))
		p[i] = append(Team(make([]string, 0, end-start)), names[start:end]...)
	}
	return p
}

// Draw shuffles names and splits them into teamCount teams.
// It does not check that there are enough names to fill every team.
func Draw(names []string, teamCount int, rng RNG) (Partition, error) {
	if teamCount < 1 {
		return nil, ErrInvalidTeamCount
	}
	return Split(Shuffle(names, rng), teamCount), nil
}

// IsDuplicate reports whether candidate repeats a partition in history.
//
// A historical partition h matches when, for every team index i in h, each
// member of h[i] is also in candidate[i]. Equality is index-aligned: the same
// groups placed in different team slots do not match.
func IsDuplicate(candidate Partition, history []Partition) bool {
	for _, h := range history {
		if covers(candidate, h) {
			return true
		}
	}
	return false
}

func covers(candidate, prior Partition) bool {
	for i, team := range prior {
		if i >= len(candidate) {
			return false
		}
		have := make(map[string]struct{}, len(candidate[i]))
		for _, name := range candidate[i] {
			have[name] = struct{}{}
		}
		for _, name := range team {
			if _, ok := have[name]; !ok {
				return false
			}
		}
	}
	return true
}
