// Package types contains the JSON shapes exposed by the HTTP API and the CLI.
package types

import (
	"time"

	"github.com/okian/teamdraw/internal/domain/partition"
)

// Team is one drawn team with its 1-based ordinal.
type Team struct {
	Number  int      `json:"number" yaml:"number"`
	Members []string `json:"members" yaml:"members"`
}

// SortRequest is the body of POST /sessions/{id}/sort.
type SortRequest struct {
	Participants string `json:"participants"`
	TeamCount    int    `json:"team_count"`
}

// SortResponse is the result of one sort action.
type SortResponse struct {
	SessionID      string    `json:"session_id" yaml:"session_id"`
	Teams          []Team    `json:"teams" yaml:"teams"`
	Attempts       int       `json:"attempts" yaml:"attempts"`
	Exhausted      bool      `json:"exhausted" yaml:"exhausted"`
	Warning        string    `json:"warning,omitempty" yaml:"warning,omitempty"`
	Summary        string    `json:"summary" yaml:"summary"`
	GeneratedAt    time.Time `json:"generated_at" yaml:"generated_at"`
	NotificationID string    `json:"notification_id,omitempty" yaml:"notification_id,omitempty"`
}

// Notice is a message surfaced to the user after a sort action.
type Notice struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	Message        string    `json:"message"`
	NotificationID string    `json:"notification_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// SessionState mirrors what the form page shows for one session.
type SessionState struct {
	SessionID  string    `json:"session_id"`
	Input      string    `json:"input"`
	TeamCount  int       `json:"team_count"`
	Visible    bool      `json:"visible"`
	Teams      []Team    `json:"teams"`
	HistoryLen int       `json:"history_len"`
	Notices    []Notice  `json:"notices"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HistoryEntry is one past partition of a session.
type HistoryEntry struct {
	Index int    `json:"index"`
	Teams []Team `json:"teams"`
}

// TeamsFrom numbers the teams of p from 1. Empty teams get an empty, non-nil
// member list so they encode as [] rather than null.
func TeamsFrom(p partition.Partition) []Team {
	out := make([]Team, len(p))
	for i, team := range p {
		members := append([]string{}, team...)
		out[i] = Team{Number: i + 1, Members: members}
	}
	return out
}
