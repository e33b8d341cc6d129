// Package repository keeps live sessions addressable by ID.
package repository

import (
	"context"

	"github.com/okian/teamdraw/internal/domain/session"
)

// Store provides access to live sessions.
type Store interface {
	// Create registers s. Returns ErrAlreadyExists if its ID is taken.
	Create(ctx context.Context, s *session.Session) error

	// Get returns the session with id or ErrNotFound.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete forgets the session with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
