package session

import (
	"errors"
	"fmt"
)

// Sentinel validation reasons. Use errors.Is on a *ValidationError.
var (
	ErrTeamCountTooSmall     = errors.New("team count too small")
	ErrNotEnoughParticipants = errors.New("not enough participants for the team count")
)

// ValidationError reports a sort request rejected before drawing.
type ValidationError struct {
	Err       error
	RosterLen int
	TeamCount int
	Min       int
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrTeamCountTooSmall) {
		return fmt.Sprintf("%v: got %d, need at least %d", e.Err, e.TeamCount, e.Min)
	}
	return fmt.Sprintf("%v: %d participants, %d teams", e.Err, e.RosterLen, e.TeamCount)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
