package partition

import "errors"

// Sentinel errors for this package.
var (
	ErrInvalidTeamCount = errors.New("team count must be at least 1")
)
