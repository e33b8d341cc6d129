package queue

import "errors"

// Reasons a notification was not accepted.
var (
	ErrFull   = errors.New("notification queue full")
	ErrClosed = errors.New("notification queue closed")
)
