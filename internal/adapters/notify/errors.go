package notify

import "errors"

// Sentinel errors returned by notifiers.
var (
	ErrDisabled      = errors.New("notifications disabled")
	ErrRejected      = errors.New("notification rejected by sink")
	ErrMissingConfig = errors.New("missing emailjs configuration")
)
