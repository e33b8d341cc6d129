package cli

import "errors"

var (
	// ErrUnknownOutput is returned for an --output value other than text, json or yaml.
	ErrUnknownOutput = errors.New("unknown output format")

	// ErrRemote wraps a non-2xx answer from a team draw server.
	ErrRemote = errors.New("server rejected request")
)
