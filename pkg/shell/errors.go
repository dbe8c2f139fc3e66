package shell

import "errors"

var (
	// ErrShellNotFound is returned when the configured shell cannot be resolved
	ErrShellNotFound = errors.New("shell not found")
)
