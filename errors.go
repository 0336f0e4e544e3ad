package slave

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in a *CommandError) by Session.
var (
	// ErrWrite indicates the command line could not be written to the player.
	ErrWrite = errors.New("write failed")

	// ErrResponseTimeout indicates no matching reply arrived before the deadline.
	ErrResponseTimeout = errors.New("response timed out")

	// ErrProcessTerminated indicates the player's output ended before a matching reply.
	ErrProcessTerminated = errors.New("player process terminated")

	// ErrSessionClosed indicates the session was closed before or during the call.
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidArgument indicates a malformed command or an out-of-range argument.
	ErrInvalidArgument = errors.New("invalid argument")
)

// CommandError reports a failed exchange. Err is one of the sentinel errors
// above; Cause, if set, is the underlying stream error.
type CommandError struct {
	Command string
	Err     error
	Cause   error
}

func (e *CommandError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("slave %q: %v: %v", e.Command, e.Err, e.Cause)
	}
	return fmt.Sprintf("slave %q: %v", e.Command, e.Err)
}

// Unwrap lets errors.Is match both the sentinel and the cause.
func (e *CommandError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func newCommandError(cmd string, kind, cause error) error {
	return &CommandError{Command: cmd, Err: kind, Cause: cause}
}
