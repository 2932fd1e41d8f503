package tail

import (
	"errors"
	"fmt"
)

// Kind classifies tracker failures
type Kind int

const (
	// Unreadable: the tracked file cannot be opened or read
	Unreadable Kind = iota + 1
	// StatUnavailable: identity and size of the open file cannot be retrieved
	StatUnavailable
	// SeekFailure: the read cursor cannot be positioned
	SeekFailure
	// WriteFailure: the output sink rejected bytes after all attempts
	WriteFailure
	// SidecarWriteFailure: the new state could not be saved. Not fatal.
	SidecarWriteFailure
)

func (k Kind) String() string {
	switch k {
	case Unreadable:
		return "unreadable"
	case StatUnavailable:
		return "stat unavailable"
	case SeekFailure:
		return "seek failure"
	case WriteFailure:
		return "write failure"
	case SidecarWriteFailure:
		return "sidecar write failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Fatal reports whether a failure of this kind ends the run
func (k Kind) Fatal() bool {
	return k != SidecarWriteFailure
}

// Error is returned by Tracker operations
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or 0 when err is not a tracker error
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

func newError(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
