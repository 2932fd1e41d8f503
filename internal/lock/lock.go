// Package lock provides an advisory lock that keeps two runs from updating
// the same state file at once.
package lock

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// Suffix is appended to the state file path to name its lock file
const Suffix = ".lock"

// ErrLocked is returned when another run holds the lock
var ErrLocked = errors.New("state file is locked by another run")

// RunLock is an exclusive, non-blocking lock held for one run
type RunLock struct {
	fl *flock.Flock
}

// Acquire takes the lock for statePath without waiting
func Acquire(statePath string) (*RunLock, error) {
	fl := flock.New(statePath + Suffix)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", fl.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", fl.Path(), ErrLocked)
	}

	return &RunLock{fl: fl}, nil
}

// Path returns the lock file path
func (l *RunLock) Path() string {
	return l.fl.Path()
}

// Release drops the lock. The lock file itself is left in place.
func (l *RunLock) Release() error {
	return l.fl.Unlock()
}
