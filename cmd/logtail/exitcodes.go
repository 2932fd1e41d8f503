package main

import (
	"github.com/SteelMorgan/logtail/internal/tail"
)

// Process exit statuses. Each failure has its own code so that callers such
// as cron wrappers can tell them apart.
const (
	ExitOK         = 0
	ExitUsage      = 1  // wrong argument count
	ExitBadFlag    = 2  // first argument is not -f
	ExitWrite      = 3  // output could not be written
	ExitStat       = 65 // file metadata unavailable
	ExitUnreadable = 66 // file cannot be opened or read
	ExitSeek       = 74 // read cursor cannot be positioned
	ExitLocked     = 75 // another run holds the state lock
	ExitConfig     = 78 // invalid configuration
)

// exitCode maps a fatal tracker error to its exit status
func exitCode(err error) int {
	switch tail.KindOf(err) {
	case tail.Unreadable:
		return ExitUnreadable
	case tail.StatUnavailable:
		return ExitStat
	case tail.SeekFailure:
		return ExitSeek
	case tail.WriteFailure:
		return ExitWrite
	case tail.SidecarWriteFailure:
		return ExitOK
	default:
		return ExitUnreadable
	}
}

// failureMessage describes a fatal tracker error for the diagnostic stream
func failureMessage(err error) string {
	switch tail.KindOf(err) {
	case tail.Unreadable:
		return "File cannot be read"
	case tail.StatUnavailable:
		return "Cannot get file size"
	case tail.SeekFailure:
		return "Cannot seek in the file"
	case tail.WriteFailure:
		return "Could not write the output"
	default:
		return "Tail failed"
	}
}
