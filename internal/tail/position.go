package tail

import (
	"github.com/SteelMorgan/logtail/internal/domain"
)

// Reason explains how the start offset was chosen
type Reason int

const (
	// UpToDate: same file, nothing appended since the last run
	UpToDate Reason = iota
	// NoState: no valid saved state
	NoState
	// Truncated: saved offset is past the end of the file
	Truncated
	// Rotated: the path now refers to a different file
	Rotated
	// Resume: same file, it grew
	Resume
)

func (r Reason) String() string {
	switch r {
	case UpToDate:
		return "up_to_date"
	case NoState:
		return "no_state"
	case Truncated:
		return "truncated"
	case Rotated:
		return "rotated"
	case Resume:
		return "resume"
	default:
		return "unknown"
	}
}

// Position is the outcome of comparing saved state with the current file
type Position struct {
	Start  int64
	Skip   bool
	Reason Reason
}

// Decide picks the start offset for cur given saved. Rules are applied in
// order; the first match wins.
func Decide(saved domain.TailState, cur domain.TrackedFile) Position {
	switch {
	case saved.Valid && saved.Identity == cur.Identity && saved.Offset == cur.Size:
		return Position{Start: saved.Offset, Skip: true, Reason: UpToDate}
	case !saved.Valid:
		return Position{Start: 0, Reason: NoState}
	case saved.Offset > cur.Size:
		return Position{Start: 0, Reason: Truncated}
	case saved.Identity != cur.Identity:
		return Position{Start: 0, Reason: Rotated}
	default:
		return Position{Start: saved.Offset, Reason: Resume}
	}
}
