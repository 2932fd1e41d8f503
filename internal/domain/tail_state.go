package domain

import "time"

// Identity is the file-system identity token of a tracked file (its inode).
// Zero means "no identity".
type Identity uint64

// NoIdentity marks a TailState that is not bound to any file
const NoIdentity Identity = 0

// TrackedFile describes the target log file at the moment it was checked
type TrackedFile struct {
	Path     string
	Identity Identity
	Device   uint64 // Only used in diagnostics, not persisted
	Size     int64
}

// TailState is the persisted read cursor of a tracked file
type TailState struct {
	Identity Identity
	Offset   int64
	Valid    bool // False when the sidecar was missing, unreadable or malformed
}

// EmptyState returns the default state used when nothing valid was saved
func EmptyState() TailState {
	return TailState{Identity: NoIdentity, Offset: 0}
}

// JournalEntry is one committed TailState as recorded in the state journal
type JournalEntry struct {
	Path        string    `json:"path"`
	Identity    Identity  `json:"identity"`
	Offset      int64     `json:"offset"`
	BytesCopied int64     `json:"bytes_copied"`
	RunID       string    `json:"run_id"`
	RecordedAt  time.Time `json:"recorded_at"`
}
