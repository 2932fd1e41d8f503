package offset

import (
	"context"

	"github.com/SteelMorgan/logtail/internal/domain"
)

// StateStore loads and saves the read cursor of a tracked file.
// Implementations: Sidecar (primary)
type StateStore interface {
	// Load returns the saved state for the tracked file.
	// Missing or malformed state is not an error: it yields an invalid state.
	Load(ctx context.Context, trackedPath string) domain.TailState

	// Save replaces the saved state for the tracked file
	Save(ctx context.Context, trackedPath string, state domain.TailState) error
}

// Journal records committed states for later inspection.
// Implementations: BoltDB (optional mirror)
type Journal interface {
	// Record stores entry as the latest committed state of entry.Path
	Record(ctx context.Context, entry domain.JournalEntry) error

	// Close closes the journal
	Close() error
}
