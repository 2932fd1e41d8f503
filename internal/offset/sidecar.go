package offset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/SteelMorgan/logtail/internal/domain"
	"github.com/SteelMorgan/logtail/internal/retry"
	"github.com/rs/zerolog/log"
)

const (
	// SidecarSuffix is appended to the tracked path to name its state file
	SidecarSuffix = ".offset"

	// SidecarMode is the permission of newly created state files
	SidecarMode fs.FileMode = 0644

	// maxSidecarSize bounds how much of a state file is read
	maxSidecarSize = 1024
)

var errMalformed = errors.New("malformed state")

// SidecarPath returns the state file path for a tracked file
func SidecarPath(trackedPath string) string {
	return trackedPath + SidecarSuffix
}

// Sidecar keeps the state of each tracked file in a plain text file next to
// it: the identity token and the byte offset as two decimal integers.
type Sidecar struct {
	retry retry.Config
}

// NewSidecar creates a sidecar store using cfg for write attempts
func NewSidecar(cfg retry.Config) *Sidecar {
	return &Sidecar{retry: cfg}
}

// Load reads the state of trackedPath. Any failure yields the empty state.
func (s *Sidecar) Load(ctx context.Context, trackedPath string) domain.TailState {
	path := SidecarPath(trackedPath)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Debug().Str("sidecar", path).Msg("No saved state, starting from the beginning")
		} else {
			log.Warn().Err(err).Str("sidecar", path).Msg("Cannot open saved state, going as if it does not exist")
		}
		return domain.EmptyState()
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxSidecarSize))
	if err != nil {
		log.Warn().Err(err).Str("sidecar", path).Msg("Cannot read saved state, going as if it does not exist")
		return domain.EmptyState()
	}

	state, err := ParseState(raw)
	if err != nil {
		log.Warn().Err(err).Str("sidecar", path).Msg("Ignoring saved state")
		return domain.EmptyState()
	}

	log.Debug().
		Str("sidecar", path).
		Uint64("identity", uint64(state.Identity)).
		Int64("offset", state.Offset).
		Msg("Loaded saved state")

	return state
}

// Save overwrites the state file of trackedPath with state
func (s *Sidecar) Save(ctx context.Context, trackedPath string, state domain.TailState) error {
	path := SidecarPath(trackedPath)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, SidecarMode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if _, err := retry.WriteAll(ctx, s.retry, f, FormatState(state)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	log.Debug().
		Str("sidecar", path).
		Uint64("identity", uint64(state.Identity)).
		Int64("offset", state.Offset).
		Msg("State saved")

	return nil
}

// ParseState parses the two whitespace separated tokens of a state file:
// identity token, then byte offset. Anything else is rejected.
func ParseState(raw []byte) (domain.TailState, error) {
	fields := strings.Fields(string(raw))
	if len(fields) != 2 {
		return domain.EmptyState(), fmt.Errorf("%w: expected 2 fields, got %d", errMalformed, len(fields))
	}

	identity, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return domain.EmptyState(), fmt.Errorf("%w: identity %q: %v", errMalformed, fields[0], err)
	}

	offset, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return domain.EmptyState(), fmt.Errorf("%w: offset %q: %v", errMalformed, fields[1], err)
	}
	if offset < 0 {
		return domain.EmptyState(), fmt.Errorf("%w: negative offset %d", errMalformed, offset)
	}

	return domain.TailState{
		Identity: domain.Identity(identity),
		Offset:   offset,
		Valid:    true,
	}, nil
}

// FormatState renders state in the state file format
func FormatState(state domain.TailState) []byte {
	return []byte(fmt.Sprintf("%d\n%d\n", uint64(state.Identity), state.Offset))
}
