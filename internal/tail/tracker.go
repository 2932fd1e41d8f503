package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SteelMorgan/logtail/internal/domain"
	"github.com/SteelMorgan/logtail/internal/fileid"
	"github.com/SteelMorgan/logtail/internal/observability"
	"github.com/SteelMorgan/logtail/internal/offset"
	"github.com/SteelMorgan/logtail/internal/retry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultChunkSize is the read buffer size: two pages
const DefaultChunkSize = 4096 * 2

// Phase is the lifecycle state of a Tracker
type Phase int

const (
	PhaseStart Phase = iota
	PhaseOpened
	PhasePositionDecided
	PhaseCopied
	PhaseSkipped
	PhasePersisted
	PhasePersistFailed
	PhaseDone
)

var errOutOfOrder = errors.New("operation called out of order")

// Options configures a Tracker
type Options struct {
	// Store holds the read cursor between runs. Defaults to the sidecar file.
	Store offset.StateStore
	// Journal, if set, receives every committed state
	Journal offset.Journal
	// ChunkSize is the read buffer size (default: DefaultChunkSize)
	ChunkSize int
	// WriteRetry bounds attempts per output chunk (default: retry.DefaultConfig)
	WriteRetry retry.Config
	// RunID identifies the run in journal entries
	RunID string
}

// Result summarizes one run
type Result struct {
	Path        string
	Identity    domain.Identity
	Size        int64
	Start       int64
	Reason      Reason
	Skipped     bool
	BytesCopied int64
	Offset      int64
	// PersistErr is set when the new state could not be saved
	PersistErr error
}

// Tracker tails a single file once: open, decide where to start, copy what is
// available, remember where it stopped.
type Tracker struct {
	path    string
	opts    Options
	stat    func(*os.File) (fileid.Info, error)
	file    *os.File
	phase   Phase
	current domain.TrackedFile
	saved   domain.TailState
	pos     Position
	copied  int64
	offset  int64
}

// NewTracker creates a tracker for path
func NewTracker(path string, opts Options) *Tracker {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.WriteRetry.MaxAttempts <= 0 {
		opts.WriteRetry = retry.DefaultConfig()
	}
	if opts.Store == nil {
		opts.Store = offset.NewSidecar(opts.WriteRetry)
	}

	return &Tracker{
		path: path,
		opts: opts,
		stat: fileid.Stat,
	}
}

// Phase returns the current lifecycle state
func (t *Tracker) Phase() Phase {
	return t.phase
}

// Open opens the tracked file read-only
func (t *Tracker) Open(ctx context.Context) error {
	if t.phase != PhaseStart {
		return fmt.Errorf("open: %w", errOutOfOrder)
	}

	_, span := observability.StartSpan(ctx, "tail.open", attribute.String("file.path", t.path))

	f, err := os.Open(t.path)
	if err != nil {
		terr := newError(Unreadable, t.path, err)
		observability.EndSpan(span, terr, "open failed")
		return terr
	}

	t.file = f
	t.phase = PhaseOpened
	observability.EndSpan(span, nil, "opened")
	return nil
}

// ResolvePosition compares the saved state with the open file and moves the
// read cursor to where this run starts. When Skip is set there is nothing to
// read and the cursor is left untouched.
func (t *Tracker) ResolvePosition(ctx context.Context) (Position, error) {
	if t.phase != PhaseOpened {
		return Position{}, fmt.Errorf("resolve position: %w", errOutOfOrder)
	}

	ctx, span := observability.StartSpan(ctx, "tail.resolve_position", attribute.String("file.path", t.path))

	info, err := t.stat(t.file)
	if err != nil {
		terr := newError(StatUnavailable, t.path, err)
		observability.EndSpan(span, terr, "stat failed")
		return Position{}, terr
	}

	t.current = domain.TrackedFile{
		Path:     t.path,
		Identity: domain.Identity(info.Inode),
		Device:   info.Device,
		Size:     info.Size,
	}
	t.saved = t.opts.Store.Load(ctx, t.path)
	t.pos = Decide(t.saved, t.current)

	span.SetAttributes(
		attribute.String("tail.reason", t.pos.Reason.String()),
		attribute.Int64("tail.start", t.pos.Start),
		attribute.Int64("file.size", t.current.Size),
	)

	switch t.pos.Reason {
	case Truncated:
		log.Warn().
			Str("file", t.path).
			Int64("saved_offset", t.saved.Offset).
			Int64("file_size", t.current.Size).
			Msg("Log file is smaller than last time checked, this could indicate tampering")
	case Rotated:
		log.Debug().
			Str("file", t.path).
			Uint64("saved_identity", uint64(t.saved.Identity)).
			Uint64("identity", uint64(t.current.Identity)).
			Msg("Log file rotated, starting from the beginning")
	}

	if t.pos.Skip {
		t.phase = PhaseSkipped
		observability.EndSpan(span, nil, "nothing new")
		return t.pos, nil
	}

	if _, err := t.file.Seek(t.pos.Start, io.SeekStart); err != nil {
		terr := newError(SeekFailure, t.path, err)
		observability.EndSpan(span, terr, "seek failed")
		return Position{}, terr
	}

	t.phase = PhasePositionDecided
	observability.EndSpan(span, nil, "positioned")
	return t.pos, nil
}

// CopyAvailable copies everything from the cursor to the current end of file
// into sink, chunk by chunk. Each chunk gets a bounded number of write
// attempts; an incomplete chunk fails the run.
func (t *Tracker) CopyAvailable(ctx context.Context, sink io.Writer) (int64, error) {
	if t.phase != PhasePositionDecided {
		return 0, fmt.Errorf("copy: %w", errOutOfOrder)
	}

	ctx, span := observability.StartSpan(ctx, "tail.copy", attribute.String("file.path", t.path))

	buf := make([]byte, t.opts.ChunkSize)
	for {
		n, rerr := t.file.Read(buf)
		if n > 0 {
			w, err := retry.WriteAll(ctx, t.opts.WriteRetry, sink, buf[:n])
			t.copied += int64(w)
			if err != nil {
				terr := newError(WriteFailure, t.path, err)
				span.SetAttributes(attribute.Int64("tail.bytes_copied", t.copied))
				observability.EndSpan(span, terr, "output write failed")
				return t.copied, terr
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			terr := newError(Unreadable, t.path, rerr)
			observability.EndSpan(span, terr, "read failed")
			return t.copied, terr
		}
	}

	pos, err := t.file.Seek(0, io.SeekCurrent)
	if err != nil {
		terr := newError(SeekFailure, t.path, err)
		observability.EndSpan(span, terr, "cannot get file offset")
		return t.copied, terr
	}

	t.offset = pos
	t.phase = PhaseCopied
	span.SetAttributes(
		attribute.Int64("tail.bytes_copied", t.copied),
		attribute.Int64("tail.offset", t.offset),
	)
	observability.EndSpan(span, nil, "copied")
	return t.copied, nil
}

// Persist saves the identity and end offset reached by CopyAvailable.
// A failure loses the bookmark only; the next run starts from the beginning.
func (t *Tracker) Persist(ctx context.Context) error {
	if t.phase != PhaseCopied {
		return fmt.Errorf("persist: %w", errOutOfOrder)
	}

	ctx, span := observability.StartSpan(ctx, "tail.persist",
		attribute.String("file.path", t.path),
		attribute.Int64("tail.offset", t.offset),
	)

	state := domain.TailState{
		Identity: t.current.Identity,
		Offset:   t.offset,
		Valid:    true,
	}
	if err := t.opts.Store.Save(ctx, t.path, state); err != nil {
		terr := newError(SidecarWriteFailure, t.path, err)
		log.Error().
			Err(err).
			Str("file", t.path).
			Int64("offset", t.offset).
			Msg("Could not save offset, the next run will start from the beginning")
		t.phase = PhasePersistFailed
		observability.EndSpan(span, terr, "persist failed")
		return terr
	}

	if t.opts.Journal != nil {
		entry := domain.JournalEntry{
			Path:        t.path,
			Identity:    state.Identity,
			Offset:      state.Offset,
			BytesCopied: t.copied,
			RunID:       t.opts.RunID,
			RecordedAt:  time.Now().UTC(),
		}
		if err := t.opts.Journal.Record(ctx, entry); err != nil {
			log.Warn().Err(err).Str("file", t.path).Msg("Failed to mirror offset to state journal")
		}
	}

	t.phase = PhasePersisted
	observability.EndSpan(span, nil, "persisted")
	return nil
}

// Close releases the tracked file. It is safe to call more than once.
func (t *Tracker) Close() error {
	if t.file == nil {
		return nil
	}

	err := t.file.Close()
	t.file = nil
	if t.phase != PhaseStart {
		t.phase = PhaseDone
	}
	return err
}

// Run performs the whole lifecycle once and always releases the file.
// A failure to persist is reported in Result.PersistErr, not as an error.
func (t *Tracker) Run(ctx context.Context, sink io.Writer) (Result, error) {
	ctx, span := observability.StartSpan(ctx, "tail.run", attribute.String("file.path", t.path))
	defer t.Close()

	res, err := t.run(ctx, sink)
	observability.EndSpan(span, err, "run finished")
	return res, err
}

func (t *Tracker) run(ctx context.Context, sink io.Writer) (Result, error) {
	res := Result{Path: t.path}

	if err := t.Open(ctx); err != nil {
		return res, err
	}

	pos, err := t.ResolvePosition(ctx)
	if err != nil {
		return res, err
	}
	res.Identity = t.current.Identity
	res.Size = t.current.Size
	res.Start = pos.Start
	res.Reason = pos.Reason

	if pos.Skip {
		res.Skipped = true
		res.Offset = pos.Start
		return res, nil
	}

	n, err := t.CopyAvailable(ctx, sink)
	res.BytesCopied = n
	if err != nil {
		return res, err
	}
	res.Offset = t.offset

	// Only the bookmark is lost; the bytes are already out
	res.PersistErr = t.Persist(ctx)

	return res, nil
}
