package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SteelMorgan/logtail/internal/config"
	"github.com/SteelMorgan/logtail/internal/lock"
	"github.com/SteelMorgan/logtail/internal/observability"
	"github.com/SteelMorgan/logtail/internal/offset"
	"github.com/SteelMorgan/logtail/internal/tail"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

const usageText = `usage: logtail -f <file>
  Prints what was appended to <file> since the previous run.
  The read position is kept in <file>.offset.
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one tail pass. Data goes to stdout, diagnostics to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 2 {
		fmt.Fprint(stdout, usageText)
		return ExitUsage
	}
	if args[0] != "-f" {
		fmt.Fprint(stdout, usageText)
		return ExitBadFlag
	}
	path := args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return ExitConfig
	}

	runID := uuid.NewString()
	closeLog := observability.InitLogger(stderr, cfg.LogLevel, cfg.LogFile, runID)
	defer closeLog()

	shutdown, err := observability.InitTracer(observability.TracerConfig{
		ServiceName:    "logtail",
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		Protocol:       cfg.Tracing.Protocol,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to flush traces")
			}
		}()
	}

	ctx := context.Background()

	if cfg.Lock {
		runLock, err := lock.Acquire(offset.SidecarPath(path))
		if err != nil {
			if errors.Is(err, lock.ErrLocked) {
				log.Error().Err(err).Str("file", path).Msg("Another run is in progress")
			} else {
				log.Error().Err(err).Str("file", path).Msg("Failed to take the state lock")
			}
			return ExitLocked
		}
		defer runLock.Release()
	}

	opts := tail.Options{
		ChunkSize: cfg.ChunkSize,
		RunID:     runID,
	}

	if cfg.StateDB != "" {
		journal, err := offset.NewBoltDBStore(cfg.StateDB)
		if err != nil {
			log.Warn().Err(err).Str("db_path", cfg.StateDB).Msg("State journal unavailable, continuing without it")
		} else {
			defer journal.Close()
			opts.Journal = journal
		}
	}

	res, err := tail.NewTracker(path, opts).Run(ctx, stdout)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg(failureMessage(err))
		return exitCode(err)
	}

	log.Info().
		Str("file", path).
		Str("reason", res.Reason.String()).
		Int64("start", res.Start).
		Int64("bytes", res.BytesCopied).
		Int64("offset", res.Offset).
		Bool("persisted", !res.Skipped && res.PersistErr == nil).
		Msg("Tail complete")

	return ExitOK
}
