package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts  int           // Maximum number of attempts (default: 3)
	InitialDelay time.Duration // Delay before the second attempt (default: 0)
	MaxDelay     time.Duration // Maximum delay between attempts
	Multiplier   float64       // Exponential backoff multiplier
	// Retryable decides whether an error deserves another attempt.
	// Nil means every error is retried.
	Retryable func(error) bool
}

// DefaultConfig returns the configuration used for output and sidecar writes:
// three immediate attempts, any error retried.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Multiplier:  2.0,
	}
}

// IsTransientWriteError reports errors that a repeated write may get past
func IsTransientWriteError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, io.ErrShortWrite),
		errors.Is(err, syscall.EINTR),
		errors.Is(err, syscall.EAGAIN):
		return true
	}

	return false
}

// Do executes a function with retry logic
func Do(ctx context.Context, cfg Config, operation func() error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		}

		err := operation()
		if err == nil {
			if attempt > 1 {
				log.Debug().
					Int("attempt", attempt).
					Msg("Operation succeeded after retry")
			}
			return nil
		}

		lastErr = err

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			log.Debug().
				Err(err).
				Int("attempt", attempt).
				Msg("Error is not retryable, aborting")
			return err
		}

		// Don't retry on last attempt
		if attempt >= cfg.MaxAttempts {
			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", cfg.MaxAttempts).
				Msg("Max retry attempts reached")
			return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("retry_delay", delay).
			Msg("Operation failed, retrying")

		if delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// WriteAll writes p to w, resuming after short writes, for at most
// cfg.MaxAttempts calls to w.Write. It returns the number of bytes
// accepted by w.
func WriteAll(ctx context.Context, cfg Config, w io.Writer, p []byte) (int, error) {
	written := 0

	err := Do(ctx, cfg, func() error {
		n, err := w.Write(p[written:])
		if n > 0 {
			written += n
		}
		if written >= len(p) {
			return nil
		}
		if err == nil {
			err = io.ErrShortWrite
		}
		return err
	})

	return written, err
}
