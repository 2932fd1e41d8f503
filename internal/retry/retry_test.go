package retry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"syscall"
	"testing"
	"time"
)

// shortWriter accepts at most limit bytes per call and fails after calls
// reaches failAfter (when failAfter > 0).
type shortWriter struct {
	buf       bytes.Buffer
	limit     int
	calls     int
	failAfter int
}

func (w *shortWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.failAfter > 0 && w.calls > w.failAfter {
		return 0, syscall.EIO
	}
	n := len(p)
	if w.limit > 0 && n > w.limit {
		n = w.limit
	}
	w.buf.Write(p[:n])
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func TestWriteAll(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		limit       int
		failAfter   int
		wantWritten int
		wantErr     bool
		wantCalls   int
	}{
		{name: "single write", data: "hello", wantWritten: 5, wantCalls: 1},
		{name: "two short writes", data: "abcdef", limit: 3, wantWritten: 6, wantCalls: 2},
		{name: "three short writes", data: "abcdefghi", limit: 3, wantWritten: 9, wantCalls: 3},
		{name: "exceeds attempts", data: "abcdefghijkl", limit: 3, wantWritten: 9, wantErr: true, wantCalls: 3},
		{name: "hard failure", data: "abcdef", limit: 2, failAfter: 1, wantWritten: 2, wantErr: true, wantCalls: 3},
		{name: "empty input", data: "", wantWritten: 0, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &shortWriter{limit: tt.limit, failAfter: tt.failAfter}
			n, err := WriteAll(context.Background(), DefaultConfig(), w, []byte(tt.data))

			if (err != nil) != tt.wantErr {
				t.Fatalf("WriteAll() error = %v, wantErr %v", err, tt.wantErr)
			}
			if n != tt.wantWritten {
				t.Errorf("expected written=%d, got %d", tt.wantWritten, n)
			}
			if w.calls != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, w.calls)
			}
			if got := w.buf.String(); got != tt.data[:tt.wantWritten] {
				t.Errorf("expected output %q, got %q", tt.data[:tt.wantWritten], got)
			}
		})
	}
}

func TestDo_NotRetryable(t *testing.T) {
	calls := 0
	permanent := errors.New("permanent")
	cfg := DefaultConfig()
	cfg.Retryable = IsTransientWriteError

	err := Do(context.Background(), cfg, func() error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_Backoff(t *testing.T) {
	calls := 0
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}

	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return io.ErrShortWrite
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Do(ctx, DefaultConfig(), func() error {
		called = true
		return nil
	})

	if err == nil {
		t.Error("expected error for cancelled context")
	}
	if called {
		t.Error("operation must not run with a cancelled context")
	}
}

func TestIsTransientWriteError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{io.ErrShortWrite, true},
		{syscall.EINTR, true},
		{syscall.EAGAIN, true},
		{syscall.EPIPE, false},
		{errors.New("boom"), false},
	}

	for _, tt := range tests {
		if got := IsTransientWriteError(tt.err); got != tt.want {
			t.Errorf("IsTransientWriteError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
