package offset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SteelMorgan/logtail/internal/domain"
)

func newTestJournal(t *testing.T) *BoltDBStore {
	t.Helper()
	store, err := NewBoltDBStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewBoltDBStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltDBStore_RecordGet(t *testing.T) {
	ctx := context.Background()
	store := newTestJournal(t)

	recorded := time.Date(2025, 1, 14, 8, 0, 0, 0, time.UTC)
	entry := domain.JournalEntry{
		Path:        "/var/log/app.log",
		Identity:    1234,
		Offset:      150,
		BytesCopied: 50,
		RunID:       "run-1",
		RecordedAt:  recorded,
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := store.Get(ctx, "/var/log/app.log")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Offset != 150 || got.Identity != 1234 || got.BytesCopied != 50 || got.RunID != "run-1" {
		t.Errorf("unexpected entry %+v", got)
	}
	if !got.RecordedAt.Equal(recorded) {
		t.Errorf("expected RecordedAt=%v, got %v", recorded, got.RecordedAt)
	}

	missing, err := store.Get(ctx, "/nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown path, got %+v", missing)
	}
}

func TestBoltDBStore_RecordReplaces(t *testing.T) {
	ctx := context.Background()
	store := newTestJournal(t)

	for _, off := range []int64{100, 150} {
		if err := store.Record(ctx, domain.JournalEntry{Path: "/var/log/app.log", Identity: 1, Offset: off}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all["/var/log/app.log"].Offset != 150 {
		t.Errorf("expected latest offset 150, got %d", all["/var/log/app.log"].Offset)
	}
}

func TestBoltDBStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestJournal(t)

	if err := store.Record(ctx, domain.JournalEntry{Path: "/var/log/a.log", Offset: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, domain.JournalEntry{Path: "/var/log/b.log", Offset: 2}); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "/var/log/a.log"); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all["/var/log/a.log"]; ok {
		t.Error("expected deleted entry to be gone")
	}
	if all["/var/log/b.log"].Offset != 2 {
		t.Errorf("expected b.log offset 2, got %+v", all["/var/log/b.log"])
	}
}

func TestBoltDBStore_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := NewBoltDBStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, domain.JournalEntry{Path: "/var/log/app.log", Offset: 42}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBoltDBStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "/var/log/app.log")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Offset != 42 {
		t.Errorf("expected offset 42 after reopen, got %+v", got)
	}
}
