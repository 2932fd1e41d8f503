//go:build unix

package fileid

import (
	"os"
	"path/filepath"
	"testing"
)

func openFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestStat_SizeAndInode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	info, err := Stat(openFile(t, path))
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size != 10 {
		t.Errorf("expected Size=10, got %d", info.Size)
	}
	if info.Inode == 0 {
		t.Error("expected non-zero inode")
	}
}

func TestStat_RenameKeepsIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	before, err := Stat(openFile(t, path))
	if err != nil {
		t.Fatal(err)
	}

	renamed := filepath.Join(dir, "app.log.1")
	if err := os.Rename(path, renamed); err != nil {
		t.Fatal(err)
	}
	after, err := Stat(openFile(t, renamed))
	if err != nil {
		t.Fatal(err)
	}

	if before.Inode != after.Inode || before.Device != after.Device {
		t.Errorf("identity changed across rename: %+v -> %+v", before, after)
	}
}

func TestStat_ReplacedFileHasNewIdentity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	old, err := Stat(openFile(t, path))
	if err != nil {
		t.Fatal(err)
	}

	// Both files exist at once, so the inode cannot be recycled
	next := filepath.Join(dir, "app.log.new")
	if err := os.WriteFile(next, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(next, path); err != nil {
		t.Fatal(err)
	}
	cur, err := Stat(openFile(t, path))
	if err != nil {
		t.Fatal(err)
	}

	if old.Inode == cur.Inode {
		t.Errorf("expected different inode after replace, both are %d", cur.Inode)
	}
}

func TestStat_ClosedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := Stat(f); err == nil {
		t.Error("expected error for closed file")
	}
}
