//go:build unix

package fileid

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Stat returns identity and size of an open file using fstat(2), so the
// result always describes the descriptor we read from, not whatever the path
// points to now.
func Stat(f *os.File) (Info, error) {
	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return Info{}, fmt.Errorf("fstat %s: %w", f.Name(), err)
	}

	return Info{
		Device: uint64(st.Dev),
		Inode:  st.Ino,
		Size:   st.Size,
	}, nil
}
