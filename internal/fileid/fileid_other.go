//go:build !unix

package fileid

import (
	"fmt"
	"os"
)

// Stat is not available without inode numbers
func Stat(f *os.File) (Info, error) {
	return Info{}, fmt.Errorf("stat %s: %w", f.Name(), ErrUnsupported)
}
