// Package fileid extracts the stable file-system identity of open files.
package fileid

import "errors"

// ErrUnsupported is returned on platforms without inode numbers
var ErrUnsupported = errors.New("file identity is not supported on this platform")

// Info contains identity and size of a file
type Info struct {
	Device uint64
	Inode  uint64
	Size   int64
}
