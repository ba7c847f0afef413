package scan

import (
	"time"

	"github.com/Znapy/pv-organizer/internal/mediakind"
)

// SourceEntry describes one node of the source tree as observed during a
// walk. Entries are produced fresh on every traversal and never mutated
// after being emitted.
type SourceEntry struct {
	// RelPath is the slash-joined path relative to the source root.
	RelPath string
	// AbsPath is the absolute path of the entry in the source tree.
	AbsPath string
	// Kind is the media kind; directories carry KindDirectory.
	Kind mediakind.Kind
	// ModTime is the source last-modified timestamp.
	ModTime time.Time
	// Size is the file size in bytes (0 for directories).
	Size int64
	// Err is set when the entry marks a subtree the walker could not
	// read; such entries carry no usable metadata beyond the paths.
	Err error
}

// IsDir reports whether the entry marks a directory.
func (e SourceEntry) IsDir() bool {
	return e.Kind == mediakind.KindDirectory
}

// Failed reports whether the entry marks a traversal failure.
func (e SourceEntry) Failed() bool {
	return e.Err != nil
}
