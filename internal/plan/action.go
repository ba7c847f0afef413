package plan

import (
	"time"

	"github.com/Znapy/pv-organizer/internal/scan"
)

// ActionType enumerates what the dispatcher must do for one tree node.
type ActionType string

const (
	// ActionMirrorDir ensures the mirrored destination directory exists.
	// Always emitted for directories; idempotent.
	ActionMirrorDir ActionType = "mirror-dir"
	// ActionCreate produces a thumbnail that does not exist yet.
	ActionCreate ActionType = "create"
	// ActionRefresh regenerates a thumbnail older than its source.
	ActionRefresh ActionType = "refresh"
	// ActionSkip leaves the destination alone (up to date or unsupported).
	ActionSkip ActionType = "skip"
	// ActionOrphanDelete removes a destination entry whose source is gone.
	ActionOrphanDelete ActionType = "orphan-delete"
)

// DestinationEntry describes the on-disk state of a mirrored path. It is
// queried lazily and never cached between runs; staleness decisions derive
// entirely from filesystem timestamps.
type DestinationEntry struct {
	// RelPath equals the corresponding SourceEntry's RelPath.
	RelPath string
	// AbsPath is the absolute path in the destination tree.
	AbsPath string
	// Exists reports whether the mirrored path is present.
	Exists bool
	// ModTime is the thumbnail's last-modified timestamp, when present.
	ModTime time.Time
	// IsDir reports whether the destination entry is a directory.
	IsDir bool
}

// Action pairs a decision with the entries it concerns. Create, Refresh,
// Skip and MirrorDir carry the source entry; OrphanDelete carries only the
// destination entry.
type Action struct {
	Type   ActionType
	Source scan.SourceEntry
	Dest   DestinationEntry
	// Reason is a short human-readable explanation for Skip decisions.
	Reason string
}

// Path returns the relative path the action concerns.
func (a Action) Path() string {
	if a.Type == ActionOrphanDelete {
		return a.Dest.RelPath
	}
	return a.Source.RelPath
}
