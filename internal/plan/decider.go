package plan

import (
	"os"
	"path/filepath"

	"github.com/Znapy/pv-organizer/internal/filesystem"
	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/mediakind"
	"github.com/Znapy/pv-organizer/internal/scan"
)

// Decider turns source entries into sync actions by comparing them against
// the mirrored destination state. It holds no state between decisions,
// which is what makes re-running a whole synchronization cheap and safe.
type Decider struct {
	srcRoot    string
	destRoot   string
	classifier *mediakind.Classifier
	retry      filesystem.RetryConfig
}

// NewDecider creates a decider for the given roots.
func NewDecider(srcRoot, destRoot string, classifier *mediakind.Classifier) *Decider {
	return &Decider{
		srcRoot:    srcRoot,
		destRoot:   destRoot,
		classifier: classifier,
		retry:      filesystem.DefaultRetryConfig(),
	}
}

// DestPath returns the absolute destination path mirroring rel.
func (d *Decider) DestPath(rel string) string {
	return filepath.Join(d.destRoot, filepath.FromSlash(rel))
}

// Lookup queries the current on-disk destination state for rel.
func (d *Decider) Lookup(rel string) DestinationEntry {
	abs := d.DestPath(rel)
	info, err := filesystem.StatWithRetry(abs, d.retry)
	if err != nil {
		return DestinationEntry{RelPath: rel, AbsPath: abs}
	}
	return DestinationEntry{
		RelPath: rel,
		AbsPath: abs,
		Exists:  true,
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
}

// Decide maps one source entry to the action required to bring its
// mirrored destination up to date. Rules, in order: directories always
// mirror; unsupported kinds skip (counted, not dropped); a missing
// destination creates; a destination strictly older than the source
// refreshes; anything else skips. Equal timestamps favor Skip so an
// unchanged tree costs nothing to re-run.
func (d *Decider) Decide(entry scan.SourceEntry) Action {
	if entry.IsDir() {
		return Action{Type: ActionMirrorDir, Source: entry, Dest: d.mirrorOnly(entry.RelPath)}
	}

	if entry.Kind == mediakind.KindUnsupported {
		return Action{Type: ActionSkip, Source: entry, Reason: "unsupported file type"}
	}

	dest := d.Lookup(entry.RelPath)
	if !dest.Exists {
		return Action{Type: ActionCreate, Source: entry, Dest: dest}
	}

	if dest.ModTime.Before(entry.ModTime) {
		logging.Debug("Stale thumbnail %s: source %v > destination %v", entry.RelPath, entry.ModTime, dest.ModTime)
		return Action{Type: ActionRefresh, Source: entry, Dest: dest}
	}

	return Action{Type: ActionSkip, Source: entry, Dest: dest, Reason: "up to date"}
}

func (d *Decider) mirrorOnly(rel string) DestinationEntry {
	return DestinationEntry{RelPath: rel, AbsPath: d.DestPath(rel), IsDir: true}
}

// sourceExists reports whether the mirrored source path for a destination
// entry still exists and, for files, still classifies as media.
func (d *Decider) sourceExists(rel string, destIsDir bool) bool {
	abs := filepath.Join(d.srcRoot, filepath.FromSlash(rel))
	info, err := os.Lstat(abs)
	if err != nil {
		return false
	}
	if destIsDir {
		return info.IsDir()
	}
	if info.IsDir() || info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	return d.classifier.IsMedia(rel)
}
