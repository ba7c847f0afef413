package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/mediakind"
	"github.com/Znapy/pv-organizer/internal/metrics"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker produces a lazy, restartable sequence of SourceEntry values by
// descending the source root depth-first. A directory entry is always
// emitted before any of its children, which lets the consumer mirror the
// directory ahead of the child files.
type Walker struct {
	root       string
	classifier *mediakind.Classifier

	// Excludes are doublestar patterns matched against the relative path.
	Excludes []string
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// VisitFunc receives entries in walk order. Returning an error aborts the
// remaining walk.
type VisitFunc func(SourceEntry) error

// NewWalker creates a walker over root using the given classifier.
func NewWalker(root string, classifier *mediakind.Classifier) *Walker {
	return &Walker{
		root:       root,
		classifier: classifier,
		SkipHidden: true,
	}
}

// Walk traverses the source tree, calling visit for every entry. Each call
// re-reads the tree from scratch; no iteration state survives between
// calls, so an unchanged tree yields the same logical sequence.
//
// Unreadable directories are reported as a single failed entry for the
// subtree and the walk continues with siblings. Symbolic links are never
// followed; they surface as Unsupported entries.
func (w *Walker) Walk(ctx context.Context, visit VisitFunc) error {
	return w.walkDir(ctx, "", visit)
}

func (w *Walker) walkDir(ctx context.Context, rel string, visit VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs := filepath.Join(w.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(abs)
	if err != nil {
		// The subtree is reported as failed; siblings keep walking.
		logging.Warn("Error reading directory %s: %v", abs, err)
		metrics.WalkerErrors.Inc()
		return visit(SourceEntry{RelPath: rel, AbsPath: abs, Kind: mediakind.KindUnsupported, Err: err})
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		childAbs := filepath.Join(abs, name)

		if w.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if w.excluded(childRel) {
			logging.Debug("Excluded by pattern: %s", childRel)
			continue
		}

		// Symlinks are yielded as unsupported, never followed
		if entry.Type()&fs.ModeSymlink != 0 {
			metrics.WalkerEntriesSeen.WithLabelValues(string(mediakind.KindUnsupported)).Inc()
			if err := visit(SourceEntry{RelPath: childRel, AbsPath: childAbs, Kind: mediakind.KindUnsupported}); err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", childAbs, err)
			metrics.WalkerErrors.Inc()
			if err := visit(SourceEntry{RelPath: childRel, AbsPath: childAbs, Kind: mediakind.KindUnsupported, Err: err}); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir() {
			metrics.WalkerEntriesSeen.WithLabelValues(string(mediakind.KindDirectory)).Inc()
			if err := visit(SourceEntry{
				RelPath: childRel,
				AbsPath: childAbs,
				Kind:    mediakind.KindDirectory,
				ModTime: info.ModTime(),
			}); err != nil {
				return err
			}
			if err := w.walkDir(ctx, childRel, visit); err != nil {
				return err
			}
			continue
		}

		kind := w.classifier.Classify(name)
		metrics.WalkerEntriesSeen.WithLabelValues(string(kind)).Inc()
		if err := visit(SourceEntry{
			RelPath: childRel,
			AbsPath: childAbs,
			Kind:    kind,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}); err != nil {
			return err
		}
	}

	return nil
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.Excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
