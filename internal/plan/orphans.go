package plan

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Znapy/pv-organizer/internal/logging"
)

// SweepOrphans walks the destination tree and emits an OrphanDelete action
// for every entry whose mirrored source path no longer exists. It is the
// second pass of a run: the destination is only inspected after all
// create/refresh dispatches from the same pass have completed, so a rename
// during traversal can never cause a freshly written thumbnail to be
// deleted mid-write.
//
// Children are visited before their directory so that emptied directories
// can be removed bottom-up.
func (d *Decider) SweepOrphans(ctx context.Context, visit func(Action) error) error {
	return d.sweepDir(ctx, "", visit)
}

func (d *Decider) sweepDir(ctx context.Context, rel string, visit func(Action) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	abs := filepath.Join(d.destRoot, filepath.FromSlash(rel))
	entries, err := os.ReadDir(abs)
	if err != nil {
		// An unreadable destination directory is logged and skipped; the
		// next run will see it again.
		logging.Warn("Orphan sweep: error reading %s: %v", abs, err)
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		// Dotfiles in the destination belong to the organizer itself
		// (lock file, journal) or the user; never treated as orphans.
		if strings.HasPrefix(name, ".") {
			continue
		}

		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		childAbs := filepath.Join(abs, name)

		if entry.IsDir() {
			if err := d.sweepDir(ctx, childRel, visit); err != nil {
				return err
			}
			if !d.sourceExists(childRel, true) {
				if err := visit(d.orphan(childRel, childAbs, true)); err != nil {
					return err
				}
			}
			continue
		}

		if !d.sourceExists(childRel, false) {
			if err := visit(d.orphan(childRel, childAbs, false)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d *Decider) orphan(rel, abs string, isDir bool) Action {
	logging.Debug("Orphaned destination entry: %s", rel)
	return Action{
		Type: ActionOrphanDelete,
		Dest: DestinationEntry{RelPath: rel, AbsPath: abs, Exists: true, IsDir: isDir},
	}
}
