package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/metrics"
	"github.com/Znapy/pv-organizer/internal/plan"
	"github.com/Znapy/pv-organizer/internal/thumb"
)

// DirectoryMode is the permission mode for mirrored destination
// directories.
const DirectoryMode = 0o740

// FileMode is the permission mode for written thumbnails.
const FileMode = 0o640

// Dispatcher executes sync actions against the destination tree. Every
// failure is captured in the returned Outcome; Execute never lets one bad
// file abort the remaining queue.
type Dispatcher struct {
	destRoot string
	gen      *thumb.Generator
	dryRun   bool
}

// NewDispatcher creates a dispatcher writing under destRoot.
func NewDispatcher(destRoot string, gen *thumb.Generator, dryRun bool) *Dispatcher {
	return &Dispatcher{destRoot: destRoot, gen: gen, dryRun: dryRun}
}

// Execute performs one action and reports its outcome.
func (d *Dispatcher) Execute(ctx context.Context, action plan.Action) Outcome {
	start := time.Now()

	metrics.SyncActionsInFlight.Inc()
	defer metrics.SyncActionsInFlight.Dec()

	out := d.execute(ctx, action)
	out.Duration = time.Since(start)

	metrics.SyncEntriesTotal.WithLabelValues(string(out.Action), string(out.Status)).Inc()
	if out.Failed() {
		logging.Warn("%s failed for %s: %s", out.Action, out.Path, out.Reason)
	}
	return out
}

func (d *Dispatcher) execute(ctx context.Context, action plan.Action) Outcome {
	out := Outcome{Path: action.Path(), Action: action.Type}

	if err := ctx.Err(); err != nil {
		out.Status = StatusCancelled
		out.Reason = "cancelled"
		return out
	}

	switch action.Type {
	case plan.ActionMirrorDir:
		return d.mirrorDir(action, out)
	case plan.ActionCreate, plan.ActionRefresh:
		return d.generate(ctx, action, out)
	case plan.ActionSkip:
		out.Status = StatusSkipped
		out.Reason = action.Reason
		return out
	case plan.ActionOrphanDelete:
		return d.orphanDelete(action, out)
	default:
		out.Status = StatusFailed
		out.Kind = FailureIO
		out.Reason = fmt.Sprintf("unknown action type %q", action.Type)
		return out
	}
}

// mirrorDir ensures the mirrored destination directory exists. Idempotent;
// the only failure mode is the path existing as a non-directory.
func (d *Dispatcher) mirrorDir(action plan.Action, out Outcome) Outcome {
	if d.dryRun {
		out.Status = StatusSucceeded
		out.Reason = "dry run"
		return out
	}

	if err := os.MkdirAll(action.Dest.AbsPath, DirectoryMode); err != nil {
		out.Status = StatusFailed
		out.Kind = FailureIO
		out.Reason = err.Error()
		return out
	}

	out.Status = StatusSucceeded
	return out
}

// generate creates or refreshes a thumbnail, writing it atomically: bytes
// go to a temp file in the destination directory which is then renamed
// into place, so a half-written thumbnail is never observable.
func (d *Dispatcher) generate(ctx context.Context, action plan.Action, out Outcome) Outcome {
	if d.dryRun {
		logging.Info("[dry-run] would %s %s", action.Type, action.Path())
		out.Status = StatusSucceeded
		out.Reason = "dry run"
		return out
	}

	data, err := d.gen.Generate(ctx, action.Source.Kind, action.Source.AbsPath)
	if err != nil {
		out.Status = StatusFailed
		out.Kind = FailureCollaborator
		out.Reason = err.Error()
		return out
	}

	destPath := filepath.Join(d.destRoot, filepath.FromSlash(action.Path()))
	if err := writeAtomic(destPath, data); err != nil {
		out.Status = StatusFailed
		out.Kind = FailureIO
		out.Reason = err.Error()
		return out
	}

	metrics.SyncBytesProcessed.Add(float64(action.Source.Size))
	logging.Debug("Wrote thumbnail %s (%d bytes)", destPath, len(data))
	out.Status = StatusSucceeded
	return out
}

func writeAtomic(destPath string, data []byte) error {
	dir := filepath.Dir(destPath)

	tmp, err := os.CreateTemp(dir, ".pvo-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if removeErr := os.Remove(tmpName); removeErr != nil && !os.IsNotExist(removeErr) {
			logging.Warn("failed to remove temp file %s: %v", tmpName, removeErr)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, FileMode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// orphanDelete removes a destination entry whose source is gone, then
// prunes directories that became empty, up to (not including) the
// destination root.
func (d *Dispatcher) orphanDelete(action plan.Action, out Outcome) Outcome {
	if d.dryRun {
		logging.Info("[dry-run] would delete orphan %s", action.Path())
		out.Status = StatusSucceeded
		out.Reason = "dry run"
		return out
	}

	target := action.Dest.AbsPath

	if action.Dest.IsDir {
		// Directories are only removed when empty; leftovers (a failed
		// child deletion, user files) keep them alive.
		if err := os.Remove(target); err != nil {
			out.Status = StatusSkipped
			out.Reason = fmt.Sprintf("directory not removed: %v", err)
			return out
		}
		out.Status = StatusSucceeded
		return out
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			out.Status = StatusSkipped
			out.Reason = "already gone"
			return out
		}
		out.Status = StatusFailed
		out.Kind = FailureIO
		out.Reason = err.Error()
		return out
	}

	d.pruneEmptyDirs(filepath.Dir(target))
	out.Status = StatusSucceeded
	return out
}

// pruneEmptyDirs removes empty directories walking upward until a
// non-empty directory or the destination root is reached.
func (d *Dispatcher) pruneEmptyDirs(dir string) {
	root := filepath.Clean(d.destRoot)
	for {
		dir = filepath.Clean(dir)
		if dir == root || !isWithin(root, dir) {
			return
		}
		if err := os.Remove(dir); err != nil {
			return // not empty, or already gone
		}
		logging.Debug("Pruned empty directory %s", dir)
		dir = filepath.Dir(dir)
	}
}

func isWithin(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !filepath.IsAbs(rel) && rel != "." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}
