package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Znapy/pv-organizer/internal/dispatch"
	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/metrics"
	"github.com/Znapy/pv-organizer/internal/plan"
	"github.com/Znapy/pv-organizer/internal/scan"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// State is the driver's position in its run lifecycle.
type State int32

const (
	// StateIdle means no run is in progress.
	StateIdle State = iota
	// StateWalking means the source tree is being traversed.
	StateWalking
	// StateDispatching means the walk finished and workers are draining.
	StateDispatching
	// StateOrphanSweep means the destination is being swept for orphans.
	StateOrphanSweep
	// StateDone means the run reached its terminal state.
	StateDone
)

var stateNames = []string{"idle", "walking", "dispatching", "orphan-sweep", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// ErrRunInProgress is returned when Run is called while a previous run on
// the same driver has not finished.
var ErrRunInProgress = errors.New("synchronization already running")

const defaultQueueBuffer = 256

// Driver orchestrates one synchronization pass: walk the source, decide
// per entry, dispatch file actions on a worker pool, then sweep the
// destination for orphans. The driver always reaches Done; per-file
// errors are recorded, never propagated.
type Driver struct {
	walker     *scan.Walker
	decider    *plan.Decider
	dispatcher *dispatch.Dispatcher
	workers    int

	state   atomic.Int32
	running atomic.Bool
}

// NewDriver wires the pipeline components together. workers is the number
// of concurrent dispatch workers; values below 1 are clamped to 1.
func NewDriver(walker *scan.Walker, decider *plan.Decider, dispatcher *dispatch.Dispatcher, workers int) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		walker:     walker,
		decider:    decider,
		dispatcher: dispatcher,
		workers:    workers,
	}
}

// State returns the driver's current lifecycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	metrics.SyncEngineState.Set(float64(s))
	logging.Debug("Engine state: %s", s)
}

// Run performs one full synchronization pass and returns its result. The
// context provides cooperative cancellation: it is checked between
// entries, queued entries are recorded as cancelled, and thumbnails
// already renamed into place remain valid.
func (d *Driver) Run(ctx context.Context) (*RunResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer d.running.Store(false)
	defer d.setState(StateDone)

	metrics.SyncRunsTotal.Inc()
	result := NewRunResult()

	rootFailed := d.syncPass(ctx, result)

	// The sweep only runs when the primary pass completed in full: a
	// cancelled or root-failed walk must never be allowed to interpret
	// missing source knowledge as "everything is an orphan".
	if ctx.Err() == nil && !rootFailed {
		d.setState(StateOrphanSweep)
		d.sweep(ctx, result)
	} else if rootFailed {
		logging.Error("Source root could not be read; skipping orphan sweep")
	}

	d.finalize(result)
	return result, nil
}

// syncPass pipelines walking and dispatching. Directory mirror actions
// run inline in the producer so a directory observably exists before any
// worker touches its children; file actions go through the bounded queue
// to the worker pool. Reports whether the source root itself was
// unreadable.
func (d *Driver) syncPass(ctx context.Context, result *RunResult) bool {
	d.setState(StateWalking)

	jobs := make(chan plan.Action, defaultQueueBuffer)

	var pool errgroup.Group
	for i := 0; i < d.workers; i++ {
		pool.Go(func() error {
			for action := range jobs {
				out := d.dispatcher.Execute(ctx, action)
				result.Add(out)
				if !out.Failed() && out.Status == dispatch.StatusSucceeded &&
					(action.Type == plan.ActionCreate || action.Type == plan.ActionRefresh) {
					result.AddBytes(action.Source.Size)
				}
			}
			return nil
		})
	}

	var rootFailed bool
	walkErr := d.walker.Walk(ctx, func(entry scan.SourceEntry) error {
		if entry.Failed() {
			if entry.RelPath == "" {
				rootFailed = true
			}
			d.recordTraversalFailure(entry, result)
			return nil
		}

		action := d.decider.Decide(entry)

		if action.Type == plan.ActionMirrorDir {
			// Completes before any child action is even enqueued.
			result.Add(d.dispatcher.Execute(ctx, action))
			return nil
		}

		select {
		case jobs <- action:
			return nil
		case <-ctx.Done():
			result.Add(dispatch.Outcome{
				Path:   action.Path(),
				Action: action.Type,
				Status: dispatch.StatusCancelled,
				Reason: "cancelled",
			})
			return ctx.Err()
		}
	})
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		logging.Error("Walk aborted: %v", walkErr)
	}

	close(jobs)
	d.setState(StateDispatching)
	// Workers never return errors; failures live in the outcomes.
	_ = pool.Wait()

	return rootFailed
}

func (d *Driver) recordTraversalFailure(entry scan.SourceEntry, result *RunResult) {
	out := dispatch.Outcome{
		Path:   entry.RelPath,
		Action: plan.ActionSkip,
		Status: dispatch.StatusFailed,
		Kind:   dispatch.FailureTraversal,
		Reason: entry.Err.Error(),
	}
	metrics.SyncEntriesTotal.WithLabelValues(string(out.Action), string(out.Status)).Inc()
	result.Add(out)
}

// sweep walks the destination and deletes orphans sequentially. Deletes
// are cheap compared to generation, and a single deleter sidesteps any
// same-path races with directory pruning.
func (d *Driver) sweep(ctx context.Context, result *RunResult) {
	err := d.decider.SweepOrphans(ctx, func(action plan.Action) error {
		result.Add(d.dispatcher.Execute(ctx, action))
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error("Orphan sweep aborted: %v", err)
	}
}

func (d *Driver) finalize(result *RunResult) {
	result.Duration = time.Since(result.StartedAt)

	metrics.SyncLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.SyncLastRunDuration.Set(result.Duration.Seconds())
	if result.HasFailures() {
		metrics.SyncRunsErrored.Inc()
	}

	logging.Info("Sync complete in %v: %s (%s processed)",
		result.Duration.Round(time.Millisecond), result.Summary(),
		humanize.Bytes(uint64(result.BytesProcessed)))

	for _, failure := range result.Failures() {
		logging.Error("  failed [%s] %s: %s", failure.Kind, failure.Path, failure.Reason)
	}
}
