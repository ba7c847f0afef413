// Package watch re-runs synchronization when the source tree changes.
// Filesystem events are coalesced with a quiet-period debounce so a
// burst of writes (a camera import, an editor save) triggers one run.
package watch

import (
	"context"
	"time"

	"github.com/rjeczalik/notify"

	"github.com/Znapy/pv-organizer/internal/logging"
)

const (
	eventBufferSize = 64

	// DefaultDebounce is how long the source must stay quiet before a
	// pending change triggers a run.
	DefaultDebounce = 2 * time.Second
)

// RunFunc executes one synchronization pass.
type RunFunc func(ctx context.Context) error

// Watcher observes a source tree and invokes a run function after each
// debounced change burst. Runs never overlap: a change arriving during
// a run marks it pending and a new run starts once the current one
// finishes.
type Watcher struct {
	sourceRoot string
	debounce   time.Duration
	run        RunFunc
}

// NewWatcher creates a watcher over sourceRoot. A non-positive debounce
// falls back to DefaultDebounce.
func NewWatcher(sourceRoot string, debounce time.Duration, run RunFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{sourceRoot: sourceRoot, debounce: debounce, run: run}
}

// Watch blocks until ctx is cancelled, running an initial pass and then
// one pass per debounced change burst. Run errors are logged and do not
// stop watching.
func (w *Watcher) Watch(ctx context.Context) error {
	events := make(chan notify.EventInfo, eventBufferSize)

	recursivePath := w.sourceRoot + "/..."
	if err := notify.Watch(recursivePath, events,
		notify.Write, notify.Create, notify.Remove, notify.Rename); err != nil {
		return err
	}
	defer notify.Stop(events)

	logging.Info("Watching %s for changes (debounce %s)", w.sourceRoot, w.debounce)

	// Initial pass so the destination is current before we start
	// reacting to events.
	w.runOnce(ctx)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending bool
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logging.Info("Watch mode stopping")
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				return nil
			}
			logging.Debug("Source change: %s %s", event.Event(), event.Path())
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			if pending {
				pending = false
				w.runOnce(ctx)
			}
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.run(ctx); err != nil {
		logging.Error("Sync run failed: %v", err)
	}
}
