package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Znapy/pv-organizer/internal/dispatch"
	"github.com/Znapy/pv-organizer/internal/plan"
)

// RunResult accumulates per-entry outcomes for one synchronization pass.
// It is owned exclusively by the driver for the duration of the run; Add
// is safe for concurrent use by the dispatch workers.
type RunResult struct {
	StartedAt time.Time
	Duration  time.Duration

	mu       sync.Mutex
	outcomes []dispatch.Outcome

	// Summary counters. Directory mirror successes are deliberately not
	// counted: the summary reflects file-level work, matching what a
	// user thinks of as "what did the run do".
	Created   int
	Refreshed int
	Skipped   int
	Deleted   int
	Failed    int
	Cancelled int

	// BytesProcessed is the total size of source files thumbnailed.
	BytesProcessed int64
}

// NewRunResult creates an empty accumulator stamped with the start time.
func NewRunResult() *RunResult {
	return &RunResult{StartedAt: time.Now()}
}

// Add records one outcome and updates the summary counters.
func (r *RunResult) Add(out dispatch.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.outcomes = append(r.outcomes, out)

	switch out.Status {
	case dispatch.StatusFailed:
		r.Failed++
	case dispatch.StatusCancelled:
		r.Cancelled++
	case dispatch.StatusSkipped:
		r.Skipped++
	case dispatch.StatusSucceeded:
		switch out.Action {
		case plan.ActionCreate:
			r.Created++
		case plan.ActionRefresh:
			r.Refreshed++
		case plan.ActionOrphanDelete:
			r.Deleted++
		}
	}
}

// AddBytes records source bytes consumed by a successful generation.
func (r *RunResult) AddBytes(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.BytesProcessed += n
}

// Outcomes returns a copy of all recorded outcomes in completion order.
func (r *RunResult) Outcomes() []dispatch.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatch.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Failures returns the failed outcomes, each individually identifiable by
// path and reason.
func (r *RunResult) Failures() []dispatch.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []dispatch.Outcome
	for _, out := range r.outcomes {
		if out.Failed() {
			failed = append(failed, out)
		}
	}
	return failed
}

// HasFailures reports whether any entry failed; the process exit status is
// derived from this.
func (r *RunResult) HasFailures() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Failed > 0
}

// Summary returns the one-line run summary.
func (r *RunResult) Summary() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := fmt.Sprintf("created=%d refreshed=%d skipped=%d deleted=%d failed=%d",
		r.Created, r.Refreshed, r.Skipped, r.Deleted, r.Failed)
	if r.Cancelled > 0 {
		s += fmt.Sprintf(" cancelled=%d", r.Cancelled)
	}
	return s
}
