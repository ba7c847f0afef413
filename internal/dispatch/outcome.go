package dispatch

import (
	"time"

	"github.com/Znapy/pv-organizer/internal/plan"
)

// Status is the terminal state of one dispatched action.
type Status string

const (
	// StatusSucceeded means the action completed.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the action failed; the run continues regardless.
	StatusFailed Status = "failed"
	// StatusSkipped means no work was needed (or a dry run).
	StatusSkipped Status = "skipped"
	// StatusCancelled means the run was stopped before the action ran.
	StatusCancelled Status = "cancelled"
)

// FailureKind classifies failed outcomes for reporting.
type FailureKind string

const (
	// FailureTraversal marks a subtree the walker could not read.
	FailureTraversal FailureKind = "traversal"
	// FailureCollaborator marks a decode/resize/frame-extraction failure.
	FailureCollaborator FailureKind = "collaborator"
	// FailureIO marks a write/rename/delete failure.
	FailureIO FailureKind = "io"
)

// Outcome records what happened to one entry. Failed outcomes always carry
// the path and the reason individually; they are never merged into an
// aggregate error.
type Outcome struct {
	Path     string
	Action   plan.ActionType
	Status   Status
	Kind     FailureKind
	Reason   string
	Duration time.Duration
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}
