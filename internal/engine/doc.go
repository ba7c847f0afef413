// Package engine drives one synchronization pass through its lifecycle:
// Idle, Walking, Dispatching, OrphanSweep, Done. Walking and dispatching
// are pipelined over a bounded queue and a worker pool; the orphan sweep
// starts only after every create/refresh from the same pass has finished.
package engine
