// Package dispatch executes sync actions against the destination tree:
// mirroring directories, writing thumbnails atomically and deleting
// orphans. Per-file failure isolation is the key contract here: every
// error ends up in an Outcome, never as an aborted run.
package dispatch
