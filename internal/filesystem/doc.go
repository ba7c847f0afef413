// Package filesystem wraps stat/open with retry logic for NFS stale file
// handles (ESTALE), which show up when a photo library lives on a network
// mount and the exporting server recycles handles mid-run.
//
// Metric recording is injected through the Observer interface so this
// package does not depend on the metrics package.
package filesystem
