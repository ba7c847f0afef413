// Package workers calculates worker pool sizes based on available CPUs,
// container limits and the SYNC_WORKERS environment override.
package workers
