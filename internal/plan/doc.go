// Package plan decides, per source entry, whether the mirrored destination
// must be created, refreshed, left alone or removed. All decisions derive
// from on-disk timestamps, so runs are idempotent and restart-safe with no
// persisted state.
package plan
