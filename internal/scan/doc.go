// Package scan walks the source tree and emits SourceEntry values in an
// order that guarantees a directory is seen before any of its children.
package scan
