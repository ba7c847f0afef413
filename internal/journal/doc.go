// Package journal records run history in a SQLite database kept under
// the destination tree. The journal is informational only and has no
// effect on synchronization decisions.
package journal
