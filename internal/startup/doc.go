// Package startup provides banner, system-information and lifecycle
// logging so every run of the organizer reads the same way: a version
// banner, the effective configuration, tool availability, and explicit
// shutdown steps.
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
package startup
