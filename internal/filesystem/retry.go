// Package filesystem provides filesystem operations with retry logic for NFS.
package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Znapy/pv-organizer/internal/logging"
)

// VolumeResolver maps file paths to known volume names for metric labeling.
// It uses longest-prefix matching on absolute paths.
type VolumeResolver struct {
	// mounts is sorted by path length descending for longest-prefix matching
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute path with trailing slash (e.g., "/photos/")
	name string // volume label (e.g., "source")
}

// NewVolumeResolver creates a resolver from a map of volume name → absolute path.
// Example:
//
//	NewVolumeResolver(map[string]string{
//	    "source":      "/photos",
//	    "destination": "/thumbs",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, "/") {
			absPath += "/"
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	// Longest (most specific) prefix first
	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume name for a given file path.
// Returns "unknown" if the path doesn't match any configured volume.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+"/", mount.path) || strings.HasPrefix(absPath, mount.path) {
			return mount.name
		}
	}

	return "unknown"
}

// Observer records filesystem retry metrics. The implementation is provided
// by the metrics package to break the import cycle between the two.
type Observer interface {
	ObserveRetryAttempt(operation, volume string)
	ObserveRetrySuccess(operation, volume string)
	ObserveRetryFailure(operation, volume string)
	ObserveStaleError(operation, volume string)
}

var (
	defaultResolver *VolumeResolver
	defaultObserver Observer
)

// SetDefaultVolumeResolver sets the package-level volume resolver.
// Call this once at startup after loading configuration.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// SetObserver sets the package-level metrics observer.
// If never set, metric recording is silently skipped (safe for tests).
func SetObserver(o Observer) {
	defaultObserver = o
}

// RetryConfig configures retry behavior for filesystem operations
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// StatWithRetry performs os.Stat with retry logic for NFS stale file handle errors
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	info, err := withRetry(path, "stat", config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
	return info, err
}

// OpenWithRetry performs os.Open with retry logic for NFS stale file handle errors
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry(path, "open", config, func() (*os.File, error) {
		return os.Open(path)
	})
}

func withRetry[T any](path, op string, config RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	volume := defaultResolver.Resolve(path)
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d for %s", op, attempt, path)
				if defaultObserver != nil {
					defaultObserver.ObserveRetrySuccess(op, volume)
				}
			}
			return result, nil
		}

		lastErr = err

		// Only stale file handles are worth retrying
		if !isNFSStaleError(err) {
			return zero, err
		}

		if defaultObserver != nil {
			defaultObserver.ObserveStaleError(op, volume)
		}

		if attempt < config.MaxRetries {
			if defaultObserver != nil {
				defaultObserver.ObserveRetryAttempt(op, volume)
			}
			logging.Debug("NFS %s stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	if defaultObserver != nil {
		defaultObserver.ObserveRetryFailure(op, volume)
	}
	return zero, lastErr
}
