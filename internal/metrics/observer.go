package metrics

import "github.com/Znapy/pv-organizer/internal/filesystem"

// filesystemObserver implements filesystem.Observer using the Prometheus
// metrics declared in this package.
type filesystemObserver struct{}

// NewFilesystemObserver creates an observer that records filesystem retry
// metrics into the counters declared in metrics.go.
func NewFilesystemObserver() filesystem.Observer {
	return &filesystemObserver{}
}

func (o *filesystemObserver) ObserveRetryAttempt(operation, volume string) {
	FilesystemRetryAttempts.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetrySuccess(operation, volume string) {
	FilesystemRetrySuccess.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveRetryFailure(operation, volume string) {
	FilesystemRetryFailures.WithLabelValues(operation, volume).Inc()
}

func (o *filesystemObserver) ObserveStaleError(operation, volume string) {
	FilesystemStaleErrors.WithLabelValues(operation, volume).Inc()
}
