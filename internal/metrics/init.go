package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	actions := []string{"mirror-dir", "create", "refresh", "skip", "orphan-delete"}
	statuses := []string{"succeeded", "failed", "skipped", "cancelled"}

	for _, action := range actions {
		for _, status := range statuses {
			SyncEntriesTotal.WithLabelValues(action, status)
		}
	}

	for _, kind := range []string{"image", "video"} {
		ThumbnailGenerationDuration.WithLabelValues(kind)
		ThumbnailGenerationsTotal.WithLabelValues(kind, "success")
		ThumbnailGenerationsTotal.WithLabelValues(kind, "error")
	}

	for _, kind := range []string{"directory", "image", "video", "unsupported"} {
		WalkerEntriesSeen.WithLabelValues(kind)
	}

	volumes := []string{"source", "destination", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}

	JournalWritesTotal.WithLabelValues("success")
	JournalWritesTotal.WithLabelValues("error")
}
