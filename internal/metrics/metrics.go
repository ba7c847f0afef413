package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sync run metrics
var (
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pv_organizer_sync_runs_total",
			Help: "Total number of synchronization runs",
		},
	)

	SyncRunsErrored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pv_organizer_sync_runs_errored_total",
			Help: "Total number of runs that ended with at least one failed entry",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pv_organizer_sync_last_run_timestamp",
			Help: "Timestamp of the last completed synchronization run",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pv_organizer_sync_last_run_duration_seconds",
			Help: "Duration of the last synchronization run in seconds",
		},
	)

	// SyncEngineState reports the driver state machine:
	// 0=idle 1=walking 2=dispatching 3=orphan-sweep 4=done
	SyncEngineState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pv_organizer_sync_engine_state",
			Help: "Current engine state (0=idle 1=walking 2=dispatching 3=orphan-sweep 4=done)",
		},
	)

	SyncEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_sync_entries_total",
			Help: "Total number of entries processed, by action and status",
		},
		[]string{"action", "status"},
	)

	SyncBytesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pv_organizer_sync_bytes_processed_total",
			Help: "Total number of source bytes read for thumbnail generation",
		},
	)

	SyncActionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pv_organizer_sync_actions_in_flight",
			Help: "Number of actions currently being dispatched",
		},
	)
)

// Thumbnail generation metrics
var (
	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pv_organizer_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds, by media kind",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_thumbnail_generations_total",
			Help: "Total number of thumbnail generations, by media kind and status",
		},
		[]string{"kind", "status"},
	)

	ThumbnailFFmpegDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pv_organizer_thumbnail_ffmpeg_duration_seconds",
			Help:    "Duration of ffmpeg/ffprobe invocations in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Walker metrics
var (
	WalkerEntriesSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_walker_entries_seen_total",
			Help: "Total number of source entries seen by the walker, by kind",
		},
		[]string{"kind"},
	)

	WalkerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pv_organizer_walker_errors_total",
			Help: "Total number of subtrees the walker failed to read",
		},
	)
)

// Filesystem retry metrics (NFS resilience)
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_fs_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_fs_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_fs_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_fs_stale_errors_total",
			Help: "Total number of NFS stale file handle errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Journal metrics
var (
	JournalWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pv_organizer_journal_writes_total",
			Help: "Total number of run-history journal writes, by status",
		},
		[]string{"status"},
	)
)
