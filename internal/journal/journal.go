package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/Znapy/pv-organizer/internal/engine"
	"github.com/Znapy/pv-organizer/internal/logging"
	"github.com/Znapy/pv-organizer/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Journal persists per-run summaries and failures for later inspection.
// It is purely observational: staleness decisions never consult it, so
// the engine stays idempotent with or without a journal.
type Journal struct {
	db   *sql.DB
	path string
}

// RunRecord is one persisted run summary.
type RunRecord struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Created   int
	Refreshed int
	Skipped   int
	Deleted   int
	Failed    int
	Cancelled int
}

// Open creates or opens the journal database at path. The parent
// directory must exist.
func Open(ctx context.Context, path string) (*Journal, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after init failure: %v", closeErr)
		}
		return nil, fmt.Errorf("initialize journal schema: %w", err)
	}

	logging.Debug("Run journal opened at %s", path)
	return j, nil
}

func (j *Journal) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		created INTEGER NOT NULL,
		refreshed INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		deleted INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS run_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		action TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_run_failures_run_id ON run_failures(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := j.db.ExecContext(opCtx, schema)
	return err
}

// Record persists one run result with its failures in a single
// transaction.
func (j *Journal) Record(ctx context.Context, result *engine.RunResult) error {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := j.db.BeginTx(opCtx, nil)
	if err != nil {
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("begin journal transaction: %w", err)
	}

	res, err := tx.ExecContext(opCtx,
		`INSERT INTO runs (started_at, duration_ms, created, refreshed, skipped, deleted, failed, cancelled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.StartedAt.Unix(), result.Duration.Milliseconds(),
		result.Created, result.Refreshed, result.Skipped,
		result.Deleted, result.Failed, result.Cancelled,
	)
	if err != nil {
		rollback(tx)
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		rollback(tx)
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("run id: %w", err)
	}

	for _, failure := range result.Failures() {
		if _, err := tx.ExecContext(opCtx,
			`INSERT INTO run_failures (run_id, path, action, kind, reason) VALUES (?, ?, ?, ?, ?)`,
			runID, failure.Path, string(failure.Action), string(failure.Kind), failure.Reason,
		); err != nil {
			rollback(tx)
			metrics.JournalWritesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("insert failure for %s: %w", failure.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.JournalWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("commit journal: %w", err)
	}

	metrics.JournalWritesTotal.WithLabelValues("success").Inc()
	logging.Debug("Journal: recorded run %d (%s)", runID, result.Summary())
	return nil
}

// RecentRuns returns up to limit run summaries, newest first.
func (j *Journal) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(opCtx,
		`SELECT id, started_at, duration_ms, created, refreshed, skipped, deleted, failed, cancelled
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close journal rows: %v", err)
		}
	}()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt int64
		var durationMs int64
		if err := rows.Scan(&rec.ID, &startedAt, &durationMs,
			&rec.Created, &rec.Refreshed, &rec.Skipped,
			&rec.Deleted, &rec.Failed, &rec.Cancelled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(startedAt, 0)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Failures returns the recorded failures for one run.
func (j *Journal) Failures(ctx context.Context, runID int64) ([]FailureRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(opCtx,
		`SELECT path, action, kind, reason FROM run_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("failed to close journal rows: %v", err)
		}
	}()

	var records []FailureRecord
	for rows.Next() {
		var rec FailureRecord
		if err := rows.Scan(&rec.Path, &rec.Action, &rec.Kind, &rec.Reason); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// FailureRecord is one persisted per-file failure.
type FailureRecord struct {
	Path   string
	Action string
	Kind   string
	Reason string
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil {
		logging.Error("journal rollback failed: %v", err)
	}
}
