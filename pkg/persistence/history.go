// Package persistence provides SQLite-based storage for pipeline run
// history. Runs are append-only: a row is inserted when a pipeline starts
// and updated exactly once when it finishes.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"marketbot/pkg/logx"
)

// CurrentSchemaVersion defines the current schema version for migration support.
const CurrentSchemaVersion = 1

// Run statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// resultSnippetLimit caps how much of a pipeline's final output is stored.
const resultSnippetLimit = 2000

// Run is one pipeline invocation record.
type Run struct {
	ID         string
	Pipeline   string
	Params     string
	Status     string
	Result     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// History wraps the run history database.
type History struct {
	db     *sql.DB
	logger *logx.Logger
}

// Open opens (or creates) the history database at dbPath with WAL mode and
// a busy timeout, and ensures the schema is current.
func Open(dbPath string) (*History, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initializeSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	h := &History{db: db, logger: logx.NewLogger("persistence")}
	h.logger.Info("run history database ready: %s", dbPath)
	return h, nil
}

// Close closes the database connection.
func (h *History) Close() error {
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// RecordStart inserts a new run in the running state.
func (h *History) RecordStart(run *Run) error {
	_, err := h.db.Exec(`
		INSERT INTO runs (id, pipeline, params, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Pipeline, run.Params, StatusRunning, run.StartedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// RecordFinish marks a run finished with its status and a result snippet.
func (h *History) RecordFinish(runID, status, result string) error {
	if len(result) > resultSnippetLimit {
		result = result[:resultSnippetLimit]
	}
	res, err := h.db.Exec(`
		UPDATE runs SET status = ?, result = ?, finished_at = ?
		WHERE id = ?
	`, status, result, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// GetRun returns one run by ID.
func (h *History) GetRun(runID string) (*Run, error) {
	row := h.db.QueryRow(`
		SELECT id, pipeline, params, status, COALESCE(result, ''), started_at, finished_at
		FROM runs WHERE id = ?
	`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	return run, err
}

// RecentRuns returns the most recent runs, newest first.
func (h *History) RecentRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(`
		SELECT id, pipeline, params, status, COALESCE(result, ''), started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var started string
	var finished sql.NullString
	if err := row.Scan(&run.ID, &run.Pipeline, &run.Params, &run.Status,
		&run.Result, &started, &finished); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, started)
	if err != nil {
		return nil, fmt.Errorf("invalid started_at for run %s: %w", run.ID, err)
	}
	run.StartedAt = t

	if finished.Valid {
		ft, err := time.Parse(time.RFC3339, finished.String)
		if err != nil {
			return nil, fmt.Errorf("invalid finished_at for run %s: %w", run.ID, err)
		}
		run.FinishedAt = &ft
	}
	return &run, nil
}
