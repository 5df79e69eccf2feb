package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"unpakr/internal/config"
)

// Store journals runs and extraction attempts in SQLite. The journal is
// observability only: completion markers stay the sole idempotency signal,
// and a lost journal changes nothing about what the pipeline does next.
type Store struct {
	db        *sql.DB
	path      string
	retention int
}

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, retention: cfg.History.RetentionRuns}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the journal database location.
func (s *Store) Path() string {
	return s.path
}

// BeginRun records the start of a pipeline run.
func (s *Store) BeginRun(ctx context.Context, runID, targetDir string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, target_dir, started_at, status) VALUES (?, ?, ?, ?)`,
		runID, targetDir, timestamp, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordExtraction journals one archive attempt under a run.
func (s *Store) RecordExtraction(ctx context.Context, runID, archivePath, outcome string, newPaths int, duration time.Duration, errMsg string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO extractions (run_id, archive_path, outcome, new_paths, duration_ms, error, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, archivePath, outcome, newPaths, duration.Milliseconds(), nullableString(errMsg), timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}
	return nil
}

// FinishRun writes the run's final counters and prunes old journal entries
// past the configured retention.
func (s *Store) FinishRun(ctx context.Context, runID string, summary RunSummary) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	status := summary.Status
	if status == "" {
		status = RunStatusCompleted
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, status = ?, directories = ?, extracted = ?,
            skipped = ?, failed = ?, synced = ?, cleaned_paths = ?, error = ?
         WHERE id = ?`,
		timestamp, status,
		summary.Directories, summary.Extracted, summary.Skipped, summary.Failed,
		boolToInt(summary.Synced), summary.CleanedPaths, nullableString(summary.Error),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return s.prune(ctx)
}

// RecentRuns returns the newest runs, most recent first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, target_dir, started_at, finished_at, status, directories,
            extracted, skipped, failed, synced, cleaned_paths, error
         FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunExtractions returns the attempts journaled under a run, oldest first.
func (s *Store) RunExtractions(ctx context.Context, runID string) ([]Extraction, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, run_id, archive_path, outcome, new_paths, duration_ms, error, created_at
         FROM extractions WHERE run_id = ? ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query extractions: %w", err)
	}
	defer rows.Close()

	var extractions []Extraction
	for rows.Next() {
		var (
			e          Extraction
			durationMS int64
			errMsg     sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.ArchivePath, &e.Outcome, &e.NewPaths, &durationMS, &errMsg, &createdAt); err != nil {
			return nil, fmt.Errorf("scan extraction: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Error = errMsg.String
		e.CreatedAt = parseTimestamp(createdAt)
		extractions = append(extractions, e)
	}
	return extractions, rows.Err()
}

func (s *Store) prune(ctx context.Context) error {
	if s.retention <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
        )`,
		s.retention,
	)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		synced     int
		errMsg     sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.TargetDir, &startedAt, &finishedAt, &run.Status,
		&run.Directories, &run.Extracted, &run.Skipped, &run.Failed,
		&synced, &run.CleanedPaths, &errMsg,
	)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	run.Synced = synced != 0
	run.Error = errMsg.String
	return run, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
