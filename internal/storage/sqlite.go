package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Run operations

// CreateRun inserts a run in the running state. StartedAt defaults to now.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		return errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = RunRunning
	}

	query := `
		INSERT INTO runs (id, operation, status, provider, model, instruction,
		                  input_chars, total_chunks, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Operation, string(run.Status), run.Provider, run.Model, run.Instruction,
		run.InputChars, run.TotalChunks, run.StartedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %s: %w", run.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun records the outcome of a run. FinishedAt defaults to now.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *Run) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}

	query := `
		UPDATE runs
		SET status = ?, mode = ?, output_chars = ?, chunks_processed = ?,
		    total_chunks = ?, error = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		string(run.Status), run.Mode, run.OutputChars, run.ChunksProcessed,
		run.TotalChunks, run.Error, *run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const runColumns = `
	id, operation, status, mode, provider, model, instruction, input_chars,
	output_chars, chunks_processed, total_chunks, error, started_at, finished_at
`

// GetRun retrieves a run by ID
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	var where []string
	var args []any
	if filter.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, filter.Operation)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
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
	return runs, rows.Err()
}

// scanner is implemented by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var status string
	var runErr sql.NullString
	var finishedAt sql.NullTime
	err := sc.Scan(
		&run.ID, &run.Operation, &status, &run.Mode, &run.Provider, &run.Model,
		&run.Instruction, &run.InputChars, &run.OutputChars, &run.ChunksProcessed,
		&run.TotalChunks, &runErr, &run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)
	if runErr.Valid {
		run.Error = &runErr.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	return &run, nil
}

// Status operations

// GetStats summarizes the run history
func (s *SQLiteStorage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*), COALESCE(SUM(chunks_processed), 0) FROM runs GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var status string
		var count, chunks int
		if err := rows.Scan(&status, &count, &chunks); err != nil {
			return nil, err
		}
		stats.TotalRuns += count
		stats.ChunksProcessed += chunks
		switch RunStatus(status) {
		case RunRunning:
			stats.Running = count
		case RunSucceeded:
			stats.Succeeded = count
		case RunFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalRuns > 0 {
		var last sql.NullTime
		// MAX() loses the column type, so order instead
		err := s.db.QueryRowContext(ctx, "SELECT started_at FROM runs ORDER BY started_at DESC LIMIT 1").Scan(&last)
		if err != nil {
			return nil, err
		}
		if last.Valid {
			stats.LastRunAt = last.Time
		}
	}

	// Calculate database size
	var pageCount, pageSize int
	err = s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	if err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return stats, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
