// Package storage keeps a SQLite ledger of sync runs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/steveyegge/tasksheet/internal/storage/migrations"
	"github.com/steveyegge/tasksheet/internal/types"
)

// schema is applied in order on every Open
var schema = []migrations.Migration{
	{
		Version:     1,
		Description: "Create runs table",
		Up: `
			CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				output_path TEXT NOT NULL,
				projects INTEGER NOT NULL DEFAULT 0,
				tasks INTEGER NOT NULL DEFAULT 0,
				rows_fetched INTEGER NOT NULL DEFAULT 0,
				rows_added INTEGER NOT NULL DEFAULT 0,
				duplicates INTEGER NOT NULL DEFAULT 0,
				total_rows INTEGER NOT NULL DEFAULT 0,
				width INTEGER NOT NULL DEFAULT 0,
				started_at TEXT NOT NULL,
				finished_at TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
		`,
	},
	{
		Version:     2,
		Description: "Track tasks unreachable from a root",
		Up:          `ALTER TABLE runs ADD COLUMN orphans INTEGER NOT NULL DEFAULT 0`,
	},
}

// timeLayout has fixed-width fractions so timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is the run history database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer, and an in-memory database must not be split across connections
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := migrations.NewManager(schema...).Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	if path == ":memory:" {
		return path
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores a run summary
func (s *Store) RecordRun(ctx context.Context, run *types.RunRecord) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run record: %w", err)
	}

	query := `
		INSERT INTO runs (
			id, status, output_path, projects, tasks, orphans, rows_fetched,
			rows_added, duplicates, total_rows, width, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		string(run.Status),
		run.OutputPath,
		run.Projects,
		run.Tasks,
		run.Orphans,
		run.RowsFetched,
		run.RowsAdded,
		run.Duplicates,
		run.TotalRows,
		run.Width,
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*types.RunRecord, error) {
	query := `
		SELECT id, status, output_path, projects, tasks, orphans, rows_fetched,
		       rows_added, duplicates, total_rows, width, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.RunRecord
	for rows.Next() {
		var run types.RunRecord
		var status, startedAt, finishedAt string
		if err := rows.Scan(
			&run.ID, &status, &run.OutputPath, &run.Projects, &run.Tasks, &run.Orphans,
			&run.RowsFetched, &run.RowsAdded, &run.Duplicates, &run.TotalRows, &run.Width,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Status = types.RunStatus(status)
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("run %s: invalid started_at %q: %w", run.ID, startedAt, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
			return nil, fmt.Errorf("run %s: invalid finished_at %q: %w", run.ID, finishedAt, err)
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}
