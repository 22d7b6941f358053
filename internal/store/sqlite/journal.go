// Package sqlite keeps the run journal: one row per pipeline run, one row
// per stage attempt and one row per fetch provenance record. The journal is
// the audit trail for where every dataset row came from; nothing in the
// pipeline's control flow reads it back.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

type Journal struct {
	conn *sql.DB
}

func NewJournal(dbPath string) (*Journal, error) {
	slog.Info("initializing run journal", "path", dbPath)

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_journal_mode=WAL", dbPath)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &Journal{conn: conn}, nil
}

func runMigrations(conn *sql.DB) error {
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationsDir := filepath.Join("db", "migrations")
	if _, err := os.Stat(migrationsDir); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("migrations directory not found, creating schema directly", "path", migrationsDir)
			return createSchema(conn)
		}
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}

	if err := goose.Up(conn, migrationsDir); err != nil {
		return fmt.Errorf("failed to run journal migrations: %w", err)
	}

	return nil
}

// createSchema is the fallback when the binary runs outside the repo and the
// migration files are not on disk. Kept in sync with db/migrations.
func createSchema(conn *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workflow TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'running',
		reason TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		stage TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS fetches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		stage TEXT NOT NULL,
		source TEXT NOT NULL,
		url TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);`

	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// BeginRun opens a journal entry for a new pipeline run.
func (j *Journal) BeginRun(ctx context.Context, workflow string) (int64, error) {
	res, err := j.conn.ExecContext(ctx,
		`INSERT INTO runs (workflow, started_at) VALUES (?, ?)`,
		workflow, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to journal run start: %w", err)
	}
	return res.LastInsertId()
}

// RecordAttempt journals one retry-executor attempt.
func (j *Journal) RecordAttempt(ctx context.Context, runID int64, stage string, attempt int, outcome, reason string) error {
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO attempts (run_id, stage, attempt, outcome, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, attempt, outcome, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to journal attempt: %w", err)
	}
	return nil
}

// RecordFetch journals the provenance of a successful fetch.
func (j *Journal) RecordFetch(ctx context.Context, runID int64, stage, source, url string) error {
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO fetches (run_id, stage, source, url, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, stage, source, url, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to journal fetch provenance: %w", err)
	}
	return nil
}

// FinishRun closes a run entry with its terminal state.
func (j *Journal) FinishRun(ctx context.Context, runID int64, state, reason string) error {
	_, err := j.conn.ExecContext(ctx,
		`UPDATE runs SET state = ?, reason = ?, finished_at = ? WHERE id = ?`,
		state, reason, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to journal run finish: %w", err)
	}
	return nil
}

func (j *Journal) Close() error {
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}
