package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the run archive.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id            TEXT PRIMARY KEY,
		source        TEXT NOT NULL DEFAULT '',
		state         TEXT NOT NULL DEFAULT 'RUNNING',
		process_count INTEGER NOT NULL DEFAULT 0,
		ticks         INTEGER NOT NULL DEFAULT 0,
		busy_ticks    INTEGER NOT NULL DEFAULT 0,
		error         TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL,
		completed_at  TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS ticks (
		run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		time       INTEGER NOT NULL,
		action     TEXT NOT NULL,
		process_id INTEGER NOT NULL,
		processes  TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY (run_id, time)
	)`,

	`CREATE TABLE IF NOT EXISTS process_stats (
		run_id         TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		process_id     INTEGER NOT NULL,
		arrival_tick   INTEGER NOT NULL DEFAULT 0,
		first_run_tick INTEGER NOT NULL DEFAULT 0,
		finish_tick    INTEGER NOT NULL DEFAULT 0,
		run_ticks      INTEGER NOT NULL DEFAULT 0,
		wait_ticks     INTEGER NOT NULL DEFAULT 0,
		blocked_ticks  INTEGER NOT NULL DEFAULT 0,
		io_requests    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, process_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(state)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
