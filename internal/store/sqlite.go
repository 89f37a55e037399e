package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/ossim/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Every connection to ":memory:" is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "insert", "table", "runs", "id", run.ID)

	state := run.State
	if state == "" {
		state = model.RunStateRunning
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, state, process_count, ticks, busy_ticks, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, string(state), run.ProcessCount, run.Ticks, run.BusyTicks, run.Error,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	s.logger.Debug("sql", "op", "select", "table", "runs", "id", id)

	var run model.Run
	var state, createdAt string
	var completedAt *string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, state, process_count, ticks, busy_ticks, error, created_at, completed_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Source, &state, &run.ProcessCount, &run.Ticks, &run.BusyTicks,
		&run.Error, &createdAt, &completedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	fillRunTimes(&run, state, createdAt, completedAt)

	stats, err := s.listStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	run.Stats = stats
	return &run, nil
}

// ListRuns returns a page of runs, newest first, without per-process stats.
func (s *SQLiteStore) ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "runs", "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, state, process_count, ticks, busy_ticks, error, created_at, completed_at
		 FROM runs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var run model.Run
		var state, createdAt string
		var completedAt *string

		if err := rows.Scan(&run.ID, &run.Source, &state, &run.ProcessCount, &run.Ticks,
			&run.BusyTicks, &run.Error, &createdAt, &completedAt); err != nil {
			return nil, 0, err
		}
		fillRunTimes(&run, state, createdAt, completedAt)
		runs = append(runs, &run)
	}
	return runs, total, rows.Err()
}

// FinishRun records the final counters, state and per-process stats of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *model.Run) error {
	s.logger.Debug("sql", "op", "finish", "table", "runs", "id", run.ID, "state", run.State)

	var completedAt *string
	if run.CompletedAt != nil {
		v := run.CompletedAt.Format(time.RFC3339Nano)
		completedAt = &v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE runs SET state=?, ticks=?, busy_ticks=?, error=?, completed_at=? WHERE id=?`,
		string(run.State), run.Ticks, run.BusyTicks, run.Error, completedAt, run.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}

	for _, st := range run.Stats {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO process_stats
			 (run_id, process_id, arrival_tick, first_run_tick, finish_tick, run_ticks, wait_ticks, blocked_ticks, io_requests)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, st.ProcessID, st.ArrivalTick, st.FirstRunTick, st.FinishTick,
			st.RunTicks, st.WaitTicks, st.BlockedTicks, st.IORequests,
		); err != nil {
			return fmt.Errorf("insert stats for process %d: %w", st.ProcessID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) listStats(ctx context.Context, runID string) ([]model.ProcessStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT process_id, arrival_tick, first_run_tick, finish_tick, run_ticks, wait_ticks, blocked_ticks, io_requests
		 FROM process_stats WHERE run_id = ? ORDER BY arrival_tick, process_id`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.ProcessStats
	for rows.Next() {
		var st model.ProcessStats
		if err := rows.Scan(&st.ProcessID, &st.ArrivalTick, &st.FirstRunTick, &st.FinishTick,
			&st.RunTicks, &st.WaitTicks, &st.BlockedTicks, &st.IORequests); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// --- Ticks ---

// AppendTicks writes a batch of tick results in a single transaction.
func (s *SQLiteStore) AppendTicks(ctx context.Context, runID string, ticks []model.TickResult) error {
	if len(ticks) == 0 {
		return nil
	}
	s.logger.Debug("sql", "op", "insert", "table", "ticks", "run_id", runID, "count", len(ticks))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, tk := range ticks {
		procsJSON, err := json.Marshal(tk.Processes)
		if err != nil {
			return fmt.Errorf("marshal processes: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ticks (run_id, time, action, process_id, processes) VALUES (?, ?, ?, ?, ?)`,
			runID, tk.Time, string(tk.Action), tk.ProcessID, string(procsJSON),
		); err != nil {
			return fmt.Errorf("insert tick %d: %w", tk.Time, err)
		}
	}
	return tx.Commit()
}

// ListTicks returns every recorded tick of a run in time order.
func (s *SQLiteStore) ListTicks(ctx context.Context, runID string) ([]model.TickResult, error) {
	s.logger.Debug("sql", "op", "list", "table", "ticks", "run_id", runID)

	rows, err := s.db.QueryContext(ctx,
		`SELECT time, action, process_id, processes FROM ticks WHERE run_id = ? ORDER BY time`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []model.TickResult
	for rows.Next() {
		var tk model.TickResult
		var action, procsJSON string
		if err := rows.Scan(&tk.Time, &action, &tk.ProcessID, &procsJSON); err != nil {
			return nil, err
		}
		tk.Action = model.Action(action)
		if err := json.Unmarshal([]byte(procsJSON), &tk.Processes); err != nil {
			return nil, fmt.Errorf("unmarshal processes at tick %d: %w", tk.Time, err)
		}
		ticks = append(ticks, tk)
	}
	return ticks, rows.Err()
}

func fillRunTimes(run *model.Run, state, createdAt string, completedAt *string) {
	run.State = model.RunState(state)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if completedAt != nil {
		t, _ := time.Parse(time.RFC3339Nano, *completedAt)
		run.CompletedAt = &t
	}
}
