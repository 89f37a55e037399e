package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/me/ossim/internal/store"
	"github.com/me/ossim/pkg/model"
)

// resolveDBPath returns dbPath, or ~/.ossim/ossim.db when it is empty.
func resolveDBPath(dbPath string) (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ossim")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ossim.db"), nil
}

// openStore opens and migrates the run archive at dbPath.
func openStore(ctx context.Context, dbPath string) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logger.Debug("database ready", "path", dbPath)
	return st, nil
}

// fetchRun loads a run, and its ticks when withTicks is set, from the API
// server when one is configured and from the local archive otherwise.
func fetchRun(ctx context.Context, id string, withTicks bool) (*model.Run, []model.TickResult, error) {
	var ticks []model.TickResult

	if client != nil {
		run := &model.Run{}
		if _, err := client.Get("/api/v1/simulations/"+id, run); err != nil {
			return nil, nil, fmt.Errorf("get simulation: %w", err)
		}
		if withTicks {
			if _, err := client.Get("/api/v1/simulations/"+id+"/ticks", &ticks); err != nil {
				return nil, nil, fmt.Errorf("get ticks: %w", err)
			}
		}
		return run, ticks, nil
	}

	dbPath, err := resolveDBPath(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	st, err := openStore(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	run, err := st.GetRun(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("get run: %w", err)
	}
	if run == nil {
		return nil, nil, fmt.Errorf("run %s not found", id)
	}
	if withTicks {
		if ticks, err = st.ListTicks(ctx, id); err != nil {
			return nil, nil, fmt.Errorf("list ticks: %w", err)
		}
	}
	return run, ticks, nil
}
