package store

import (
	"context"

	"github.com/me/ossim/pkg/model"
)

// Store defines the persistence layer for archived simulation runs.
type Store interface {
	// Run lifecycle
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, opts model.ListOptions) ([]*model.Run, int, error)
	FinishRun(ctx context.Context, run *model.Run) error

	// Tick trace
	AppendTicks(ctx context.Context, runID string, ticks []model.TickResult) error
	ListTicks(ctx context.Context, runID string) ([]model.TickResult, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
