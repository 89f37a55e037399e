package scheduler

import (
	"context"
	"log/slog"

	"github.com/me/ossim/internal/registry"
	"github.com/me/ossim/pkg/model"
)

// Scheduler is the driver surface used by the CLI and the HTTP server.
type Scheduler interface {
	// Run blocks until the simulation finishes or is interrupted.
	Run(ctx context.Context) (Result, error)

	// Stop ends the simulation after the current tick.
	Stop()
}

var _ Scheduler = (*Loop)(nil)

// New builds a registry, engine and loop over procs.
func New(procs []*model.Process, cfg Config, logger *slog.Logger, sinks ...Sink) (*Loop, error) {
	reg, err := registry.New(procs, logger)
	if err != nil {
		return nil, err
	}
	return NewLoop(NewEngine(reg, logger), cfg, logger, sinks...), nil
}

// Simulate runs procs to completion.
func Simulate(ctx context.Context, procs []*model.Process, cfg Config, logger *slog.Logger, sinks ...Sink) (Result, error) {
	loop, err := New(procs, cfg, logger, sinks...)
	if err != nil {
		return Result{}, err
	}
	return loop.Run(ctx)
}
