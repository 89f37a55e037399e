package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/me/ossim/pkg/model"
)

// DefaultBatchSize is the number of ticks buffered before a write.
const DefaultBatchSize = 256

// Recorder is a tick sink that archives one simulation run.
type Recorder struct {
	store     Store
	run       *model.Run
	batch     []model.TickResult
	batchSize int
	logger    *slog.Logger
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return "run_" + uuid.New().String()
}

// StartRun creates a RUNNING run for source and returns a recorder for it.
func StartRun(ctx context.Context, st Store, source string, processCount int, logger *slog.Logger) (*Recorder, error) {
	run := &model.Run{
		ID:           NewRunID(),
		Source:       source,
		State:        model.RunStateRunning,
		ProcessCount: processCount,
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return &Recorder{
		store:     st,
		run:       run,
		batchSize: DefaultBatchSize,
		logger:    logger.With("component", "recorder", "run_id", run.ID),
	}, nil
}

// RunID returns the identifier of the run being recorded.
func (r *Recorder) RunID() string { return r.run.ID }

// Tick buffers res and flushes full batches.
func (r *Recorder) Tick(ctx context.Context, res model.TickResult) error {
	r.run.Ticks++
	if res.Busy() {
		r.run.BusyTicks++
	}
	r.batch = append(r.batch, res)
	if len(r.batch) >= r.batchSize {
		return r.flush(ctx)
	}
	return nil
}

func (r *Recorder) flush(ctx context.Context) error {
	if err := r.store.AppendTicks(ctx, r.run.ID, r.batch); err != nil {
		return err
	}
	r.batch = r.batch[:0]
	return nil
}

// Finish flushes buffered ticks and marks the run COMPLETED, or FAILED when
// runErr is non-nil. The finished run is returned.
func (r *Recorder) Finish(ctx context.Context, stats []model.ProcessStats, runErr error) (*model.Run, error) {
	if err := r.flush(ctx); err != nil {
		return nil, fmt.Errorf("flush ticks: %w", err)
	}

	now := time.Now().UTC()
	r.run.CompletedAt = &now
	r.run.Stats = stats
	r.run.State = model.RunStateCompleted
	if runErr != nil {
		r.run.State = model.RunStateFailed
		r.run.Error = runErr.Error()
	}
	if err := r.store.FinishRun(ctx, r.run); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	r.logger.Info("run archived", "state", r.run.State, "ticks", r.run.Ticks)
	return r.run, nil
}
