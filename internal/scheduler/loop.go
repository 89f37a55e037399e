package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/ossim/internal/telemetry"
	"github.com/me/ossim/pkg/model"
)

// ErrStopped is returned by Run when Stop ends the simulation early.
var ErrStopped = errors.New("simulation stopped")

// ErrTickLimit is returned by Run when the configured tick bound is exceeded.
var ErrTickLimit = errors.New("tick limit exceeded")

// Config holds driver configuration. Delay paces ticks in real time and has
// no effect on scheduling decisions.
type Config struct {
	Delay    time.Duration
	MaxTicks int // 0 means unbounded
}

// DefaultConfig returns the interactive defaults.
func DefaultConfig() Config {
	return Config{Delay: 50 * time.Millisecond}
}

// Sink consumes the result of every tick, in order.
type Sink interface {
	Tick(ctx context.Context, res model.TickResult) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, res model.TickResult) error

// Tick calls f.
func (f SinkFunc) Tick(ctx context.Context, res model.TickResult) error { return f(ctx, res) }

// Result summarises a finished run.
type Result struct {
	Ticks     int
	BusyTicks int
}

// Loop drives an Engine until every process has arrived and finished.
type Loop struct {
	engine   *Engine
	sinks    []Sink
	config   Config
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a driver for engine that reports to sinks.
func NewLoop(engine *Engine, cfg Config, logger *slog.Logger, sinks ...Sink) *Loop {
	return &Loop{
		engine: engine,
		sinks:  sinks,
		config: cfg,
		logger: logger.With("component", "loop"),
		stopCh: make(chan struct{}),
	}
}

// Run steps the engine until Done, ctx is cancelled, Stop is called, or a
// tick fails.
func (l *Loop) Run(ctx context.Context) (res Result, err error) {
	ctx, span := telemetry.StartSpan(ctx, "simulation.run")
	span.SetInt("sim.processes", l.engine.Registry().Len())
	defer func() {
		span.SetInt("sim.ticks", res.Ticks)
		telemetry.EndSpan(span, err)
	}()

	l.logger.Info("simulation started", "processes", l.engine.Registry().Len(), "delay", l.config.Delay)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for !l.engine.Done() {
		if l.config.MaxTicks > 0 && res.Ticks >= l.config.MaxTicks {
			return res, fmt.Errorf("%w: %d", ErrTickLimit, l.config.MaxTicks)
		}

		tick, err := l.step(ctx)
		if err != nil {
			return res, err
		}
		res.Ticks++
		if tick.Busy() {
			res.BusyTicks++
		}

		if l.engine.Done() {
			break
		}
		if l.config.Delay <= 0 {
			if err := l.checkStop(ctx); err != nil {
				return res, err
			}
			continue
		}
		if timer == nil {
			timer = time.NewTimer(l.config.Delay)
		} else {
			timer.Reset(l.config.Delay)
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-l.stopCh:
			return res, ErrStopped
		case <-timer.C:
		}
	}

	l.logger.Info("simulation finished", "ticks", res.Ticks, "busy_ticks", res.BusyTicks)
	return res, nil
}

// step runs one engine tick and fans the result out to the sinks.
func (l *Loop) step(ctx context.Context) (model.TickResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "simulation.tick")
	tick, err := l.engine.Step(ctx)
	span.SetInt("sim.time", tick.Time).
		SetString("sim.action", tick.Action.String()).
		SetInt("sim.pid", tick.ProcessID)
	if err != nil {
		telemetry.EndSpan(span, err)
		return tick, fmt.Errorf("tick %d: %w", tick.Time, err)
	}
	for _, s := range l.sinks {
		if err := s.Tick(ctx, tick); err != nil {
			telemetry.EndSpan(span, err)
			return tick, fmt.Errorf("tick %d: emit: %w", tick.Time, err)
		}
	}
	telemetry.EndSpan(span, nil)
	return tick, nil
}

func (l *Loop) checkStop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return ErrStopped
	default:
		return nil
	}
}

// Stop ends a running simulation after the current tick. It is safe to call
// more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}
