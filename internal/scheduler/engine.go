package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/me/ossim/internal/iodev"
	"github.com/me/ossim/internal/registry"
	"github.com/me/ossim/pkg/model"
)

// Engine is the single-processor tick engine. All simulation state is owned
// by the engine and mutated only inside Step.
type Engine struct {
	time       int
	registry   *registry.Registry
	io         *iodev.Module
	interrupts *iodev.InterruptQueue
	logger     *slog.Logger
}

// NewEngine creates an engine at time 0 over the processes in reg.
func NewEngine(reg *registry.Registry, logger *slog.Logger) *Engine {
	q := iodev.NewInterruptQueue()
	return &Engine{
		registry:   reg,
		io:         iodev.New(q, logger),
		interrupts: q,
		logger:     logger.With("component", "scheduler"),
	}
}

// Time returns the current simulated time.
func (e *Engine) Time() int { return e.time }

// Registry returns the process registry driven by the engine.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// PendingInterrupts returns the number of interrupts not yet handled.
func (e *Engine) PendingInterrupts() int { return e.interrupts.Len() }

// Done reports whether every process has arrived and finished.
func (e *Engine) Done() bool {
	return !e.registry.MoreProcessesComing() && !e.registry.AnyNotDone()
}

// Step advances the clock by one unit and takes exactly one action.
func (e *Engine) Step(ctx context.Context) (model.TickResult, error) {
	if err := ctx.Err(); err != nil {
		return model.TickResult{}, err
	}

	// Phase 1: Advance the clock.
	e.time++
	now := e.time

	// Phase 2: Reveal arrivals.
	e.registry.ActivateProcesses(now)

	// Phase 3: Complete due I/O, raising interrupts.
	e.io.Advance(now)

	res := model.TickResult{Time: now, Action: model.ActionNoAct, ProcessID: model.NoProcess}

	// Phase 4: Continue the running process, if any.
	var err error
	if p, ok := e.registry.FirstInState(model.ProcessStateProcessing); ok {
		res.ProcessID = p.ID
		res.Action, err = e.continueRun(now, p)
	} else {
		// Phase 5: Idle processor, pick by precedence.
		res.Action, res.ProcessID, err = e.decideIdle(now)
	}
	if err != nil {
		e.logger.Error("tick failed", "time", now, "error", err)
		return res, err
	}

	res.Processes = e.registry.Snapshot()
	e.logger.Debug("tick", "time", now, "action", res.Action, "pid", res.ProcessID)
	return res, nil
}

// continueRun charges one unit of processor time to the running process and
// decides whether it issues I/O, finishes, or keeps running.
func (e *Engine) continueRun(now int, p *model.Process) (model.Action, error) {
	p.ProcessorTime++

	if ev, ok := p.NextIOEvent(); ok && ev.Offset == p.ProcessorTime {
		if err := e.io.Submit(now, ev, p); err != nil {
			return model.ActionNoAct, err
		}
		if err := e.transition(now, p, model.ProcessStateBlocked); err != nil {
			return model.ActionNoAct, err
		}
		p.PopIOEvent()
		return model.ActionIORequest, nil
	}

	if p.ProcessorTime == p.RequiredTime {
		if err := e.transition(now, p, model.ProcessStateDone); err != nil {
			return model.ActionNoAct, err
		}
		return model.ActionComplete, nil
	}

	if p.ProcessorTime > p.RequiredTime {
		return model.ActionNoAct, &model.ConsistencyError{
			Time: now, ProcessID: p.ID,
			Reason: fmt.Sprintf("processor time %d exceeds required %d", p.ProcessorTime, p.RequiredTime),
		}
	}
	return model.ActionContinueRun, nil
}

// decideIdle applies the fixed precedence admit > interrupt > begin > idle.
func (e *Engine) decideIdle(now int) (model.Action, int, error) {
	if p, ok := e.registry.FirstInState(model.ProcessStateNewArrival); ok {
		if err := e.transition(now, p, model.ProcessStateReady); err != nil {
			return model.ActionNoAct, p.ID, err
		}
		return model.ActionAdmitNewProc, p.ID, nil
	}

	if in, ok := e.interrupts.Pop(); ok {
		p, found := e.registry.Find(in.ProcessID)
		if !found {
			return model.ActionNoAct, in.ProcessID, &model.ConsistencyError{
				Time: now, ProcessID: in.ProcessID, Reason: "interrupt for unknown process",
			}
		}
		if err := e.transition(now, p, model.ProcessStateReady); err != nil {
			return model.ActionNoAct, p.ID, err
		}
		return model.ActionHandleInterrupt, p.ID, nil
	}

	if p, ok := e.registry.FirstInState(model.ProcessStateReady); ok {
		if err := e.transition(now, p, model.ProcessStateProcessing); err != nil {
			return model.ActionNoAct, p.ID, err
		}
		return model.ActionBeginRun, p.ID, nil
	}

	return model.ActionNoAct, model.NoProcess, nil
}

// transition reports an invalid lifecycle move as a consistency fault.
func (e *Engine) transition(now int, p *model.Process, next model.ProcessState) error {
	if err := e.registry.Transition(p, next); err != nil {
		return &model.ConsistencyError{Time: now, ProcessID: p.ID, Reason: err.Error()}
	}
	return nil
}
