// Package iodev simulates the I/O subsystem: it tracks in-flight blocking
// requests and raises a completion interrupt when each one finishes.
package iodev

import (
	"log/slog"
	"sort"

	"github.com/me/ossim/pkg/model"
)

// operation is an in-flight I/O request.
type operation struct {
	pid         int
	seq         int
	submittedAt int
	completesAt int
}

// Module tracks in-flight I/O operations. It never changes process state;
// the caller blocks the process and the scheduler unblocks it when it
// handles the interrupt.
type Module struct {
	inFlight   []operation
	interrupts *InterruptQueue
	logger     *slog.Logger
}

// New returns a Module that raises interrupts on q.
func New(q *InterruptQueue, logger *slog.Logger) *Module {
	return &Module{
		interrupts: q,
		logger:     logger.With("component", "iodev"),
	}
}

// Submit starts the I/O request ev on behalf of p at time now. Every request
// takes at least one tick, so a zero duration completes on the next Advance.
func (m *Module) Submit(now int, ev model.IOEvent, p *model.Process) error {
	if m.Pending(p.ID) {
		return &model.ConsistencyError{Time: now, ProcessID: p.ID, Reason: "process already has I/O in flight"}
	}
	d := ev.Duration
	if d < 1 {
		d = 1
	}
	op := operation{pid: p.ID, seq: p.Seq, submittedAt: now, completesAt: now + d}
	m.inFlight = append(m.inFlight, op)
	m.logger.Debug("io submitted", "pid", p.ID, "time", now, "completes_at", op.completesAt)
	return nil
}

// Advance retires every operation due at or before now and pushes one
// interrupt per operation. Simultaneous completions are queued in process
// registration order.
func (m *Module) Advance(now int) int {
	var due []operation
	kept := m.inFlight[:0]
	for _, op := range m.inFlight {
		if op.completesAt <= now {
			due = append(due, op)
			continue
		}
		kept = append(kept, op)
	}
	m.inFlight = kept
	if len(due) == 0 {
		return 0
	}

	sort.SliceStable(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	for _, op := range due {
		m.interrupts.Push(model.Interrupt{ProcessID: op.pid, RaisedAt: now})
		m.logger.Debug("io complete", "pid", op.pid, "time", now, "submitted_at", op.submittedAt)
	}
	return len(due)
}

// Pending reports whether pid has an operation in flight.
func (m *Module) Pending(pid int) bool {
	for _, op := range m.inFlight {
		if op.pid == pid {
			return true
		}
	}
	return false
}

// InFlight returns the number of operations not yet completed.
func (m *Module) InFlight() int {
	return len(m.inFlight)
}
