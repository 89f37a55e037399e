// Package registry owns the simulated process records and gates their
// arrival into the scheduler's view.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/me/ossim/pkg/model"
)

// Registry holds every process of a simulation. Processes start hidden and
// are revealed by ActivateProcesses once their arrival time is reached.
// Records are mutated in place and never removed.
type Registry struct {
	pending []*model.Process // not yet revealed, ordered by arrival
	active  []*model.Process // revealed, in activation order
	byID    map[int]*model.Process
	logger  *slog.Logger
}

// New builds a registry from loaded process records. Records are ordered by
// arrival time, ties keep their input order, and Seq is assigned accordingly.
func New(procs []*model.Process, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		pending: make([]*model.Process, 0, len(procs)),
		active:  make([]*model.Process, 0, len(procs)),
		byID:    make(map[int]*model.Process, len(procs)),
		logger:  logger.With("component", "registry"),
	}
	for _, p := range procs {
		if _, dup := r.byID[p.ID]; dup {
			return nil, &model.ConfigError{
				Details: []model.FieldError{{Field: "id", Message: fmt.Sprintf("duplicate process id %d", p.ID)}},
			}
		}
		if p.State == "" {
			p.State = model.ProcessStateNewArrival
		}
		r.byID[p.ID] = p
		r.pending = append(r.pending, p)
	}
	sort.SliceStable(r.pending, func(i, j int) bool {
		return r.pending[i].ArrivalTime < r.pending[j].ArrivalTime
	})
	for i, p := range r.pending {
		p.Seq = i
	}
	return r, nil
}

// ActivateProcesses reveals every hidden process whose arrival time is at or
// before now. Revealed processes stay in newArrival until admitted.
func (r *Registry) ActivateProcesses(now int) int {
	n := 0
	for n < len(r.pending) && r.pending[n].ArrivalTime <= now {
		p := r.pending[n]
		r.active = append(r.active, p)
		r.logger.Debug("process activated", "pid", p.ID, "time", now)
		n++
	}
	r.pending = r.pending[n:]
	return n
}

// MoreProcessesComing reports whether any process has not been revealed yet.
func (r *Registry) MoreProcessesComing() bool {
	return len(r.pending) > 0
}

// AnyNotDone reports whether a revealed process has not finished.
func (r *Registry) AnyNotDone() bool {
	for _, p := range r.active {
		if p.State != model.ProcessStateDone {
			return true
		}
	}
	return false
}

// Processes returns the revealed processes in activation order.
func (r *Registry) Processes() []*model.Process {
	return r.active
}

// Len returns the total number of registered processes, revealed or not.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Find returns the revealed process with the given ID.
func (r *Registry) Find(id int) (*model.Process, bool) {
	p, ok := r.byID[id]
	if !ok || !r.revealed(p) {
		return nil, false
	}
	return p, true
}

func (r *Registry) revealed(p *model.Process) bool {
	return p.Seq < len(r.active) && r.active[p.Seq] == p
}

// FirstInState returns the first revealed process, in activation order, that
// is in the given state.
func (r *Registry) FirstInState(state model.ProcessState) (*model.Process, bool) {
	for _, p := range r.active {
		if p.State == state {
			return p, true
		}
	}
	return nil, false
}

// CountInState returns how many revealed processes are in the given state.
func (r *Registry) CountInState(state model.ProcessState) int {
	n := 0
	for _, p := range r.active {
		if p.State == state {
			n++
		}
	}
	return n
}

// Transition moves p to next if the lifecycle allows it.
func (r *Registry) Transition(p *model.Process, next model.ProcessState) error {
	if !p.State.CanTransitionTo(next) {
		return &model.InvalidTransitionError{ProcessID: p.ID, From: p.State, To: next}
	}
	r.logger.Debug("process state", "pid", p.ID, "from", p.State, "to", next)
	p.State = next
	return nil
}

// Snapshot returns the traced view of every revealed process.
func (r *Registry) Snapshot() []model.ProcessSnapshot {
	out := make([]model.ProcessSnapshot, len(r.active))
	for i, p := range r.active {
		out[i] = p.Snapshot()
	}
	return out
}
