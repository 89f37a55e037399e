package model

import "time"

// RunState represents the lifecycle state of an archived simulation run.
type RunState string

const (
	RunStateRunning   RunState = "RUNNING"
	RunStateCompleted RunState = "COMPLETED"
	RunStateFailed    RunState = "FAILED"
)

// IsTerminal returns true if the run has finished.
func (s RunState) IsTerminal() bool {
	return s == RunStateCompleted || s == RunStateFailed
}

// Run is an archived simulation run.
type Run struct {
	ID           string         `json:"id"`
	Source       string         `json:"source"`
	State        RunState       `json:"state"`
	ProcessCount int            `json:"process_count"`
	Ticks        int            `json:"ticks"`
	BusyTicks    int            `json:"busy_ticks"`
	Error        string         `json:"error,omitempty"`
	Stats        []ProcessStats `json:"stats,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// Utilization is the fraction of ticks in which the processor ran a process.
func (r *Run) Utilization() float64 {
	if r.Ticks == 0 {
		return 0
	}
	return float64(r.BusyTicks) / float64(r.Ticks)
}

// ProcessStats summarises how one process moved through the simulation.
// Tick fields are zero when the event never happened.
type ProcessStats struct {
	ProcessID    int `json:"process_id"`
	ArrivalTick  int `json:"arrival_tick"`
	FirstRunTick int `json:"first_run_tick"`
	FinishTick   int `json:"finish_tick"`
	RunTicks     int `json:"run_ticks"`
	WaitTicks    int `json:"wait_ticks"`
	BlockedTicks int `json:"blocked_ticks"`
	IORequests   int `json:"io_requests"`
}

// Turnaround is the number of ticks between arrival and completion.
func (s ProcessStats) Turnaround() int {
	if s.FinishTick == 0 {
		return 0
	}
	return s.FinishTick - s.ArrivalTick
}

// ResponseTime is the number of ticks between arrival and first dispatch.
func (s ProcessStats) ResponseTime() int {
	if s.FirstRunTick == 0 {
		return 0
	}
	return s.FirstRunTick - s.ArrivalTick
}
