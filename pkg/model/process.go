package model

// IOEvent is a blocking I/O request a process issues once it has consumed
// Offset units of processor time. The request keeps the process blocked for
// Duration ticks.
type IOEvent struct {
	Offset   int `json:"offset" yaml:"offset"`
	Duration int `json:"duration" yaml:"duration"`
}

// Process is a simulated process record. Records are owned by the registry
// and mutated in place by the tick engine.
type Process struct {
	ID            int          `json:"id"`
	ArrivalTime   int          `json:"arrival_time"`
	RequiredTime  int          `json:"required_time"`
	IOEvents      []IOEvent    `json:"io_events"`
	ProcessorTime int          `json:"processor_time"`
	State         ProcessState `json:"state"`
	Seq           int          `json:"-"` // registration order
}

// NewProcess returns a process in the newArrival state.
func NewProcess(id, arrival, required int, events ...IOEvent) *Process {
	return &Process{
		ID:           id,
		ArrivalTime:  arrival,
		RequiredTime: required,
		IOEvents:     append([]IOEvent(nil), events...),
		State:        ProcessStateNewArrival,
	}
}

// NextIOEvent returns the next pending I/O event, if any.
func (p *Process) NextIOEvent() (IOEvent, bool) {
	if len(p.IOEvents) == 0 {
		return IOEvent{}, false
	}
	return p.IOEvents[0], true
}

// PopIOEvent removes and returns the next pending I/O event.
func (p *Process) PopIOEvent() (IOEvent, bool) {
	ev, ok := p.NextIOEvent()
	if ok {
		p.IOEvents = p.IOEvents[1:]
	}
	return ev, ok
}

// Snapshot returns the traced view of the process.
func (p *Process) Snapshot() ProcessSnapshot {
	return ProcessSnapshot{ID: p.ID, State: p.State, ProcessorTime: p.ProcessorTime}
}

// Clone returns a deep copy of the process.
func (p *Process) Clone() *Process {
	c := *p
	c.IOEvents = append([]IOEvent(nil), p.IOEvents...)
	return &c
}

// ProcessSnapshot is the per-tick view of a process written to the trace.
type ProcessSnapshot struct {
	ID            int          `json:"id"`
	State         ProcessState `json:"state"`
	ProcessorTime int          `json:"processor_time"`
}

// Interrupt signals that the I/O operation of ProcessID has completed.
type Interrupt struct {
	ProcessID int `json:"process_id"`
	RaisedAt  int `json:"raised_at"`
}
