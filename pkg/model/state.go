package model

// ProcessState represents the lifecycle state of a simulated Process.
type ProcessState string

const (
	ProcessStateNewArrival ProcessState = "newArrival"
	ProcessStateReady      ProcessState = "ready"
	ProcessStateProcessing ProcessState = "processing"
	ProcessStateBlocked    ProcessState = "blocked"
	ProcessStateDone       ProcessState = "done"
)

// String returns the string representation of the process state.
func (s ProcessState) String() string {
	return string(s)
}

// IsTerminal returns true if the process will never change state again.
func (s ProcessState) IsTerminal() bool {
	return s == ProcessStateDone
}

// IsValid reports whether s is one of the known process states.
func (s ProcessState) IsValid() bool {
	switch s {
	case ProcessStateNewArrival, ProcessStateReady, ProcessStateProcessing, ProcessStateBlocked, ProcessStateDone:
		return true
	}
	return false
}

// ValidProcessTransitions defines the allowed state transitions for Processes.
// A running process leaves the processor only by blocking on I/O or finishing.
var ValidProcessTransitions = map[ProcessState][]ProcessState{
	ProcessStateNewArrival: {ProcessStateReady},
	ProcessStateReady:      {ProcessStateProcessing},
	ProcessStateProcessing: {ProcessStateBlocked, ProcessStateDone},
	ProcessStateBlocked:    {ProcessStateReady},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s ProcessState) CanTransitionTo(next ProcessState) bool {
	for _, allowed := range ValidProcessTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
