package model

// Action is the single outcome of one scheduler tick.
type Action string

const (
	ActionNoAct           Action = "noAct"
	ActionAdmitNewProc    Action = "admitNewProc"
	ActionHandleInterrupt Action = "handleInterrupt"
	ActionBeginRun        Action = "beginRun"
	ActionContinueRun     Action = "continueRun"
	ActionIORequest       Action = "ioRequest"
	ActionComplete        Action = "complete"
)

// actionTags holds the bracketed trace spelling of every action. Verification
// harnesses compare these byte for byte.
var actionTags = map[Action]string{
	ActionAdmitNewProc:    "  admit",
	ActionHandleInterrupt: " inrtpt",
	ActionBeginRun:        "  begin",
	ActionContinueRun:     "contRun",
	ActionIORequest:       "  ioReq",
	ActionComplete:        " finish",
	ActionNoAct:           "*noAct*",
}

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// Tag returns the fixed-width trace tag for the action.
func (a Action) Tag() string {
	if tag, ok := actionTags[a]; ok {
		return tag
	}
	return actionTags[ActionNoAct]
}

// IsRunning reports whether the action was taken on behalf of the process
// that held the processor at the start of the tick.
func (a Action) IsRunning() bool {
	switch a {
	case ActionContinueRun, ActionIORequest, ActionComplete:
		return true
	}
	return false
}

// Actions returns every action in declaration order.
func Actions() []Action {
	return []Action{
		ActionNoAct,
		ActionAdmitNewProc,
		ActionHandleInterrupt,
		ActionBeginRun,
		ActionContinueRun,
		ActionIORequest,
		ActionComplete,
	}
}

// NoProcess is the ProcessID of a tick that did not act on any process.
const NoProcess = -1

// TickResult is what the tick engine produced for one simulated time unit.
type TickResult struct {
	Time      int               `json:"time"`
	Action    Action            `json:"action"`
	ProcessID int               `json:"process_id"`
	Processes []ProcessSnapshot `json:"processes"`
}

// Busy reports whether the processor executed a process during the tick.
func (r TickResult) Busy() bool {
	return r.Action.IsRunning()
}
