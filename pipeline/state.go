package pipeline

import "fmt"

// State is the run lifecycle:
//
//	Idle → SessionReady → Iterating → Completed
//	                                ↘ Aborted
//
// Any state before Completed may move to Aborted.
type State int

const (
	Idle State = iota
	SessionReady
	Iterating
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SessionReady:
		return "session_ready"
	case Iterating:
		return "iterating"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Completed || s == Aborted
}
