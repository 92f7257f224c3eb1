package pipeline

import "fmt"

// State is the lifecycle position of a call.
type State int

const (
	StateIngesting State = iota
	StateProcessing
	StateEmitting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIngesting:
		return "ingesting"
	case StateProcessing:
		return "processing"
	case StateEmitting:
		return "emitting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// phase returns the metrics label of a non-terminal state.
func (s State) phase() string {
	switch s {
	case StateIngesting:
		return "ingest"
	case StateProcessing:
		return "process"
	case StateEmitting:
		return "emit"
	default:
		return ""
	}
}

// canTransition lists the legal edges: each phase moves to the next one or
// to Failed; Emitting may also finish.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to == from+1
}
