package pipeline

import "time"

// State is one phase of a job.
type State string

const (
	StateValidating   State = "validating"
	StateConverting   State = "converting"
	StateSplitting    State = "splitting"
	StateTranscribing State = "transcribing"
	StateAggregating  State = "aggregating"
	StateCleaningUp   State = "cleaning_up"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// StateChange is delivered to Pipeline.OnState on every transition.
type StateChange struct {
	RunID string
	From  State
	To    State
	// Err is the fatal error that caused a jump to cleaning_up or failed.
	Err error
	At  time.Time
}

var allowedTransitions = map[State][]State{
	StateValidating:   {StateConverting, StateSplitting, StateCleaningUp},
	StateConverting:   {StateSplitting, StateCleaningUp},
	StateSplitting:    {StateTranscribing, StateCleaningUp},
	StateTranscribing: {StateAggregating, StateCleaningUp},
	StateAggregating:  {StateCleaningUp},
	StateCleaningUp:   {StateDone, StateFailed},
}

func canTransition(from, to State) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
