package task

// Status is the call task lifecycle state.
//
// Lifecycle invariant: transitions are monotonic along
// pending → in_progress → {completed | failed | transferred}.
// A task never re-enters pending, and terminal states accept no transitions.
//
// failed and transferred are reachable states in the model but the simulated
// engine never produces transferred; a real telephony engine drives it on
// explicit handoff.
type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusTransferred Status = "transferred"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusTransferred},
	// terminal states: no outgoing edges
	StatusCompleted:   {},
	StatusFailed:      {},
	StatusTransferred: {},
}

// Valid reports whether s is a recognized status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step. It is the single authority on transition order; the repository only
// checks that status values are recognized.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
