package pending

import (
	"fmt"

	"github.com/Veraticus/spicebot/internal/common"
)

// State is where a draft is in its confirmation lifecycle.
type State string

// Lifecycle states. Committed and Cancelled are terminal.
const (
	StateDraft     State = "draft"
	StatePending   State = "pending"
	StateCommitted State = "committed"
	StateCancelled State = "cancelled"
)

// Event moves a draft between states.
type Event string

// Lifecycle events.
const (
	EventSubmit      Event = "submit"
	EventAutoConfirm Event = "auto_confirm"
	EventConfirm     Event = "confirm"
	EventCancel      Event = "cancel"
)

var transitions = map[State]map[Event]State{
	StateDraft: {
		EventSubmit:      StatePending,
		EventAutoConfirm: StateCommitted,
	},
	StatePending: {
		EventConfirm: StateCommitted,
		EventCancel:  StateCancelled,
	},
}

// Transition returns the state reached by applying event to from.
func Transition(from State, event Event) (State, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, fmt.Errorf("%w: %s on %s", common.ErrInvalidStateTransition, event, from)
}

// Terminal reports whether no further events apply to s.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}
