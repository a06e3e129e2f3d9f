package location

import (
	"fmt"

	"storefront/internal/structs"
)

type State string

const (
	StateIdle                State = "idle"
	StatePermissionRequested State = "permission_requested"
	StatePermissionGranted   State = "permission_granted"
	StatePermissionDenied    State = "permission_denied"
	StateAcquiring           State = "acquiring"
	StateAcquired            State = "acquired"
	StateFailed              State = "failed"
)

// every terminal state may start a new attempt; nothing retries on its own
var transitions = map[State][]State{
	StateIdle:                {StatePermissionRequested},
	StatePermissionRequested: {StatePermissionGranted, StatePermissionDenied, StateFailed},
	StatePermissionGranted:   {StateAcquiring},
	StatePermissionDenied:    {StatePermissionRequested},
	StateAcquiring:           {StateAcquired, StateFailed},
	StateAcquired:            {StatePermissionRequested},
	StateFailed:              {StatePermissionRequested},
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns the new state or ErrIllegalTransition.
func (s State) Transition(to State) (State, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("location %s -> %s: %w", s, to, structs.ErrIllegalTransition)
	}
	return to, nil
}

// InProgress is true while an attempt is between its start and a terminal state.
func (s State) InProgress() bool {
	switch s {
	case StatePermissionRequested, StatePermissionGranted, StateAcquiring:
		return true
	}
	return false
}
