// Package session interprets the ordered event sequence of one generation
// request and drives the document model: a state machine per in-flight
// request, plus a tracker enforcing one live session per target.
package session

import "fmt"

// State is the lifecycle state of a generation session. Terminal states are
// absorbing: once reached, no further stream event mutates anything, and a
// new request always constructs a fresh Controller.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateWriting
	StateCompleted
	StateFailed
	StatePaymentRequired
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateStarting:        "starting",
	StateWriting:         "writing",
	StateCompleted:       "completed",
	StateFailed:          "failed",
	StatePaymentRequired: "payment_required",
	StateCancelled:       "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the state absorbs all further events.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StatePaymentRequired, StateCancelled:
		return true
	}
	return false
}

// Transport is what a controller needs from the stream layer: the ability
// to tear the connection down. *docstream.Client satisfies it.
type Transport interface {
	Stop()
}
