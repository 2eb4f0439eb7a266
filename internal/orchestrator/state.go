package orchestrator

import (
	"errors"
	"fmt"
)

// State is the platform lifecycle state
type State string

const (
	StateIdle         State = "IDLE"
	StateInitializing State = "INITIALIZING"
	StateDomainsReady State = "DOMAINS_READY"
	StateReady        State = "READY"
	StateDegraded     State = "DEGRADED"
	StatePaused       State = "PAUSED"
	StateShuttingDown State = "SHUTTING_DOWN"
	StateShutdown     State = "SHUTDOWN"
	StateError        State = "ERROR"
)

// Event drives a lifecycle transition
type Event string

const (
	EventInitialize       Event = "initialize"
	EventDomainsReady     Event = "domains_ready"
	EventStarted          Event = "started"
	EventDegrade          Event = "degrade"
	EventRecover          Event = "recover"
	EventPause            Event = "pause"
	EventResume           Event = "resume"
	EventShutdown         Event = "shutdown"
	EventShutdownComplete Event = "shutdown_complete"
	EventFail             Event = "fail"
)

// ErrIllegalTransition is wrapped by every rejected transition.
var ErrIllegalTransition = errors.New("illegal lifecycle transition")

// TransitionError names the rejected transition.
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s on %s", ErrIllegalTransition, e.Event, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

var transitions = map[State]map[Event]State{
	StateIdle: {
		EventInitialize: StateInitializing,
	},
	StateInitializing: {
		EventDomainsReady: StateDomainsReady,
		EventFail:         StateError,
		EventShutdown:     StateShuttingDown,
	},
	StateDomainsReady: {
		EventStarted:  StateReady,
		EventFail:     StateError,
		EventShutdown: StateShuttingDown,
	},
	StateReady: {
		EventDegrade:  StateDegraded,
		EventPause:    StatePaused,
		EventShutdown: StateShuttingDown,
	},
	StateDegraded: {
		EventRecover:  StateReady,
		EventShutdown: StateShuttingDown,
	},
	StatePaused: {
		EventResume:   StateReady,
		EventShutdown: StateShuttingDown,
	},
	StateShuttingDown: {
		EventShutdownComplete: StateShutdown,
	},
	// Initialization faults are not rolled back; shutting down is the only
	// way to release the workers that did initialize.
	StateError: {
		EventShutdown: StateShuttingDown,
	},
	StateShutdown: {},
}

func init() {
	validateTable(transitions)
}

// validateTable panics if the table names an unknown state or lets the
// terminal state go anywhere.
func validateTable(table map[State]map[Event]State) {
	for from, edges := range table {
		if from == StateShutdown && len(edges) > 0 {
			panic(fmt.Sprintf("terminal state %s has outgoing transitions", from))
		}
		for ev, to := range edges {
			if _, ok := table[to]; !ok {
				panic(fmt.Sprintf("transition %s on %s leads to unknown state %s", from, ev, to))
			}
		}
	}
}

// Transition returns the state ev leads to from from.
func Transition(from State, ev Event) (State, error) {
	if next, ok := transitions[from][ev]; ok {
		return next, nil
	}
	return from, &TransitionError{From: from, Event: ev}
}

// States lists every lifecycle state.
func States() []State {
	return []State{
		StateIdle, StateInitializing, StateDomainsReady, StateReady, StateDegraded,
		StatePaused, StateShuttingDown, StateShutdown, StateError,
	}
}
