package domain

import (
	"errors"
	"fmt"
)

// ErrNoMatchingTransition is returned when an event has registered transitions
// but none of their guards accepts the result.
var ErrNoMatchingTransition = errors.New("no matching transition")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrFlowNotFound is returned when a flow is looked up by a name nobody defines.
var ErrFlowNotFound = errors.New("flow not found")

// ErrEmptyFlow is returned when a flow is frozen without any state.
var ErrEmptyFlow = errors.New("flow has no states")

// ErrFrozen is returned when a frozen flow or one of its states is mutated.
var ErrFrozen = errors.New("flow topology is frozen")

// ErrDefaultNotLast is returned when a transition is registered for an event
// after that event's guard-less default transition.
var ErrDefaultNotLast = errors.New("default transition must be the last one registered for its event")

// ErrStepLimit is returned when a session exceeds the configured transition budget.
var ErrStepLimit = errors.New("transition limit exceeded")

// ValidationError describes a construction-time defect of a flow.
type ValidationError struct {
	Flow  string
	State string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("flow %q: %v", e.Flow, e.Err)
	}
	return fmt.Sprintf("flow %q, state %q: %v", e.Flow, e.State, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ActionError wraps a failure raised by a state's entry action.
type ActionError struct {
	Flow  string
	State string
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("entry action of %s/%s failed: %v", e.Flow, e.State, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// ConstructionError wraps a failure of a flow's Create routine.
type ConstructionError struct {
	Flow string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("construction of flow %q failed: %v", e.Flow, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// RoutingFault is the fatal session error raised when a fired event cannot be routed.
// Cause carries the payload of the event (e.g. the ActionError of an unhandled failure).
type RoutingFault struct {
	Flow  string
	State string
	Event string
	Cause error
}

func (e *RoutingFault) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("routing fault at %s/%s on %q: %v", e.Flow, e.State, e.Event, e.Cause)
	}
	return fmt.Sprintf("routing fault at %s/%s on %q: %v", e.Flow, e.State, e.Event, ErrNoMatchingTransition)
}

// Unwrap exposes both the routing sentinel and the original cause.
func (e *RoutingFault) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrNoMatchingTransition, e.Cause}
	}
	return []error{ErrNoMatchingTransition}
}
