package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventStateEnter EventType = "state_enter"
	EventStateLeave EventType = "state_leave"
	EventFlowPush   EventType = "flow_push"
	EventFlowPop    EventType = "flow_pop"
	EventSessionEnd EventType = "session_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StateEvent represents entry into or exit from a vertex.
type StateEvent struct {
	EventBase
	Flow  string `json:"flow"`
	State string `json:"state"`
	Depth int    `json:"depth"`
	// Event and Result are set when leaving: the fired event and captured input.
	Event  string `json:"event,omitempty"`
	Result any    `json:"result,omitempty"`
	Err    error  `json:"-"`
}

// FlowEvent represents a push or pop of the flow stack.
type FlowEvent struct {
	EventBase
	Flow string `json:"flow"`
	// Via is the sub-flow reference id in the parent frame.
	Via   string `json:"via,omitempty"`
	Depth int    `json:"depth"`
	// Event is the final event a popped flow returned with.
	Event string `json:"event,omitempty"`
}

// SessionEvent is emitted once when a session stops.
type SessionEvent struct {
	EventBase
	Status   SessionStatus `json:"status"`
	Reason   EndReason     `json:"reason"`
	Err      error         `json:"-"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
	Snapshot *Snapshot     `json:"snapshot,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the engine goroutine.
type LifecycleHooks struct {
	OnStateEnter func(context.Context, *StateEvent)
	OnStateLeave func(context.Context, *StateEvent)
	OnFlowPush   func(context.Context, *FlowEvent)
	OnFlowPop    func(context.Context, *FlowEvent)
	OnSessionEnd func(context.Context, *SessionEvent)
}

// ComposeHooks fans every callback out to the given hook sets in order.
func ComposeHooks(hooks ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range hooks {
		h := h
		out.OnStateEnter = chain(out.OnStateEnter, h.OnStateEnter)
		out.OnStateLeave = chain(out.OnStateLeave, h.OnStateLeave)
		out.OnFlowPush = chain(out.OnFlowPush, h.OnFlowPush)
		out.OnFlowPop = chain(out.OnFlowPop, h.OnFlowPop)
		out.OnSessionEnd = chain(out.OnSessionEnd, h.OnSessionEnd)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
