package domain

import (
	"strings"
	"time"
)

// SessionStatus defines the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive     SessionStatus = "active"     // Engine is driving the session
	StatusTerminated SessionStatus = "terminated" // Ended normally or by cancellation
	StatusFaulted    SessionStatus = "faulted"    // Ended by an unrecoverable error
)

// EndReason explains why a session stopped.
type EndReason string

const (
	ReasonNone      EndReason = ""
	ReasonCompleted EndReason = "completed"
	ReasonCancelled EndReason = "cancelled"
	ReasonFaulted   EndReason = "faulted"
)

// Frame is one level of the flow stack.
type Frame struct {
	// Flow is the definition the frame was built from.
	Flow Flow
	// Graph is the built topology executing in this frame.
	Graph *CallFlow
	// Current is the active vertex of the frame.
	Current Vertex
	// Pending is the sub-flow reference awaiting the return of the frame above.
	Pending *FlowRef
}

// Session is one execution of a top-level flow for one call.
// It is owned by a single engine goroutine while active.
type Session struct {
	ID     string
	UserID string

	Status SessionStatus
	Reason EndReason
	Err    error

	// History records every entered vertex as "flow/state".
	History []string
	// Steps counts the transitions taken.
	Steps int

	StartedAt time.Time
	EndedAt   time.Time

	data      map[string]any
	vars      map[string]map[string]any
	stack     []*Frame
	instances map[string]*CallFlow
	releases  []func()
}

// NewSession creates an active session for a caller.
func NewSession(id, userID string) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Status:    StatusActive,
		StartedAt: time.Now(),
		data:      make(map[string]any),
		vars:      make(map[string]map[string]any),
		instances: make(map[string]*CallFlow),
	}
}

// Active reports whether the session is still running.
func (s *Session) Active() bool { return s.Status == StatusActive }

// Get returns a session data value (nil when absent).
func (s *Session) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Set stores a session data value.
func (s *Session) Set(key string, value any) {
	s.data[key] = value
}

// Lookup resolves a key in the session data. Dotted keys descend into nested maps
// when no exact key exists.
func (s *Session) Lookup(key string) (any, bool) {
	if v, ok := s.data[key]; ok {
		return v, true
	}
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil, false
	}
	var cur any = s.data
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Data returns a shallow copy of the session data.
func (s *Session) Data() map[string]any {
	out := make(map[string]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Push adds a frame on top of the flow stack.
func (s *Session) Push(f *Frame) {
	s.stack = append(s.stack, f)
}

// Pop removes and returns the top frame (nil when empty).
func (s *Session) Pop() *Frame {
	n := len(s.stack)
	if n == 0 {
		return nil
	}
	f := s.stack[n-1]
	s.stack[n-1] = nil
	s.stack = s.stack[:n-1]
	return f
}

// Top returns the innermost frame (nil when empty).
func (s *Session) Top() *Frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Depth returns the number of frames on the flow stack.
func (s *Session) Depth() int { return len(s.stack) }

// Frames returns the flow stack, outermost first.
func (s *Session) Frames() []*Frame {
	out := make([]*Frame, len(s.stack))
	copy(out, s.stack)
	return out
}

// Instance returns the cached built graph of a flow for this session.
func (s *Session) Instance(name string) (*CallFlow, bool) {
	g, ok := s.instances[name]
	return g, ok
}

// SetInstance caches a built graph for this session.
func (s *Session) SetInstance(name string, g *CallFlow) {
	s.instances[name] = g
}

// ResetVars drops every var owned by the flow.
func (s *Session) ResetVars(owner string) {
	delete(s.vars, owner)
}

// Defer registers a release function scoped to the current state.
// Releases run in reverse order when the state is left or the session is cancelled.
func (s *Session) Defer(fn func()) {
	if fn != nil {
		s.releases = append(s.releases, fn)
	}
}

// Release runs and clears the pending release functions.
func (s *Session) Release() {
	for i := len(s.releases) - 1; i >= 0; i-- {
		s.releases[i]()
	}
	s.releases = nil
}

// Visit appends an entered vertex to the history.
func (s *Session) Visit(flow, state string) {
	s.History = append(s.History, flow+"/"+state)
}

// End marks the session as finished.
func (s *Session) End(reason EndReason, err error) {
	if reason == ReasonFaulted {
		s.Status = StatusFaulted
	} else {
		s.Status = StatusTerminated
	}
	s.Reason = reason
	s.Err = err
	s.EndedAt = time.Now()
}
