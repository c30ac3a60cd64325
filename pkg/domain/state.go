package domain

import (
	"context"
	"strconv"
)

// Behavior is the capability every conversational state implements:
// building the prompt model presented on entry.
// CreateModel must not mutate the session. A nil prompt marks a pass-through state.
type Behavior interface {
	CreateModel(s *Session) *Prompt
}

// EntryAction is implemented by behaviors that perform asynchronous work on entry.
type EntryAction interface {
	OnEntry(ctx context.Context, s *Session) error
}

// EntryFunc is a side-effecting step run before the state's prompt is rendered.
type EntryFunc func(ctx context.Context, s *Session) error

// State is a single conversational node of a CallFlow.
type State struct {
	id       string
	behavior Behavior
	actions  []EntryFunc
	event    string
	capture  *Var
	edges
}

// NewState creates a state. If the behavior implements EntryAction it becomes
// the first entry action of the state.
func NewState(id string, b Behavior) *State {
	if b == nil {
		b = PassThrough
	}
	st := &State{id: id, behavior: b, event: EventContinue}
	if a, ok := b.(EntryAction); ok {
		st.actions = append(st.actions, a.OnEntry)
	}
	return st
}

func (s *State) ID() string { return s.id }

func (s *State) Flow() *CallFlow { return s.edges.flow }

func (s *State) Transitions(event string) []Transition { return s.edges.transitions(event) }

func (s *State) Events() []string { return s.edges.events }

func (s *State) edgeSet() *edges { return &s.edges }

// Behavior returns the behavior the state was created with.
func (s *State) Behavior() Behavior { return s.behavior }

// CreateModel builds the prompt for the session.
func (s *State) CreateModel(sess *Session) *Prompt { return s.behavior.CreateModel(sess) }

// CompletionEvent is the event fired after a successful entry.
func (s *State) CompletionEvent() string { return s.event }

// EntryActions returns the registered entry actions in order.
func (s *State) EntryActions() []EntryFunc { return s.actions }

// Err returns the first construction error recorded on the state.
func (s *State) Err() error { return s.edges.err }

// AddOnEntryAction appends an entry action.
func (s *State) AddOnEntryAction(fn EntryFunc) *State {
	s.mutable()
	if fn != nil {
		s.actions = append(s.actions, fn)
	}
	return s
}

// Capture stores the input collected by the state's prompt into v.
func (s *State) Capture(v Var) *State {
	s.mutable()
	s.capture = &v
	return s
}

// CaptureVar returns the var receiving the collected input, if any.
func (s *State) CaptureVar() (Var, bool) {
	if s.capture == nil {
		return Var{}, false
	}
	return *s.capture, true
}

// Completes overrides the completion event (default EventContinue).
func (s *State) Completes(event string) *State {
	s.mutable()
	s.event = event
	return s
}

// AddTransition registers an edge. A nil guard makes it the event's default,
// which must be the last transition registered for that event.
func (s *State) AddTransition(event string, target Vertex, guard Guard) *State {
	s.edges.add(Transition{Event: event, Target: target, Guard: guard})
	return s
}

// AddChoice registers a keypad transition on the completion event.
func (s *State) AddChoice(key int, target Vertex) *State {
	s.edges.add(Transition{Event: s.event, Target: target, Guard: Choice(key), Label: strconv.Itoa(key)})
	return s
}

// Then registers the default transition on the completion event.
func (s *State) Then(target Vertex) *State {
	return s.AddTransition(s.event, target, nil)
}

// OnFailure registers the default transition for EventFailed.
func (s *State) OnFailure(target Vertex) *State {
	return s.AddTransition(EventFailed, target, nil)
}

func (s *State) mutable() {
	if s.edges.flow != nil && s.edges.flow.frozen {
		panic(ErrFrozen)
	}
}

// FlowRef embeds a sub-flow as a vertex of its parent.
// Entering it pushes the sub-flow; its transitions form the continuation
// resolved with the sub-flow's final event when the sub-flow returns.
type FlowRef struct {
	id     string
	target Flow
	edges
}

func (r *FlowRef) ID() string { return r.id }

func (r *FlowRef) Flow() *CallFlow { return r.edges.flow }

func (r *FlowRef) Transitions(event string) []Transition { return r.edges.transitions(event) }

func (r *FlowRef) Events() []string { return r.edges.events }

func (r *FlowRef) edgeSet() *edges { return &r.edges }

// Target returns the embedded flow definition.
func (r *FlowRef) Target() Flow { return r.target }

// Err returns the first construction error recorded on the reference.
func (r *FlowRef) Err() error { return r.edges.err }

// AddTransition registers a continuation edge for an event returned by the sub-flow.
func (r *FlowRef) AddTransition(event string, target Vertex, guard Guard) *FlowRef {
	r.edges.add(Transition{Event: event, Target: target, Guard: guard})
	return r
}

// Then registers the default continuation for EventContinue.
func (r *FlowRef) Then(target Vertex) *FlowRef {
	return r.AddTransition(EventContinue, target, nil)
}

// OnFailure registers the default continuation for EventFailed.
func (r *FlowRef) OnFailure(target Vertex) *FlowRef {
	return r.AddTransition(EventFailed, target, nil)
}
