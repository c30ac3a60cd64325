package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Guard is a pure, synchronous predicate over the result captured by a state.
// A nil Guard always accepts and marks the transition as the event's default.
type Guard func(result any) bool

// Choice accepts the keypad symbol n.
func Choice(n int) Guard {
	want := strconv.Itoa(n)
	return func(result any) bool {
		return Symbol(result) == want
	}
}

// Symbol normalizes a captured result into its raw input symbol.
func Symbol(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Transition is a directed, guarded edge fired by an event.
type Transition struct {
	Event  string
	Guard  Guard
	Target Vertex
	// Label is a human readable description of the guard (used by visualizations).
	Label string
}

// Accepts reports whether the transition is eligible for the result.
func (t Transition) Accepts(result any) bool {
	return t.Guard == nil || t.Guard(result)
}

// IsDefault reports whether the transition is guard-less.
func (t Transition) IsDefault() bool {
	return t.Guard == nil
}

// Vertex is a node of a CallFlow that transitions can target: a *State or a *FlowRef.
type Vertex interface {
	ID() string
	// Flow returns the CallFlow the vertex was registered in (nil before registration).
	Flow() *CallFlow
	// Transitions returns the transitions registered for the event in insertion order.
	Transitions(event string) []Transition
	// Events returns the events with registered transitions in registration order.
	Events() []string

	edgeSet() *edges
}

// Resolution is the outcome of routing an event.
type Resolution int

const (
	// Matched means a transition accepted the result.
	Matched Resolution = iota
	// Terminal means the vertex has no transitions for the event.
	Terminal
	// NoMatch means transitions exist for the event but none accepted the result.
	NoMatch
)

func (r Resolution) String() string {
	switch r {
	case Matched:
		return "matched"
	case Terminal:
		return "terminal"
	default:
		return "no_match"
	}
}

// ResolveTransition selects the first transition for event, in insertion order,
// whose guard accepts result.
func ResolveTransition(v Vertex, event string, result any) (Transition, Resolution) {
	candidates := v.Transitions(event)
	if len(candidates) == 0 {
		return Transition{}, Terminal
	}
	for _, t := range candidates {
		if t.Accepts(result) {
			return t, Matched
		}
	}
	return Transition{}, NoMatch
}

// edges holds the outgoing transitions of a vertex.
type edges struct {
	flow    *CallFlow
	events  []string
	byEvent map[string][]Transition
	err     error
}

func (e *edges) add(t Transition) {
	if e.flow != nil && e.flow.frozen {
		panic(ErrFrozen)
	}
	if e.err != nil {
		return
	}
	if t.Target == nil {
		e.err = fmt.Errorf("transition on %q has no target", t.Event)
		return
	}
	if e.byEvent == nil {
		e.byEvent = make(map[string][]Transition)
	}
	list := e.byEvent[t.Event]
	if n := len(list); n > 0 && list[n-1].IsDefault() {
		e.err = fmt.Errorf("%w (event %q)", ErrDefaultNotLast, t.Event)
		return
	}
	if len(list) == 0 {
		e.events = append(e.events, t.Event)
	}
	e.byEvent[t.Event] = append(list, t)
}

func (e *edges) transitions(event string) []Transition {
	return e.byEvent[event]
}

func (e *edges) all() []Transition {
	var out []Transition
	for _, ev := range e.events {
		out = append(out, e.byEvent[ev]...)
	}
	return out
}

// AllTransitions returns every transition of the vertex, grouped by event.
func AllTransitions(v Vertex) []Transition {
	return v.edgeSet().all()
}
