package domain

import (
	"context"
	"fmt"
	"sync"
)

// Flow is a flow definition: a named construction routine producing a CallFlow.
// Create may read external data to decide which states to materialize.
type Flow interface {
	Name() string
	Create(ctx context.Context, s *Session) (*CallFlow, error)
}

// Refresher is implemented by flows whose topology depends on data that can
// change between entries. The engine rebuilds them every time they are entered.
type Refresher interface {
	RefreshOnEntry() bool
}

// CallFlow is an ordered collection of vertices with one entry point.
// Its topology is frozen once built and may then be shared read-only.
type CallFlow struct {
	name     string
	vertices []Vertex
	byID     map[string]Vertex
	subFlows []*FlowRef
	entry    Vertex
	frozen   bool
	err      error
}

// NewCallFlow creates an empty, mutable flow.
func NewCallFlow(name string) *CallFlow {
	return &CallFlow{
		name: name,
		byID: make(map[string]Vertex),
	}
}

func (g *CallFlow) Name() string { return g.name }

// Var mints a var owned by this flow.
func (g *CallFlow) Var(name string) Var {
	return Var{Owner: g.name, Name: name}
}

// AddState registers a state. The first registered vertex is the entry point.
func (g *CallFlow) AddState(st *State) *CallFlow {
	g.register(st)
	return g
}

// AddStates registers states in order.
func (g *CallFlow) AddStates(states ...*State) *CallFlow {
	for _, st := range states {
		g.register(st)
	}
	return g
}

// Embed registers a sub-flow reference under the given id. Like AddState it
// registers immediately, so a flow whose first registration is an Embed enters
// through the sub-flow unless SetEntry says otherwise.
func (g *CallFlow) Embed(id string, f Flow) *FlowRef {
	ref := &FlowRef{id: id, target: f}
	if f == nil {
		g.fail(&ValidationError{Flow: g.name, State: id, Err: fmt.Errorf("embedded flow is nil")})
	}
	g.register(ref)
	g.subFlows = append(g.subFlows, ref)
	return ref
}

// SetEntry overrides the entry vertex.
func (g *CallFlow) SetEntry(v Vertex) *CallFlow {
	if g.frozen {
		panic(ErrFrozen)
	}
	g.entry = v
	return g
}

// Entry returns the entry vertex.
func (g *CallFlow) Entry() Vertex { return g.entry }

// Vertex looks up a vertex by id.
func (g *CallFlow) Vertex(id string) (Vertex, bool) {
	v, ok := g.byID[id]
	return v, ok
}

// Vertices returns the vertices in registration order.
func (g *CallFlow) Vertices() []Vertex { return g.vertices }

// SubFlows returns the embedded sub-flow references.
func (g *CallFlow) SubFlows() []*FlowRef { return g.subFlows }

// Frozen reports whether the topology is immutable.
func (g *CallFlow) Frozen() bool { return g.frozen }

// Freeze validates the topology and makes it immutable.
func (g *CallFlow) Freeze() error {
	if g.frozen {
		return nil
	}
	if g.err != nil {
		return g.err
	}
	if len(g.vertices) == 0 {
		return &ValidationError{Flow: g.name, Err: ErrEmptyFlow}
	}
	for _, v := range g.vertices {
		set := v.edgeSet()
		if set.err != nil {
			return &ValidationError{Flow: g.name, State: v.ID(), Err: set.err}
		}
		for _, t := range set.all() {
			if registered, ok := g.byID[t.Target.ID()]; !ok || registered != t.Target {
				return &ValidationError{
					Flow:  g.name,
					State: v.ID(),
					Err:   fmt.Errorf("transition %q targets %q which is not registered in this flow", t.Event, t.Target.ID()),
				}
			}
		}
	}
	if g.entry == nil {
		g.entry = g.vertices[0]
	} else if registered, ok := g.byID[g.entry.ID()]; !ok || registered != g.entry {
		return &ValidationError{Flow: g.name, State: g.entry.ID(), Err: fmt.Errorf("entry vertex is not registered in this flow")}
	}
	g.frozen = true
	return nil
}

func (g *CallFlow) register(v Vertex) {
	if g.frozen {
		panic(ErrFrozen)
	}
	if v == nil {
		g.fail(&ValidationError{Flow: g.name, Err: fmt.Errorf("nil state")})
		return
	}
	set := v.edgeSet()
	if set.flow != nil && set.flow != g {
		g.fail(&ValidationError{Flow: g.name, State: v.ID(), Err: fmt.Errorf("state already belongs to flow %q", set.flow.name)})
		return
	}
	if _, dup := g.byID[v.ID()]; dup {
		g.fail(&ValidationError{Flow: g.name, State: v.ID(), Err: fmt.Errorf("duplicate state id")})
		return
	}
	set.flow = g
	g.byID[v.ID()] = v
	g.vertices = append(g.vertices, v)
}

func (g *CallFlow) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// DataFlow splits construction into a data-fetch step and a pure graph-builder
// step, so the graph shape can be tested independently of the data source.
type DataFlow[T any] struct {
	ID      string
	Fetch   func(ctx context.Context, s *Session) (T, error)
	Build   func(g *CallFlow, data T) error
	Refresh bool
}

func (f *DataFlow[T]) Name() string { return f.ID }

// RefreshOnEntry implements Refresher.
func (f *DataFlow[T]) RefreshOnEntry() bool { return f.Refresh }

// Create fetches the data and builds a frozen CallFlow from it.
func (f *DataFlow[T]) Create(ctx context.Context, s *Session) (*CallFlow, error) {
	var data T
	if f.Fetch != nil {
		var err error
		data, err = f.Fetch(ctx, s)
		if err != nil {
			return nil, err
		}
	}
	return BuildFlow(f.ID, func(g *CallFlow) error {
		return f.Build(g, data)
	})
}

// BuildFlow runs a builder against a fresh CallFlow and freezes the result.
func BuildFlow(name string, build func(g *CallFlow) error) (*CallFlow, error) {
	g := NewCallFlow(name)
	if build != nil {
		if err := build(g); err != nil {
			return nil, err
		}
	}
	if err := g.Freeze(); err != nil {
		return nil, err
	}
	return g, nil
}

// Template is a static flow built once and shared read-only by every session.
type Template struct {
	name  string
	build func(g *CallFlow) error

	reset bool

	once  sync.Once
	graph *CallFlow
	err   error
}

// NewTemplate creates a static flow definition.
func NewTemplate(name string, build func(g *CallFlow) error) *Template {
	return &Template{name: name, build: build}
}

func (t *Template) Name() string { return t.name }

// ResetVarsOnEntry makes every entry start with empty vars (the graph stays shared).
func (t *Template) ResetVarsOnEntry() *Template {
	t.reset = true
	return t
}

// RefreshOnEntry implements Refresher.
func (t *Template) RefreshOnEntry() bool { return t.reset }

// Create returns the shared compiled graph.
func (t *Template) Create(ctx context.Context, s *Session) (*CallFlow, error) {
	t.once.Do(func() {
		t.graph, t.err = BuildFlow(t.name, t.build)
	})
	return t.graph, t.err
}
