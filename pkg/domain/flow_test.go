package domain

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTransition_FirstAcceptingWins(t *testing.T) {
	g := NewCallFlow("menu")
	ask := NewState("ask", Ask(DigitsGrammar(1), Text("Press a key")))
	one := NewState("one", Say(Text("one")))
	two := NewState("two", Say(Text("two")))
	fallback := NewState("fallback", Say(Text("again")))
	ask.AddChoice(1, one).AddChoice(2, two).Then(fallback)
	g.AddStates(ask, one, two, fallback)
	require.NoError(t, g.Freeze())

	for _, tc := range []struct {
		result any
		want   string
	}{
		{"1", "one"},
		{2, "two"},
		{" 2 ", "two"},
		{"9", "fallback"},
		{nil, "fallback"},
	} {
		tr, res := ResolveTransition(ask, EventContinue, tc.result)
		require.Equal(t, Matched, res, "result %v", tc.result)
		assert.Equal(t, tc.want, tr.Target.ID(), "result %v", tc.result)
	}
}

func TestResolveTransition_NoDefault(t *testing.T) {
	g := NewCallFlow("menu")
	ask := NewState("ask", Ask(DigitsGrammar(1)))
	next := NewState("next", nil)
	ask.AddChoice(3, next)
	g.AddStates(ask, next)
	require.NoError(t, g.Freeze())

	for i := 0; i < 10; i++ {
		if i == 3 {
			continue
		}
		_, res := ResolveTransition(ask, EventContinue, strconv.Itoa(i))
		assert.Equal(t, NoMatch, res)
	}

	_, res := ResolveTransition(next, EventContinue, nil)
	assert.Equal(t, Terminal, res)

	_, res = ResolveTransition(ask, EventFailed, nil)
	assert.Equal(t, Terminal, res)
}

func TestFreeze_DefaultMustBeLast(t *testing.T) {
	g := NewCallFlow("menu")
	ask := NewState("ask", Ask(DigitsGrammar(1)))
	a := NewState("a", nil)
	b := NewState("b", nil)
	ask.Then(a).AddChoice(1, b)
	g.AddStates(ask, a, b)

	err := g.Freeze()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDefaultNotLast)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ask", verr.State)
}

func TestFreeze_EmptyFlow(t *testing.T) {
	_, err := BuildFlow("empty", nil)
	assert.ErrorIs(t, err, ErrEmptyFlow)
}

func TestFreeze_RejectsForeignAndDuplicateStates(t *testing.T) {
	other := NewCallFlow("other")
	foreign := NewState("foreign", nil)
	other.AddState(foreign)

	g := NewCallFlow("main")
	start := NewState("start", nil).Then(foreign)
	g.AddState(start)
	assert.Error(t, g.Freeze(), "target registered in another flow")

	dup := NewCallFlow("dup")
	dup.AddStates(NewState("x", nil), NewState("x", nil))
	assert.Error(t, dup.Freeze())

	shared := NewCallFlow("shared")
	shared.AddState(foreign)
	assert.Error(t, shared.Freeze(), "state already owned by another flow")
}

func TestFreeze_ImmutableAfterwards(t *testing.T) {
	g := NewCallFlow("main")
	a := NewState("a", nil)
	b := NewState("b", nil)
	g.AddStates(a, b)
	require.NoError(t, g.Freeze())
	assert.Same(t, a, g.Entry())

	assert.PanicsWithValue(t, ErrFrozen, func() { a.Then(b) })
	assert.PanicsWithValue(t, ErrFrozen, func() { g.AddState(NewState("c", nil)) })
	assert.PanicsWithValue(t, ErrFrozen, func() { a.AddOnEntryAction(func(context.Context, *Session) error { return nil }) })
}

func TestFlowRef_Continuation(t *testing.T) {
	child := NewTemplate("child", func(g *CallFlow) error {
		g.AddState(NewState("only", nil))
		return nil
	})

	g := NewCallFlow("parent")
	ok := NewState("ok", Say(Text("done")))
	bad := NewState("bad", Say(Text("error")))
	ref := g.Embed("sub", child).AddTransition(EventSuccess, ok, nil).OnFailure(bad)
	g.AddStates(ok, bad)
	require.NoError(t, g.Freeze())

	assert.Same(t, ref, g.Entry())
	assert.Len(t, g.SubFlows(), 1)
	assert.Equal(t, child, ref.Target())

	tr, res := ResolveTransition(ref, EventFailed, errors.New("boom"))
	require.Equal(t, Matched, res)
	assert.Equal(t, "bad", tr.Target.ID())

	assert.Equal(t, []string{EventSuccess, EventFailed}, ref.Events())
}

func TestFlowRef_EmbedFirstBecomesEntry(t *testing.T) {
	child := NewTemplate("child", func(g *CallFlow) error {
		g.AddState(NewState("only", nil))
		return nil
	})

	g := NewCallFlow("parent")
	ref := g.Embed("sub", child)
	ask := NewState("ask", Ask(DigitsGrammar(1), Text("Press 1.")))
	ask.AddChoice(KeySelect, ref)
	g.AddState(ask)
	require.NoError(t, g.Freeze())
	assert.Same(t, ref, g.Entry(), "registration order decides the entry")

	g = NewCallFlow("parent")
	ref = g.Embed("sub", child)
	ask = NewState("ask", Ask(DigitsGrammar(1), Text("Press 1.")))
	ask.AddChoice(KeySelect, ref)
	g.AddState(ask)
	g.SetEntry(ask)
	require.NoError(t, g.Freeze())
	assert.Same(t, ask, g.Entry())
}

func TestVar_IsolatedPerSession(t *testing.T) {
	flow := NewTemplate("search", func(g *CallFlow) error {
		g.AddState(NewState("s", nil))
		return nil
	})
	dest := NewVar(flow, "destination")

	s1 := NewSession("1", "u")
	s2 := NewSession("2", "u")

	dest.Set(s1, "Prague")
	assert.Equal(t, "Prague", dest.Get(s1))
	_, ok := dest.Lookup(s2)
	assert.False(t, ok)

	typed, ok := ValueOf[string](s1, dest)
	assert.True(t, ok)
	assert.Equal(t, "Prague", typed)

	_, ok = ValueOf[int](s1, dest)
	assert.False(t, ok)

	s1.ResetVars("search")
	assert.Nil(t, dest.Get(s1))
}

func TestTemplate_BuiltOnce(t *testing.T) {
	var builds int32
	tpl := NewTemplate("static", func(g *CallFlow) error {
		atomic.AddInt32(&builds, 1)
		g.AddState(NewState("s", nil))
		return nil
	})

	g1, err := tpl.Create(context.Background(), NewSession("1", ""))
	require.NoError(t, err)
	g2, err := tpl.Create(context.Background(), NewSession("2", ""))
	require.NoError(t, err)

	assert.Same(t, g1, g2)
	assert.Equal(t, int32(1), builds)
	assert.True(t, g1.Frozen())
}

func TestTemplate_ResetVarsOnEntry(t *testing.T) {
	plain := NewTemplate("plain", nil)
	reset := NewTemplate("reset", nil).ResetVarsOnEntry()

	assert.False(t, plain.RefreshOnEntry())
	assert.True(t, reset.RefreshOnEntry())
}

func TestDataFlow_SplitsFetchAndBuild(t *testing.T) {
	flow := &DataFlow[[]string]{
		ID: "list",
		Fetch: func(ctx context.Context, s *Session) ([]string, error) {
			return []string{"a", "b", "c"}, nil
		},
		Build: func(g *CallFlow, items []string) error {
			for _, it := range items {
				g.AddState(NewState(it, nil))
			}
			return nil
		},
	}

	g, err := flow.Create(context.Background(), NewSession("1", ""))
	require.NoError(t, err)
	assert.Len(t, g.Vertices(), 3)

	failing := &DataFlow[int]{
		ID:    "broken",
		Fetch: func(context.Context, *Session) (int, error) { return 0, errors.New("db down") },
		Build: func(*CallFlow, int) error { return nil },
	}
	_, err = failing.Create(context.Background(), NewSession("1", ""))
	assert.EqualError(t, err, "db down")
}

func TestSession_Lookup(t *testing.T) {
	s := NewSession("1", "u")
	s.Set("user", map[string]any{"name": "Ada", "address": map[string]any{"city": "Brno"}})
	s.Set("plain.key", 7)

	v, ok := s.Lookup("user.name")
	assert.True(t, ok)
	assert.Equal(t, "Ada", v)
	assert.Equal(t, "Brno", s.Get("user.address.city"))
	assert.Equal(t, 7, s.Get("plain.key"))

	_, ok = s.Lookup("user.missing")
	assert.False(t, ok)
}

func TestSession_DeferReleasesInReverseOrder(t *testing.T) {
	s := NewSession("1", "")
	var order []int
	s.Defer(func() { order = append(order, 1) })
	s.Defer(func() { order = append(order, 2) })
	s.Release()
	s.Release()
	assert.Equal(t, []int{2, 1}, order)
}

func TestPrompt_Segments(t *testing.T) {
	flow := NewTemplate("f", nil)
	count := NewVar(flow, "count")
	s := NewSession("1", "")
	s.Set("user", map[string]any{"name": "Ada"})
	count.Set(s, 3)

	p := Say(Text("Hello "), DataText("user.name", ". "), VarText(count, " reservations."))
	model := p.CreateModel(s)
	require.NotNil(t, model)
	assert.Equal(t, "Hello Ada. 3 reservations.", model.Text())
	assert.False(t, model.ExpectsInput())

	assert.Nil(t, PassThrough.CreateModel(s))

	name := "Flight 100% full"
	model = Say(Plain(name), Text(" Price %d.", 120)).CreateModel(s)
	assert.Equal(t, "Flight 100% full Price 120.", model.Text())
}

func TestRoutingFault_Unwrap(t *testing.T) {
	cause := &ActionError{Flow: "f", State: "s", Err: errors.New("boom")}
	err := error(&RoutingFault{Flow: "f", State: "s", Event: EventFailed, Cause: cause})

	assert.ErrorIs(t, err, ErrNoMatchingTransition)
	var aerr *ActionError
	assert.ErrorAs(t, err, &aerr)
	assert.Contains(t, err.Error(), "boom")
}
