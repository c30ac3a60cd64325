package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func menuFlow(t *testing.T) *domain.CallFlow {
	t.Helper()
	sub := domain.NewTemplate("cancel-reservation", func(g *domain.CallFlow) error {
		g.AddState(domain.NewState("run", nil))
		return nil
	})
	g, err := domain.BuildFlow("menu", func(g *domain.CallFlow) error {
		ask := domain.NewState("choose", domain.Ask(domain.DigitsGrammar(1), domain.Text("Press 1 to cancel.")))
		ok := domain.NewState("cancel.ok", domain.Say(domain.Text("Done.")))
		bad := domain.NewState("cancelError", domain.Say(domain.Text("Failed.")))
		route := domain.NewState("route", nil)
		ref := g.Embed("cancel", sub).AddTransition(domain.EventSuccess, ok, nil).OnFailure(bad)
		ask.AddChoice(domain.KeySelect, ref)
		ask.AddChoice(domain.KeyExit, route)
		route.Then(ok)
		g.AddStates(ask, ok, bad, route)
		g.SetEntry(ask)
		return nil
	})
	require.NoError(t, err)
	return g
}

func TestGenerateMermaid_Shapes(t *testing.T) {
	out := graph.GenerateMermaid(menuFlow(t), nil)

	assert.Contains(t, out, "graph TD\n")
	assert.Contains(t, out, `choose(("choose"))`, "entry is a circle")
	assert.Contains(t, out, `cancel[["cancel <br/> cancel-reservation"]]`)
	assert.Contains(t, out, `cancel_ok["cancel.ok"]`)
	assert.Contains(t, out, `route{{"route"}}`)
	assert.NotContains(t, out, "Overlay")
}

func TestGenerateMermaid_Edges(t *testing.T) {
	out := graph.GenerateMermaid(menuFlow(t), nil)

	assert.Contains(t, out, `choose -- "1" --> cancel`)
	assert.Contains(t, out, `choose -- "5" --> route`)
	assert.Contains(t, out, `cancel -- "success" --> cancel_ok`)
	assert.Contains(t, out, `cancel -. "failed" .-> cancelError`)
	assert.Contains(t, out, "route --> cancel_ok")
}

func TestGenerateMermaid_AskShape(t *testing.T) {
	g, err := domain.BuildFlow("pin", func(g *domain.CallFlow) error {
		start := domain.NewState("start", domain.Say(domain.Text("Welcome.")))
		ask := domain.NewState("ask", domain.Ask(domain.DigitsGrammar(4), domain.Text("Enter PIN.")))
		start.Then(ask)
		g.AddStates(start, ask)
		return nil
	})
	require.NoError(t, err)

	out := graph.GenerateMermaid(g, nil)
	assert.Contains(t, out, `ask[/"ask"/]`)
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(menuFlow(t), &graph.GraphOverlay{
		VisitedNodes: []string{"menu/choose", "menu/choose", "other/choose", "menu/missing", "menu/route"},
		CurrentNode:  "menu/cancel.ok",
	})

	assert.Contains(t, out, "classDef visited")
	assert.Contains(t, out, "class choose visited;")
	assert.Contains(t, out, "class route visited;")
	assert.Contains(t, out, "class cancel_ok current;")
	assert.NotContains(t, out, "class missing")
	assert.Equal(t, 1, strings.Count(out, "class choose visited;"))
}

func TestGenerateMermaid_TemplateInstance(t *testing.T) {
	tmpl := domain.NewTemplate("hello", func(g *domain.CallFlow) error {
		g.AddState(domain.NewState("hi", domain.Say(domain.Text("Hi."))))
		return nil
	})
	g, err := tmpl.Create(context.Background(), domain.NewSession("s", "u"))
	require.NoError(t, err)
	assert.Contains(t, graph.GenerateMermaid(g, nil), `hi(("hi"))`)
}
