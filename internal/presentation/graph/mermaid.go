package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
// Ids are qualified as "flow/state", the form recorded in session history.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of a built call flow.
// It applies semantic styling:
// - Entry: ((Circle))
// - Sub-flow reference: [[Subroutine]]
// - Ask (collects input): [/Parallelogram/]
// - Pass-through: {{Hexagon}}
// - Default: [Rectangle]
// Keypad choices are labelled with their key, failure edges are dotted.
func GenerateMermaid(g *domain.CallFlow, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	sample := domain.NewSession("graph", "")
	for _, v := range g.Vertices() {
		safeID := sanitizeMermaidID(v.ID())
		opener, closer := shape(v, sample)
		if v == g.Entry() {
			opener, closer = "((", "))"
		}
		label := v.ID()
		if ref, ok := v.(*domain.FlowRef); ok && ref.Target() != nil {
			label = fmt.Sprintf("%s <br/> %s", v.ID(), ref.Target().Name())
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, t := range domain.AllTransitions(v) {
			if t.Target == nil {
				continue
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow(t), sanitizeMermaidID(t.Target.ID()))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			local, ok := localID(g, id)
			if !ok || seen[local] {
				continue
			}
			seen[local] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID(local))
		}
		if local, ok := localID(g, overlay.CurrentNode); ok {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(local))
		}
	}

	return sb.String()
}

func shape(v domain.Vertex, sample *domain.Session) (string, string) {
	st, ok := v.(*domain.State)
	if !ok {
		return "[[", "]]"
	}
	p := model(st, sample)
	switch {
	case p == nil:
		return "{{", "}}"
	case p.ExpectsInput():
		return "[/", "/]"
	}
	return "[", "]"
}

// model builds the prompt against an empty session; behaviors reading
// session data they expect to exist are drawn as plain states.
func model(st *domain.State, sample *domain.Session) (p *domain.Prompt) {
	defer func() {
		if recover() != nil {
			p = &domain.Prompt{Kind: domain.PromptSay}
		}
	}()
	return st.CreateModel(sample)
}

func arrow(t domain.Transition) string {
	label := t.Label
	if t.Event != domain.EventContinue {
		if label != "" {
			label = t.Event + ": " + label
		} else {
			label = t.Event
		}
	}
	label = strings.ReplaceAll(label, "\"", "'")

	if t.Event == domain.EventFailed {
		return fmt.Sprintf("-. \"%s\" .->", label)
	}
	if label == "" {
		return "-->"
	}
	return fmt.Sprintf("-- \"%s\" -->", label)
}

// localID maps a qualified history id onto a vertex of g.
func localID(g *domain.CallFlow, qualified string) (string, bool) {
	id, ok := strings.CutPrefix(qualified, g.Name()+"/")
	if !ok {
		return "", false
	}
	if _, exists := g.Vertex(id); !exists {
		return "", false
	}
	return id, true
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
