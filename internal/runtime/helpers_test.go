package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/switchboard/pkg/domain"
)

var errHangup = errors.New("caller hung up")

// scriptRenderer answers Ask prompts from a fixed list of key presses and
// hangs up once the script is exhausted.
type scriptRenderer struct {
	mu      sync.Mutex
	inputs  []string
	prompts []string
	log     *[]string
}

func newScript(inputs ...string) *scriptRenderer {
	return &scriptRenderer{inputs: inputs}
}

func (r *scriptRenderer) Render(ctx context.Context, sessionID string, p domain.Prompt) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, p.Text())
	if r.log != nil {
		*r.log = append(*r.log, "render:"+p.Text())
	}
	if !p.ExpectsInput() {
		return "", nil
	}
	if len(r.inputs) == 0 {
		return "", errHangup
	}
	in := r.inputs[0]
	r.inputs = r.inputs[1:]
	return in, nil
}

func (r *scriptRenderer) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prompts...)
}

// listFlow builds one Ask state per item with previous/next/exit navigation.
// Previous is not wired on the first item.
func listFlow(items []string) *domain.DataFlow[[]string] {
	return &domain.DataFlow[[]string]{
		ID: "list",
		Fetch: func(ctx context.Context, s *domain.Session) ([]string, error) {
			return items, nil
		},
		Build: func(g *domain.CallFlow, items []string) error {
			bye := domain.NewState("bye", domain.Say(domain.Text("Goodbye.")))
			if len(items) == 0 {
				g.AddState(domain.NewState("noItems", domain.Say(domain.Text("Nothing to list."))))
				return nil
			}
			states := make([]*domain.State, len(items))
			for i, it := range items {
				states[i] = domain.NewState(fmt.Sprintf("item_%d", i), domain.Ask(domain.DigitsGrammar(1), domain.Plain(it)))
			}
			for i, st := range states {
				if i > 0 {
					st.AddChoice(domain.KeyPrevious, states[i-1])
				}
				if i < len(states)-1 {
					st.AddChoice(domain.KeyNext, states[i+1])
				}
				st.AddChoice(domain.KeyExit, bye)
				g.AddState(st)
			}
			g.AddState(bye)
			return nil
		},
	}
}
