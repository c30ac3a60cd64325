package portal

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DestinationSelection reads the destinations held in source one by one and
// stores the one selected with key 1 into target, a var of the enclosing flow.
func DestinationSelection(name string, source, target domain.Var) domain.Flow {
	return &domain.DataFlow[[]string]{
		ID:      name,
		Refresh: true,
		Fetch: func(ctx context.Context, s *domain.Session) ([]string, error) {
			dests, _ := domain.ValueOf[[]string](s, source)
			return dests, nil
		},
		Build: func(g *domain.CallFlow, dests []string) error {
			if len(dests) == 0 {
				g.AddState(domain.NewState("noItems", domain.Say(domain.Text("We found no destinations."))))
				return nil
			}
			current := g.Var("current")

			total := domain.NewState("totalItems", domain.Say(domain.Text(
				"We found %s. To select a destination, press %d. To go to the previous one, press %d. To go to the next one, press %d.",
				plural(len(dests), "destination", "destinations"), domain.KeySelect, domain.KeyPrevious, domain.KeyNext,
			)))
			selection := domain.NewState("selection", domain.Say(domain.Text("You selected "), domain.VarText(target, ".")))
			selection.AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
				target.Set(s, current.Get(s))
				return nil
			})

			states := make([]*domain.State, len(dests))
			for i, dest := range dests {
				states[i] = domain.NewState(fmt.Sprintf("destination_%d", i), domain.Ask(domain.DigitsGrammar(1), domain.Plain(dest)))
				states[i].AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
					current.Set(s, dest)
					return nil
				})
			}
			total.Then(states[0])
			for i, st := range states {
				st.AddChoice(domain.KeySelect, selection)
				if i > 0 {
					st.AddChoice(domain.KeyPrevious, states[i-1])
				}
				if i < len(states)-1 {
					st.AddChoice(domain.KeyNext, states[i+1])
				}
			}

			g.AddState(total).AddStates(states...).AddState(selection)
			return nil
		},
	}
}
