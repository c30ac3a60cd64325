package portal

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
)

func (p *Portal) newDashboard() *domain.Template {
	return domain.NewTemplate("portal", func(g *domain.CallFlow) error {
		greeting := domain.NewState("dashboard", domain.Say(
			domain.Text("Hello, "),
			domain.DataText(KeyUser+".firstName", " "),
			domain.DataText(KeyUser+".lastName", "."),
		))
		greeting.AddOnEntryAction(p.identify)
		g.AddState(greeting)

		listActive := g.Embed("listActive", p.listActive)
		search := g.Embed("search", p.search)
		cancelAll := g.Embed("cancelAll", p.cancelAll)

		goodbye := domain.NewState("goodbye", domain.Say(domain.Text("Thank you for calling. Goodbye.")))
		unknown := domain.NewState("unknownCaller", domain.Say(domain.Text("We could not identify your account. Goodbye.")))
		failure := domain.NewState("error", domain.Say(domain.Text("An error occurred. Going back to the main menu.")))
		menu := NewMenuState("mainMenu", []MenuItem{
			{Prompt: "To list your active reservations", Target: listActive},
			{Prompt: "To search for a new flight", Target: search},
			{Prompt: "To cancel all your reservations", Target: cancelAll},
		}, goodbye)

		greeting.Then(menu).OnFailure(unknown)
		for _, ref := range []*domain.FlowRef{listActive, search, cancelAll} {
			ref.Then(menu).OnFailure(failure)
		}
		failure.Then(menu)

		g.AddStates(menu, failure, goodbye, unknown)
		return nil
	})
}

// identify loads the caller and opens the call history item.
func (p *Portal) identify(ctx context.Context, s *domain.Session) error {
	user, err := p.service.FindUser(ctx, s.UserID)
	if err != nil {
		return err
	}
	s.Set(KeyUser, map[string]any{
		"id":        user.ID,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	})

	if !p.history {
		return nil
	}
	item, err := p.service.InsertCallHistoryItem(ctx, s.ID, user.ID, p.now())
	if err != nil {
		// History is bookkeeping; the call goes on without it.
		p.logger.Warn("failed to record call history", "session_id", s.ID, "error", err)
		return nil
	}
	s.Set(KeyCallHistory, item.ID)
	return nil
}
