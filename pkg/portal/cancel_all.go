package portal

import (
	"context"
	"fmt"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reservation"
)

func (p *Portal) newCancelAll() domain.Flow {
	return &domain.DataFlow[[]*reservation.Flight]{
		ID:      "cancelAll",
		Refresh: true,
		Fetch:   p.upcoming,
		Build: func(g *domain.CallFlow, flights []*reservation.Flight) error {
			if len(flights) == 0 {
				g.AddState(domain.NewState("noReservations", domain.Say(domain.Text("There are no active reservations."))))
				return nil
			}

			ask := domain.NewState("ask", domain.Ask(domain.DigitsGrammar(1), domain.Text(
				"You have %s. To cancel all of them, press 1. To keep them, press 2.",
				plural(len(flights), "active reservation", "active reservations"),
			)))
			cancelAll := domain.NewState("cancelAll", domain.PassThrough).Completes(domain.EventSuccess)
			cancelAll.AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
				return p.cancelEach(ctx, s.UserID, flights)
			})
			cancelOk := domain.NewState("cancelOk", domain.Say(domain.Text("Your reservations were cancelled.")))
			cancelError := domain.NewState("cancelError", domain.Say(domain.Text("There was an error while cancelling reservations. Please try it again.")))
			final := domain.NewState("finalState", domain.Say(domain.Text("No reservations were cancelled. Going back to the main menu.")))

			ask.AddChoice(1, cancelAll).AddChoice(2, final)
			cancelAll.AddTransition(domain.EventSuccess, cancelOk, nil).OnFailure(cancelError)

			g.AddStates(ask, cancelAll, cancelOk, cancelError, final)
			return nil
		},
	}
}

// cancelEach stops at the first failure; reservations cancelled before it stay cancelled.
func (p *Portal) cancelEach(ctx context.Context, userID string, flights []*reservation.Flight) error {
	cancelled := 0
	defer func() {
		if cancelled > 0 {
			p.notifier.Notify(ctx, ports.EventFlightChanged)
		}
	}()
	for _, f := range flights {
		if _, err := p.service.CancelReservation(ctx, f.ID, userID); err != nil {
			return fmt.Errorf("cancel %s: %w", f.ID, err)
		}
		cancelled++
	}
	p.logger.Info("cancelled all reservations", "user_id", userID, "count", cancelled)
	return nil
}
