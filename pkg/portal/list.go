package portal

import (
	"context"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/reservation"
)

func (p *Portal) newListActive() domain.Flow {
	container := p.ReservationsContainer("listActive.reservations", p.upcoming, ContainerOptions{CanCancel: true})
	return &domain.DataFlow[[]*reservation.Flight]{
		ID:      "listActive",
		Refresh: true,
		Fetch:   p.upcoming,
		Build: func(g *domain.CallFlow, flights []*reservation.Flight) error {
			if len(flights) == 0 {
				g.AddState(domain.NewState("noReservations", domain.Say(domain.Text("There are no active reservations."))))
				return nil
			}
			count := domain.NewState("reservationsCount", domain.Say(domain.Text(
				"You have %s. List follows.", plural(len(flights), "active reservation", "active reservations"),
			)))
			g.AddState(count)
			count.Then(g.Embed("reservations", container))
			return nil
		},
	}
}

func (p *Portal) upcoming(ctx context.Context, s *domain.Session) ([]*reservation.Flight, error) {
	return p.service.ListReservations(ctx, s.UserID)
}
