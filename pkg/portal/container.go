package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/reservation"
)

// Keys of the per-flight reservation menu.
const (
	keyCancelReservation = 1
	keyBack              = 2
	keyMakeReservation   = 3
)

// ContainerOptions configures a reservations container.
type ContainerOptions struct {
	// ReturnMessage is played when the caller leaves the list.
	ReturnMessage string
	CanCancel     bool
	CanMake       bool
}

// FlightSource fetches the flights a container presents.
type FlightSource func(ctx context.Context, s *domain.Session) ([]*reservation.Flight, error)

// FromVar reads the flights from a var set by an enclosing flow.
func FromVar(v domain.Var) FlightSource {
	return func(ctx context.Context, s *domain.Session) ([]*reservation.Flight, error) {
		flights, _ := domain.ValueOf[[]*reservation.Flight](s, v)
		return flights, nil
	}
}

// ReservationsContainer lets the caller browse flights one by one: 1 opens the
// reservation menu, 2 and 3 move to the previous and next flight, 4 repeats and
// 5 leaves. The flow is rebuilt on every entry.
func (p *Portal) ReservationsContainer(name string, source FlightSource, opts ContainerOptions) domain.Flow {
	if opts.ReturnMessage == "" {
		opts.ReturnMessage = "Going back to the main menu."
	}
	return &domain.DataFlow[[]*reservation.Flight]{
		ID:      name,
		Refresh: true,
		Fetch:   source,
		Build: func(g *domain.CallFlow, flights []*reservation.Flight) error {
			p.buildContainer(g, flights, opts)
			return nil
		},
	}
}

func (p *Portal) buildContainer(g *domain.CallFlow, flights []*reservation.Flight, opts ContainerOptions) {
	if len(flights) == 0 {
		g.AddState(domain.NewState("noItems", domain.Say(domain.Text("We found no flights."))))
		return
	}

	exit := domain.NewState("exit", domain.Say(domain.Plain(opts.ReturnMessage)))
	hasMenu := opts.CanCancel || opts.CanMake

	items := make([]*domain.State, len(flights))
	for i, f := range flights {
		items[i] = domain.NewState(fmt.Sprintf("item_%d", i), domain.Ask(domain.DigitsGrammar(1),
			domain.Plain(describeFlight(i, len(flights), f)),
			domain.Plain(navigationHelp(i, len(flights), hasMenu)),
		))
	}
	g.AddStates(items...)

	var outcomes []*domain.State
	cancelOk := domain.NewState("cancelOk", domain.Say(domain.Text("Your reservation was cancelled.")))
	cancelError := domain.NewState("cancelError", domain.Say(domain.Text("There was an error while cancelling the reservation. Please try it again.")))
	makeOk := domain.NewState("makeOk", domain.Say(domain.Text("Your flight was booked.")))
	makeError := domain.NewState("makeError", domain.Say(domain.Text("There was an error while booking the flight. Please try it again.")))
	if opts.CanCancel {
		outcomes = append(outcomes, cancelOk, cancelError)
	}
	if opts.CanMake {
		outcomes = append(outcomes, makeOk, makeError)
	}

	for i, item := range items {
		if hasMenu {
			menu := domain.NewState(fmt.Sprintf("menu_%d", i), domain.Ask(domain.DigitsGrammar(1),
				domain.Plain(menuHelp(opts)),
			))
			if opts.CanCancel {
				ref := g.Embed(fmt.Sprintf("cancel_%d", i), p.cancelReservation(flights[i].ID))
				ref.AddTransition(domain.EventSuccess, cancelOk, nil).OnFailure(cancelError)
				menu.AddChoice(keyCancelReservation, ref)
			}
			if opts.CanMake {
				ref := g.Embed(fmt.Sprintf("make_%d", i), p.makeReservation(flights[i].ID))
				ref.AddTransition(domain.EventSuccess, makeOk, nil).OnFailure(makeError)
				menu.AddChoice(keyMakeReservation, ref)
			}
			menu.AddChoice(keyBack, item)
			g.AddState(menu)
			item.AddChoice(domain.KeySelect, menu)
		}
		if i > 0 {
			item.AddChoice(domain.KeyPrevious, items[i-1])
		}
		if i < len(items)-1 {
			item.AddChoice(domain.KeyNext, items[i+1])
		}
		item.AddChoice(domain.KeyRepeat, item)
		item.AddChoice(domain.KeyExit, exit)
	}

	for _, st := range outcomes {
		st.Then(exit)
	}
	g.AddStates(outcomes...)
	g.AddState(exit)
}

// reservationAction is a one-state flow running fn on entry. It returns
// success, or failed with the error of fn.
func reservationAction(name string, fn domain.EntryFunc) domain.Flow {
	return domain.NewTemplate(name, func(g *domain.CallFlow) error {
		st := domain.NewState("run", domain.PassThrough).Completes(domain.EventSuccess)
		st.AddOnEntryAction(fn)
		g.AddState(st)
		return nil
	})
}

func (p *Portal) cancelReservation(flightID string) domain.Flow {
	return reservationAction("cancelReservation:"+flightID, func(ctx context.Context, s *domain.Session) error {
		p.logger.Info("cancelling reservation", "user_id", s.UserID, "flight_id", flightID)
		if _, err := p.service.CancelReservation(ctx, flightID, s.UserID); err != nil {
			return err
		}
		p.notifier.Notify(ctx, ports.EventFlightChanged)
		return nil
	})
}

func (p *Portal) makeReservation(flightID string) domain.Flow {
	return reservationAction("makeReservation:"+flightID, func(ctx context.Context, s *domain.Session) error {
		p.logger.Info("making reservation", "user_id", s.UserID, "flight_id", flightID)
		if _, err := p.service.AddReservation(ctx, flightID, s.UserID); err != nil {
			return err
		}
		p.notifier.Notify(ctx, ports.EventFlightChanged)
		return nil
	})
}

func describeFlight(i, n int, f *reservation.Flight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Flight %d of %d. From %s to %s, departing %s", i+1, n,
		f.FromDestination, f.ToDestination, f.DepartureTime.Format("Monday, 2 January at 15:04"))
	if f.TransfersCount > 0 {
		fmt.Fprintf(&b, " with %s", plural(f.TransfersCount, "transfer", "transfers"))
	}
	fmt.Fprintf(&b, ". Price %d, %s left. ", f.Price, plural(f.FreeCapacity, "seat", "seats"))
	return b.String()
}

func navigationHelp(i, n int, hasMenu bool) string {
	var parts []string
	if hasMenu {
		parts = append(parts, fmt.Sprintf("For the reservation menu, press %d.", domain.KeySelect))
	}
	if i > 0 {
		parts = append(parts, fmt.Sprintf("For the previous flight, press %d.", domain.KeyPrevious))
	}
	if i < n-1 {
		parts = append(parts, fmt.Sprintf("For the next flight, press %d.", domain.KeyNext))
	}
	parts = append(parts,
		fmt.Sprintf("To repeat, press %d.", domain.KeyRepeat),
		fmt.Sprintf("To go back, press %d.", domain.KeyExit),
	)
	return strings.Join(parts, " ")
}

func menuHelp(opts ContainerOptions) string {
	var parts []string
	if opts.CanCancel {
		parts = append(parts, fmt.Sprintf("To cancel this reservation, press %d.", keyCancelReservation))
	}
	if opts.CanMake {
		parts = append(parts, fmt.Sprintf("To book this flight, press %d.", keyMakeReservation))
	}
	parts = append(parts, fmt.Sprintf("To go back, press %d.", keyBack))
	return strings.Join(parts, " ")
}
