package portal

import (
	"context"
	"errors"
	"slices"
	"strconv"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/reservation"
)

// Keys of the filter selection menu.
const (
	keyFilterDestination = 1
	keyFilterTransfers   = 2
	keyFilterDays        = 3
	keyFilterArrival     = 4
	keyFilterFlight      = 5
)

func (p *Portal) newSearch() *domain.Template {
	return domain.NewTemplate("search", func(g *domain.CallFlow) error {
		var (
			destinations = g.Var("destinations")
			destination  = g.Var("destination")
			transfers    = g.Var("maxTransfers")
			days         = g.Var("days")
			arrival      = g.Var("arrivalDays")
			flightID     = g.Var("flightId")
			results      = g.Var("results")
			total        = g.Var("total")
		)

		welcome := domain.NewState("msg", domain.Say(domain.Text("Please enter some filtering criteria.")))

		loadDestinations := domain.NewState("loadDestinations", domain.PassThrough)
		loadDestinations.AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
			dests, err := p.destinations(ctx)
			if err != nil {
				return err
			}
			destinations.Set(s, dests)
			return nil
		})
		transfersInput := domain.NewState("transfersInput", domain.Ask(domain.DigitsGrammar(1),
			domain.Text("Enter the maximum number of transfers."),
		)).Capture(transfers)
		daysInput := domain.NewState("daysInput", domain.Ask(domain.DigitsGrammar(0),
			domain.Text("Enter the number of days within which the flight should depart."),
		)).Capture(days)
		arrivalInput := domain.NewState("arrivalInput", domain.Ask(domain.DigitsGrammar(0),
			domain.Text("Enter the number of days within which the flight should arrive."),
		)).Capture(arrival)
		flightInput := domain.NewState("flightInput", domain.Ask(domain.DigitsGrammar(0),
			domain.Text("Enter the flight number."),
		)).Capture(flightID)

		menu := domain.NewState("filterMenu", domain.Ask(domain.DigitsGrammar(1),
			domain.Text("To filter by destination, press %d. ", keyFilterDestination),
			domain.Text("To limit the number of transfers, press %d. ", keyFilterTransfers),
			domain.Text("To choose how soon the flight departs, press %d. ", keyFilterDays),
			domain.Text("To choose how soon the flight arrives, press %d. ", keyFilterArrival),
			domain.Text("To find a flight by its number, press %d.", keyFilterFlight),
		))
		another := domain.NewState("getAnotherFilterInput", domain.Ask(domain.DigitsGrammar(1),
			domain.Text("To add another filter, press 1. To search now, press 2."),
		))

		filter := domain.NewState("filterState", domain.PassThrough)
		filter.AddOnEntryAction(func(ctx context.Context, s *domain.Session) error {
			crit := p.criteria(s, destination, transfers, days, arrival)
			if id, ok := domain.ValueOf[string](s, flightID); ok && id != "" {
				f, err := p.service.FindByID(ctx, id)
				if err != nil {
					return err
				}
				var items []*reservation.Flight
				if crit.Matches(f, p.now()) {
					items = append(items, f)
				}
				results.Set(s, items)
				total.Set(s, len(items))
				return nil
			}
			page, err := p.service.Filter(ctx, crit, reservation.PageSort{
				Limit: p.pageSize,
				Sort:  "price",
				Dir:   reservation.Asc,
			})
			if err != nil {
				return err
			}
			results.Set(s, page.Items)
			total.Set(s, page.TotalCount)
			return nil
		})
		count := domain.NewState("resultsCount", domain.ModelFunc(func(s *domain.Session) *domain.Prompt {
			n, _ := domain.ValueOf[int](s, total)
			items, _ := domain.ValueOf[[]*reservation.Flight](s, results)
			text := "We found " + plural(n, "flight", "flights") + "."
			if n > len(items) {
				text += " The " + strconv.Itoa(len(items)) + " cheapest follow."
			}
			return &domain.Prompt{Kind: domain.PromptSay, Messages: []domain.Message{{Text: text}}}
		}))
		failure := domain.NewState("error", domain.Say(domain.Text("The search is not available right now. Going back to the main menu.")))
		notFound := domain.NewState("notFound", domain.Say(domain.Text("We could not find a flight with that number. Going back to the main menu.")))

		g.AddStates(welcome, menu, loadDestinations)
		selectDestination := g.Embed("destination", DestinationSelection("search.destination", destinations, destination))
		g.AddStates(transfersInput, daysInput, arrivalInput, flightInput, another, filter, count)
		list := g.Embed("results", p.ReservationsContainer("search.results", FromVar(results), ContainerOptions{CanMake: true}))
		g.AddStates(failure, notFound)

		welcome.Then(menu)
		menu.AddChoice(keyFilterDestination, loadDestinations).
			AddChoice(keyFilterTransfers, transfersInput).
			AddChoice(keyFilterDays, daysInput).
			AddChoice(keyFilterArrival, arrivalInput).
			AddChoice(keyFilterFlight, flightInput)
		loadDestinations.Then(selectDestination).OnFailure(failure)
		selectDestination.Then(another)
		transfersInput.Then(another)
		daysInput.Then(another)
		arrivalInput.Then(another)
		flightInput.Then(another)
		another.AddChoice(1, menu).AddChoice(2, filter)
		filter.Then(count).
			AddTransition(domain.EventFailed, notFound, isFlightNotFound).
			OnFailure(failure)
		count.Then(list)
		return nil
	}).ResetVarsOnEntry()
}

// criteria builds the flight filter from the inputs collected so far.
func (p *Portal) criteria(s *domain.Session, destination, transfers, days, arrival domain.Var) reservation.Filter {
	var f reservation.Filter
	if dest, ok := domain.ValueOf[string](s, destination); ok {
		f.ToDestination = dest
	}
	if raw, ok := domain.ValueOf[string](s, transfers); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			f.MaxTransfersCount = &n
		}
	}
	if raw, ok := domain.ValueOf[string](s, days); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			until := p.now().AddDate(0, 0, n)
			f.DepartureTimeTo = &until
		}
	}
	if raw, ok := domain.ValueOf[string](s, arrival); ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			until := p.now().AddDate(0, 0, n)
			f.ArrivalTimeTo = &until
		}
	}
	return f
}

func isFlightNotFound(result any) bool {
	err, _ := result.(error)
	return errors.Is(err, reservation.ErrFlightNotFound)
}

// destinations lists the distinct destinations of upcoming flights.
func (p *Portal) destinations(ctx context.Context) ([]string, error) {
	page, err := p.service.Filter(ctx, reservation.Filter{}, reservation.PageSort{})
	if err != nil {
		return nil, err
	}
	var dests []string
	for _, f := range page.Items {
		if !slices.Contains(dests, f.ToDestination) {
			dests = append(dests, f.ToDestination)
		}
	}
	slices.Sort(dests)
	return dests, nil
}
