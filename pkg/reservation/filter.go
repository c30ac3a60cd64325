package reservation

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Filter selects flights. Zero values disable a criterion.
type Filter struct {
	ID                  string     `json:"id,omitempty"`
	FromDestination     string     `json:"from_destination,omitempty"`
	ToDestination       string     `json:"to_destination,omitempty"`
	MaxTransfersCount   *int       `json:"max_transfers_count,omitempty"`
	DepartureTimeFrom   *time.Time `json:"departure_time_from,omitempty"`
	DepartureTimeTo     *time.Time `json:"departure_time_to,omitempty"`
	ArrivalTimeFrom     *time.Time `json:"arrival_time_from,omitempty"`
	ArrivalTimeTo       *time.Time `json:"arrival_time_to,omitempty"`
	TotalFlightDuration int        `json:"total_flight_duration,omitempty"`
	PriceFrom           int        `json:"price_from,omitempty"`
	PriceTo             int        `json:"price_to,omitempty"`
	// UserID restricts the result to flights reserved by the user.
	UserID string `json:"user_id,omitempty"`
}

// Matches reports whether the flight satisfies the filter at the given instant.
// Without DepartureTimeFrom only flights departing at or after now match.
func (f Filter) Matches(fl *Flight, now time.Time) bool {
	if f.ID != "" && fl.ID != f.ID {
		return false
	}
	if f.FromDestination != "" && fl.FromDestination != f.FromDestination {
		return false
	}
	if f.ToDestination != "" && fl.ToDestination != f.ToDestination {
		return false
	}
	if f.MaxTransfersCount != nil && fl.TransfersCount > *f.MaxTransfersCount {
		return false
	}
	from := now
	if f.DepartureTimeFrom != nil {
		from = *f.DepartureTimeFrom
	}
	if fl.DepartureTime.Before(from) {
		return false
	}
	if f.DepartureTimeTo != nil && fl.DepartureTime.After(*f.DepartureTimeTo) {
		return false
	}
	if f.ArrivalTimeFrom != nil && fl.ArrivalTime.Before(*f.ArrivalTimeFrom) {
		return false
	}
	if f.ArrivalTimeTo != nil && fl.ArrivalTime.After(*f.ArrivalTimeTo) {
		return false
	}
	if f.TotalFlightDuration > 0 && fl.TotalFlightDuration > f.TotalFlightDuration {
		return false
	}
	if f.PriceFrom > 0 && fl.Price < f.PriceFrom {
		return false
	}
	if f.PriceTo > 0 && fl.Price > f.PriceTo {
		return false
	}
	if f.UserID != "" && !fl.HasPassenger(f.UserID) {
		return false
	}
	return true
}

// SortDir is the direction of a sort.
type SortDir int

const (
	Asc  SortDir = 1
	Desc SortDir = -1
)

// PageSort pages and orders a query. Limit 0 means unbounded.
type PageSort struct {
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
	Sort   string  `json:"sort,omitempty"`
	Dir    SortDir `json:"dir,omitempty"`
}

// SortableFields lists the flight fields PageSort.Sort accepts.
var SortableFields = []string{"price", "departure_time", "arrival_time", "transfers_count", "total_flight_duration", "free_capacity"}

// Apply sorts and pages an already filtered slice in place and returns the page.
func (p PageSort) Apply(items []*Flight) []*Flight {
	if p.Sort != "" && p.Dir != 0 {
		key := strings.ToLower(p.Sort)
		slices.SortStableFunc(items, func(a, b *Flight) int {
			c := compareField(a, b, key)
			if p.Dir == Desc {
				return -c
			}
			return c
		})
	}
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return nil
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func compareField(a, b *Flight, key string) int {
	switch key {
	case "price":
		return cmp.Compare(a.Price, b.Price)
	case "departure_time":
		return a.DepartureTime.Compare(b.DepartureTime)
	case "arrival_time":
		return a.ArrivalTime.Compare(b.ArrivalTime)
	case "transfers_count":
		return cmp.Compare(a.TransfersCount, b.TransfersCount)
	case "total_flight_duration":
		return cmp.Compare(a.TotalFlightDuration, b.TotalFlightDuration)
	case "free_capacity":
		return cmp.Compare(a.FreeCapacity, b.FreeCapacity)
	}
	return 0
}
