package reservation

import (
	"slices"
	"time"
)

// PathPart is one leg of a flight.
type PathPart struct {
	FromDestination string    `json:"from_destination"`
	ToDestination   string    `json:"to_destination"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	Carrier         string    `json:"carrier,omitempty"`
}

// Flight is a bookable itinerary made of one or more legs.
type Flight struct {
	ID         string     `json:"id"`
	Path       []PathPart `json:"path"`
	Price      int        `json:"price"`
	Capacity   int        `json:"capacity"`
	Note       string     `json:"note,omitempty"`
	Passengers []string   `json:"passengers,omitempty"`

	// Computed by Normalize.
	FromDestination     string    `json:"from_destination"`
	ToDestination       string    `json:"to_destination"`
	DepartureTime       time.Time `json:"departure_time"`
	ArrivalTime         time.Time `json:"arrival_time"`
	FreeCapacity        int       `json:"free_capacity"`
	TransfersCount      int       `json:"transfers_count"`
	TotalFlightDuration int       `json:"total_flight_duration"` // minutes
}

// Normalize recomputes the derived fields from the path and passenger list.
func (f *Flight) Normalize() {
	if len(f.Path) == 0 {
		f.FromDestination, f.ToDestination = "", ""
		f.DepartureTime, f.ArrivalTime = time.Time{}, time.Time{}
		f.TransfersCount = 0
		f.TotalFlightDuration = 0
	} else {
		first, last := f.Path[0], f.Path[len(f.Path)-1]
		f.FromDestination = first.FromDestination
		f.DepartureTime = first.DepartureTime
		f.ToDestination = last.ToDestination
		f.ArrivalTime = last.ArrivalTime
		f.TransfersCount = len(f.Path) - 1
		f.TotalFlightDuration = int(f.ArrivalTime.Sub(f.DepartureTime).Minutes())
	}
	f.FreeCapacity = f.Capacity - len(f.Passengers)
}

// HasPassenger reports whether the user holds a reservation on the flight.
func (f *Flight) HasPassenger(userID string) bool {
	return slices.Contains(f.Passengers, userID)
}

// AddPassenger books the flight for the user.
func (f *Flight) AddPassenger(userID string) error {
	if f.HasPassenger(userID) {
		return ErrAlreadyReserved
	}
	if f.Capacity-len(f.Passengers) <= 0 {
		return ErrFullyBooked
	}
	f.Passengers = append(f.Passengers, userID)
	f.Normalize()
	return nil
}

// RemovePassenger cancels the user's reservation.
func (f *Flight) RemovePassenger(userID string) error {
	idx := slices.Index(f.Passengers, userID)
	if idx < 0 {
		return ErrNotReserved
	}
	f.Passengers = slices.Delete(f.Passengers, idx, idx+1)
	f.Normalize()
	return nil
}

// Clone returns a deep copy of the flight.
func (f *Flight) Clone() *Flight {
	cp := *f
	cp.Path = slices.Clone(f.Path)
	cp.Passengers = slices.Clone(f.Passengers)
	return &cp
}

// FlightPage is one page of a filtered query.
type FlightPage struct {
	Items      []*Flight `json:"items"`
	TotalCount int       `json:"total_count"`
}
