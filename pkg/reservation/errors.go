package reservation

import "errors"

var (
	// ErrFlightNotFound is returned when no flight has the requested id.
	ErrFlightNotFound = errors.New("flight not found")
	// ErrUserNotFound is returned when no user has the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrAlreadyReserved is returned when booking a flight the user already holds.
	ErrAlreadyReserved = errors.New("reservation already exists")
	// ErrFullyBooked is returned when a flight has no free capacity.
	ErrFullyBooked = errors.New("flight is fully booked")
	// ErrNotReserved is returned when cancelling a reservation that does not exist.
	ErrNotReserved = errors.New("reservation does not exist")
	// ErrHistoryNotFound is returned when finishing an unknown call history item.
	ErrHistoryNotFound = errors.New("call history item not found")
)
