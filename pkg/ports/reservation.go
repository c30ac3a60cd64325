package ports

import (
	"context"
	"time"

	"github.com/aretw0/switchboard/pkg/reservation"
)

// ReservationService is the persistence service consumed by the portal flows.
// Every failure is reported as an error; callers never retry.
type ReservationService interface {
	// FindByID returns reservation.ErrFlightNotFound when the flight does not exist.
	FindByID(ctx context.Context, flightID string) (*reservation.Flight, error)
	Filter(ctx context.Context, filter reservation.Filter, page reservation.PageSort) (reservation.FlightPage, error)
	AddReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error)
	CancelReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error)
	// ListReservations returns the upcoming flights reserved by the user.
	ListReservations(ctx context.Context, userID string) ([]*reservation.Flight, error)

	InsertCallHistoryItem(ctx context.Context, sessionID, userID string, start time.Time) (*reservation.CallHistoryItem, error)
	FinishCallHistoryItem(ctx context.Context, id string, end time.Time) error

	FindUser(ctx context.Context, userID string) (*reservation.User, error)
}
