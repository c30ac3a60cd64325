// Package reservation holds the flight booking model consumed by the voice portal:
// flights and their legs, users, call history, and the filter and paging
// criteria understood by every ports.ReservationService implementation.
package reservation
