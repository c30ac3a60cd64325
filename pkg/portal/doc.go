/*
Package portal implements the flight reservation voice portal as call flows.

A call starts in Root: the caller is identified and greeted, then the main
menu offers three sub-flows:

  - ListActive reads the upcoming reservations and lets the caller cancel them.
  - Search collects filter criteria (destination, transfers, departure window)
    and lets the caller book one of the cheapest matching flights.
  - CancelAllReservations cancels every reservation after confirmation.

Lists are browsed with the shared keypad vocabulary: 1 selects, 2 and 3 move
to the previous and next item, 4 repeats and 5 leaves.

Compose Hooks into the engine to close call history items when calls end.
*/
package portal
