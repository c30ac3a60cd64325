/*
Package ports defines the driven ports (interfaces) of the switchboard engine.

These interfaces decouple the dialog engine and the portal flows from external
implementations: the audio layer, the persistence service, notification delivery
and session storage.

# Key Interfaces

  - Renderer: presents a prompt model and returns the raw input symbol.
  - ReservationService: asynchronous CRUD over flights, reservations and call history.
  - Publisher: fire-and-forget notification delivery (see FireAndForget).
  - SessionStore: persists session snapshots (memory or Redis).
  - DistributedLocker: coordinates access to a session across replicas.
*/
package ports
