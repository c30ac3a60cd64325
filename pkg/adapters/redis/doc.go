// Package redis provides Redis-backed adapters: the session snapshot store,
// the distributed locker used by the session manager, and the pub/sub
// notification publisher.
package redis
