// Package sqlite implements the reservation service on an embedded SQLite
// database (modernc.org/sqlite, no cgo).
package sqlite
