package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/switchboard/pkg/reservation"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("reservation store is closed")

const schema = `
CREATE TABLE IF NOT EXISTS flights (
	id TEXT PRIMARY KEY,
	price INTEGER NOT NULL,
	capacity INTEGER NOT NULL,
	note TEXT NOT NULL DEFAULT '',
	path BLOB NOT NULL,
	from_destination TEXT NOT NULL,
	to_destination TEXT NOT NULL,
	departure_time INTEGER NOT NULL,
	arrival_time INTEGER NOT NULL,
	transfers_count INTEGER NOT NULL,
	total_flight_duration INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_flights_departure ON flights(departure_time);
CREATE TABLE IF NOT EXISTS passengers (
	flight_id TEXT NOT NULL REFERENCES flights(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (flight_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_passengers_user ON passengers(user_id);
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS call_history (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	start_time INTEGER NOT NULL,
	end_time INTEGER
);
`

// sortColumns whitelists PageSort.Sort values.
var sortColumns = map[string]string{
	"price":                 "f.price",
	"departure_time":        "f.departure_time",
	"arrival_time":          "f.arrival_time",
	"transfers_count":       "f.transfers_count",
	"total_flight_duration": "f.total_flight_duration",
	"free_capacity":         "free_capacity",
}

const selectFlight = `
	SELECT f.id, f.price, f.capacity, f.note, f.path,
		(SELECT group_concat(p.user_id) FROM passengers p WHERE p.flight_id = f.id) AS passengers,
		f.capacity - (SELECT COUNT(*) FROM passengers p WHERE p.flight_id = f.id) AS free_capacity
	FROM flights f`

// Reservations implements ports.ReservationService on SQLite.
type Reservations struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	now    func() time.Time
}

// Open opens (and migrates) the database at path; ":memory:" is supported for tests.
func Open(path string) (*Reservations, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Reservations{db: db, now: time.Now}, nil
}

// SaveFlight inserts or replaces a flight together with its passengers.
func (r *Reservations) SaveFlight(ctx context.Context, f *reservation.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	cp := f.Clone()
	cp.Normalize()
	path, err := json.Marshal(cp.Path)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}

	return r.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flights (id, price, capacity, note, path, from_destination, to_destination,
				departure_time, arrival_time, transfers_count, total_flight_duration)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				price = excluded.price, capacity = excluded.capacity, note = excluded.note,
				path = excluded.path, from_destination = excluded.from_destination,
				to_destination = excluded.to_destination, departure_time = excluded.departure_time,
				arrival_time = excluded.arrival_time, transfers_count = excluded.transfers_count,
				total_flight_duration = excluded.total_flight_duration
		`, cp.ID, cp.Price, cp.Capacity, cp.Note, path, cp.FromDestination, cp.ToDestination,
			cp.DepartureTime.UnixMilli(), cp.ArrivalTime.UnixMilli(), cp.TransfersCount, cp.TotalFlightDuration); err != nil {
			return fmt.Errorf("save flight: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE flight_id = ?`, cp.ID); err != nil {
			return fmt.Errorf("reset passengers: %w", err)
		}
		for _, userID := range cp.Passengers {
			if _, err := tx.ExecContext(ctx, `INSERT INTO passengers (flight_id, user_id) VALUES (?, ?)`, cp.ID, userID); err != nil {
				return fmt.Errorf("save passenger: %w", err)
			}
		}
		return nil
	})
}

// SaveUser inserts or replaces a user.
func (r *Reservations) SaveUser(ctx context.Context, u *reservation.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, phone) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET first_name = excluded.first_name,
			last_name = excluded.last_name, phone = excluded.phone
	`, u.ID, u.FirstName, u.LastName, u.Phone)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *Reservations) FindByID(ctx context.Context, flightID string) (*reservation.Flight, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	return r.findByID(ctx, r.db, flightID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Reservations) findByID(ctx context.Context, q querier, flightID string) (*reservation.Flight, error) {
	f, err := scanFlight(q.QueryRowContext(ctx, selectFlight+` WHERE f.id = ?`, flightID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find flight: %w", err)
	}
	return f, nil
}

func (r *Reservations) Filter(ctx context.Context, filter reservation.Filter, page reservation.PageSort) (reservation.FlightPage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return reservation.FlightPage{}, ErrClosed
	}

	where, args := r.where(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights f`+where, args...).Scan(&total); err != nil {
		return reservation.FlightPage{}, fmt.Errorf("count flights: %w", err)
	}

	query := selectFlight + where
	if col, ok := sortColumns[strings.ToLower(page.Sort)]; ok && page.Dir != 0 {
		dir := "ASC"
		if page.Dir == reservation.Desc {
			dir = "DESC"
		}
		query += " ORDER BY " + col + " " + dir + ", f.id"
	} else {
		query += " ORDER BY f.rowid"
	}
	if page.Limit > 0 || page.Offset > 0 {
		limit := page.Limit
		if limit <= 0 {
			limit = -1
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, page.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return reservation.FlightPage{}, fmt.Errorf("filter flights: %w", err)
	}
	defer rows.Close()

	out := reservation.FlightPage{TotalCount: total}
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return reservation.FlightPage{}, fmt.Errorf("scan flight: %w", err)
		}
		out.Items = append(out.Items, f)
	}
	if err := rows.Err(); err != nil {
		return reservation.FlightPage{}, fmt.Errorf("iterate flights: %w", err)
	}
	return out, nil
}

func (r *Reservations) where(f reservation.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if f.ID != "" {
		add("f.id = ?", f.ID)
	}
	if f.FromDestination != "" {
		add("f.from_destination = ?", f.FromDestination)
	}
	if f.ToDestination != "" {
		add("f.to_destination = ?", f.ToDestination)
	}
	if f.MaxTransfersCount != nil {
		add("f.transfers_count <= ?", *f.MaxTransfersCount)
	}
	from := r.now()
	if f.DepartureTimeFrom != nil {
		from = *f.DepartureTimeFrom
	}
	add("f.departure_time >= ?", from.UnixMilli())
	if f.DepartureTimeTo != nil {
		add("f.departure_time <= ?", f.DepartureTimeTo.UnixMilli())
	}
	if f.ArrivalTimeFrom != nil {
		add("f.arrival_time >= ?", f.ArrivalTimeFrom.UnixMilli())
	}
	if f.ArrivalTimeTo != nil {
		add("f.arrival_time <= ?", f.ArrivalTimeTo.UnixMilli())
	}
	if f.TotalFlightDuration > 0 {
		add("f.total_flight_duration <= ?", f.TotalFlightDuration)
	}
	if f.PriceFrom > 0 {
		add("f.price >= ?", f.PriceFrom)
	}
	if f.PriceTo > 0 {
		add("f.price <= ?", f.PriceTo)
	}
	if f.UserID != "" {
		add("EXISTS (SELECT 1 FROM passengers p WHERE p.flight_id = f.id AND p.user_id = ?)", f.UserID)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Reservations) AddReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error) {
	return r.mutate(ctx, flightID, func(tx *sql.Tx, f *reservation.Flight) error {
		if err := f.AddPassenger(userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO passengers (flight_id, user_id) VALUES (?, ?)`, flightID, userID)
		return err
	})
}

func (r *Reservations) CancelReservation(ctx context.Context, flightID, userID string) (*reservation.Flight, error) {
	return r.mutate(ctx, flightID, func(tx *sql.Tx, f *reservation.Flight) error {
		if err := f.RemovePassenger(userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE flight_id = ? AND user_id = ?`, flightID, userID)
		return err
	})
}

func (r *Reservations) mutate(ctx context.Context, flightID string, fn func(tx *sql.Tx, f *reservation.Flight) error) (*reservation.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}

	var out *reservation.Flight
	err := r.tx(ctx, func(tx *sql.Tx) error {
		f, err := r.findByID(ctx, tx, flightID)
		if err != nil {
			return err
		}
		if err := fn(tx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reservations) ListReservations(ctx context.Context, userID string) ([]*reservation.Flight, error) {
	page, err := r.Filter(ctx, reservation.Filter{UserID: userID}, reservation.PageSort{Sort: "departure_time", Dir: reservation.Asc})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Reservations) InsertCallHistoryItem(ctx context.Context, sessionID, userID string, start time.Time) (*reservation.CallHistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	item := &reservation.CallHistoryItem{ID: uuid.NewString(), SessionID: sessionID, UserID: userID, StartTime: start}
	_, err := r.db.ExecContext(ctx, `INSERT INTO call_history (id, session_id, user_id, start_time) VALUES (?, ?, ?, ?)`,
		item.ID, sessionID, userID, start.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert call history: %w", err)
	}
	return item, nil
}

func (r *Reservations) FinishCallHistoryItem(ctx context.Context, id string, end time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	res, err := r.db.ExecContext(ctx, `UPDATE call_history SET end_time = ? WHERE id = ?`, end.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("finish call history: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reservation.ErrHistoryNotFound
	}
	return nil
}

func (r *Reservations) FindUser(ctx context.Context, userID string) (*reservation.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	var u reservation.User
	err := r.db.QueryRowContext(ctx, `SELECT id, first_name, last_name, phone FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reservation.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

// Close releases the database.
func (r *Reservations) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.db.Close()
}

func (r *Reservations) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFlight(row scanner) (*reservation.Flight, error) {
	var (
		f          reservation.Flight
		path       []byte
		passengers sql.NullString
		free       int
	)
	if err := row.Scan(&f.ID, &f.Price, &f.Capacity, &f.Note, &path, &passengers, &free); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(path, &f.Path); err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	if passengers.Valid && passengers.String != "" {
		f.Passengers = strings.Split(passengers.String, ",")
	}
	f.Normalize()
	return &f, nil
}
