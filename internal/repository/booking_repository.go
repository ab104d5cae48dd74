package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/faculty-fest/internal/model"
)

// EventRepo provides access to the events table.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Create inserts an event and populates its ID and CreatedAt.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	ev.CreatedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO events (name, description, event_date, total_seats, created_at) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, ev.Name, ev.Description, ev.EventDate.UTC(), ev.TotalSeats, ev.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

// GetByID returns the event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT id, name, description, event_date, total_seats, created_at FROM events WHERE id = ?`
	ev, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return ev, err
}

// List returns all events ordered by date.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT id, name, description, event_date, total_seats, created_at FROM events ORDER BY event_date, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanEvent(s rowScanner) (model.Event, error) {
	var (
		ev   model.Event
		desc sql.NullString
	)
	if err := s.Scan(&ev.ID, &ev.Name, &desc, &ev.EventDate, &ev.TotalSeats, &ev.CreatedAt); err != nil {
		return model.Event{}, err
	}
	if desc.Valid {
		d := desc.String
		ev.Description = &d
	}
	return ev, nil
}

// BookingRepo stores seat bookings.  The (event, registrant) and
// (event, seat) unique indexes are the only guard against double
// booking.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

var bookingKeys = map[string][]string{
	KeyEventSeat:   {"uq_seat_bookings_seat", "seat_bookings.seat_number"},
	KeyEventBooker: {"uq_seat_bookings_registrant", "seat_bookings.registrant_id"},
}

// Create inserts a booking in a single statement.  A unique violation
// is returned as a *DuplicateError keyed KeyEventSeat or KeyEventBooker.
func (r *BookingRepo) Create(ctx context.Context, b *model.SeatBooking) error {
	b.BookedAt = time.Now().UTC().Truncate(time.Second)
	const q = `INSERT INTO seat_bookings (registrant_id, event_id, seat_number, booked_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, b.RegistrantID, b.EventID, b.SeatNumber, b.BookedAt)
	if err != nil {
		return asDuplicate(err, bookingKeys)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetForRegistrant returns the registrant's booking for an event or ErrNotFound.
func (r *BookingRepo) GetForRegistrant(ctx context.Context, eventID, registrantID uint64) (model.SeatBooking, error) {
	const q = `SELECT id, registrant_id, event_id, seat_number, booked_at
	           FROM seat_bookings WHERE event_id = ? AND registrant_id = ?`
	var b model.SeatBooking
	err := r.db.QueryRowContext(ctx, q, eventID, registrantID).
		Scan(&b.ID, &b.RegistrantID, &b.EventID, &b.SeatNumber, &b.BookedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SeatBooking{}, ErrNotFound
	}
	return b, err
}

// ListByEvent returns bookings for an event ordered by seat number.
func (r *BookingRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatBooking, error) {
	const q = `SELECT id, registrant_id, event_id, seat_number, booked_at
	           FROM seat_bookings WHERE event_id = ? ORDER BY seat_number`
	return r.list(ctx, q, eventID)
}

// ListByRegistrant returns the registrant's bookings across events.
func (r *BookingRepo) ListByRegistrant(ctx context.Context, registrantID uint64) ([]model.SeatBooking, error) {
	const q = `SELECT id, registrant_id, event_id, seat_number, booked_at
	           FROM seat_bookings WHERE registrant_id = ? ORDER BY event_id`
	return r.list(ctx, q, registrantID)
}

// TakenSeats returns the booked seat numbers of an event in ascending order.
func (r *BookingRepo) TakenSeats(ctx context.Context, eventID uint64) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_number FROM seat_bookings WHERE event_id = ? ORDER BY seat_number`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := []int{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

func (r *BookingRepo) list(ctx context.Context, q string, arg any) ([]model.SeatBooking, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SeatBooking{}
	for rows.Next() {
		var b model.SeatBooking
		if err := rows.Scan(&b.ID, &b.RegistrantID, &b.EventID, &b.SeatNumber, &b.BookedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
