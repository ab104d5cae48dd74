package model

import "time"

// Event is a named activity with a date and a fixed seat capacity.
// Seats are numbered 1..TotalSeats.
//
// Fields:
//
//	ID          – primary key identifier.
//	Name        – display name of the event.
//	Description – optional free text.
//	EventDate   – when the event takes place.
//	TotalSeats  – seat capacity; always positive.
//	CreatedAt   – creation timestamp.
type Event struct {
	ID          uint64    `json:"id"`          // events.id
	Name        string    `json:"name"`        // events.name
	Description *string   `json:"description"` // events.description (nullable)
	EventDate   time.Time `json:"event_date"`  // events.event_date
	TotalSeats  int       `json:"total_seats"` // events.total_seats
	CreatedAt   time.Time `json:"created_at"`  // events.created_at
}

// SeatBooking records a registrant's one-time seat reservation for an
// event.  The store enforces two independent uniqueness rules: one
// booking per (event, registrant) and one booking per (event, seat).
//
// Fields:
//
//	ID           – primary key identifier.
//	RegistrantID – registrant who booked the seat.
//	EventID      – event the seat belongs to.
//	SeatNumber   – 1-based seat number within the event.
//	BookedAt     – creation timestamp.
type SeatBooking struct {
	ID           uint64    `json:"id"`            // seat_bookings.id
	RegistrantID uint64    `json:"registrant_id"` // seat_bookings.registrant_id
	EventID      uint64    `json:"event_id"`      // seat_bookings.event_id
	SeatNumber   int       `json:"seat_number"`   // seat_bookings.seat_number
	BookedAt     time.Time `json:"booked_at"`     // seat_bookings.booked_at
}

// SeatMap is the availability view of an event: its capacity and
// the seat numbers already taken.
type SeatMap struct {
	EventID    uint64 `json:"event_id"`
	TotalSeats int    `json:"total_seats"`
	Taken      []int  `json:"taken"`
}
