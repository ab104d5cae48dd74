package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/repository"
)

// ClaimStore is the persistence the guard needs for voucher claims.
type ClaimStore interface {
	Create(ctx context.Context, c *model.VoucherClaim) error
}

// BookingStore is the persistence the guard needs for seat bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.SeatBooking) error
}

// EventStore resolves an event's capacity.
type EventStore interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
}

// Guard authorizes single claim and booking writes.  The advisory
// Marker may short-circuit a repeat attempt; otherwise the insert is
// attempted and the store's unique indexes decide.
type Guard struct {
	Claims   ClaimStore
	Bookings BookingStore
	Events   EventStore
	Cache    Marker
}

// NewGuard wires a guard.  A nil cache disables the pre-check.
func NewGuard(claims ClaimStore, bookings BookingStore, events EventStore, cache Marker) *Guard {
	if cache == nil {
		cache = nopMarker{}
	}
	return &Guard{Claims: claims, Bookings: bookings, Events: events, Cache: cache}
}

func claimKey(registrantID uint64) string { return fmt.Sprintf("claim:%d", registrantID) }

func bookingKey(eventID, registrantID uint64) string {
	return fmt.Sprintf("booking:%d:%d", eventID, registrantID)
}

// Claim records the voucher the registrant's rank earns.  tierID may
// be empty; when set it must match the resolved tier.
func (g *Guard) Claim(ctx context.Context, reg model.Registrant, tierID string) (model.VoucherClaim, error) {
	tier, ok := eligibility.Resolve(reg.Rank)
	if !ok {
		return model.VoucherClaim{}, ErrIneligible
	}
	tierID = strings.TrimSpace(tierID)
	if tierID != "" && tierID != tier.ID {
		return model.VoucherClaim{}, invalid("tier_id", "does not match the tier earned by your rank")
	}
	key := claimKey(reg.ID)
	if g.seen(ctx, key) {
		return model.VoucherClaim{}, ErrAlreadyClaimed
	}

	c := model.VoucherClaim{RegistrantID: reg.ID, TierID: tier.ID, Code: uuid.NewString()}
	if err := g.Claims.Create(ctx, &c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			g.mark(ctx, key)
			return model.VoucherClaim{}, ErrAlreadyClaimed
		}
		return model.VoucherClaim{}, fmt.Errorf("claim voucher: %w", err)
	}
	g.mark(ctx, key)
	return c, nil
}

// Book reserves seat for the registrant at the event.
func (g *Guard) Book(ctx context.Context, registrantID, eventID uint64, seat int) (model.SeatBooking, error) {
	if seat < 1 {
		return model.SeatBooking{}, invalid("seat_number", "must be a positive integer")
	}
	ev, err := g.Events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.SeatBooking{}, ErrEventNotFound
		}
		return model.SeatBooking{}, fmt.Errorf("load event: %w", err)
	}
	if seat > ev.TotalSeats {
		return model.SeatBooking{}, invalid("seat_number", fmt.Sprintf("must be between 1 and %d", ev.TotalSeats))
	}
	key := bookingKey(eventID, registrantID)
	if g.seen(ctx, key) {
		return model.SeatBooking{}, ErrAlreadyBooked
	}

	b := model.SeatBooking{RegistrantID: registrantID, EventID: eventID, SeatNumber: seat}
	if err := g.Bookings.Create(ctx, &b); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return model.SeatBooking{}, fmt.Errorf("book seat: %w", err)
		}
		if repository.DuplicateKey(err) == repository.KeyEventSeat {
			return model.SeatBooking{}, ErrSeatTaken
		}
		g.mark(ctx, key)
		return model.SeatBooking{}, ErrAlreadyBooked
	}
	g.mark(ctx, key)
	return b, nil
}

// seen treats a cache error as a miss.
func (g *Guard) seen(ctx context.Context, key string) bool {
	hit, err := g.Cache.Seen(ctx, key)
	if err != nil {
		log.Printf("guard: advisory cache read %s: %v", key, err)
		return false
	}
	return hit
}

func (g *Guard) mark(ctx context.Context, key string) {
	if err := g.Cache.Mark(ctx, key); err != nil {
		log.Printf("guard: advisory cache write %s: %v", key, err)
	}
}
