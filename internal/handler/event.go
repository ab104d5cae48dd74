package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/service"
)

// EventHandler serves event browsing and seat booking.
type EventHandler struct {
	Events   *repository.EventRepo
	Bookings *repository.BookingRepo
	Guard    *service.Guard
}

func NewEventHandler(e *repository.EventRepo, b *repository.BookingRepo, g *service.Guard) *EventHandler {
	return &EventHandler{Events: e, Bookings: b, Guard: g}
}

// List returns all events by date.
func (h *EventHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	events, err := h.Events.List(ctx)
	if err != nil {
		return respondError(c, "list events", err)
	}
	return c.JSON(http.StatusOK, events)
}

// Seats returns the event's capacity and taken seat numbers.
func (h *EventHandler) Seats(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		return respondError(c, "load event", err)
	}
	taken, err := h.Bookings.TakenSeats(ctx, eventID)
	if err != nil {
		return respondError(c, "load seats", err)
	}
	return c.JSON(http.StatusOK, model.SeatMap{EventID: ev.ID, TotalSeats: ev.TotalSeats, Taken: taken})
}

type bookReq struct {
	SeatNumber int `json:"seat_number"`
}

// Book reserves one seat for the caller.  409 with already_booked or
// seat_taken on conflict.
func (h *EventHandler) Book(c echo.Context) error {
	id, err := getRegistrantID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	b, err := h.Guard.Book(ctx, id, eventID, req.SeatNumber)
	if err != nil {
		return respondError(c, "book seat", err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Mine lists the caller's bookings.
func (h *EventHandler) Mine(c echo.Context) error {
	id, err := getRegistrantID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	out, err := h.Bookings.ListByRegistrant(ctx, id)
	if err != nil {
		return respondError(c, "list bookings", err)
	}
	return c.JSON(http.StatusOK, out)
}
