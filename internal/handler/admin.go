package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/notify"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/service"
)

// notifyTimeout bounds a whole batch; each provider call has its own
// client timeout.
const notifyTimeout = 2 * time.Minute

// AdminHandler serves the organiser views and notification triggers.
type AdminHandler struct {
	Registrants *repository.RegistrantRepo
	Claims      *repository.ClaimRepo
	Events      *repository.EventRepo
	Bookings    *repository.BookingRepo
	Notifier    *service.VoucherNotifier
	// EventsChanged runs after an event is created, e.g. to drop
	// cached event listings.
	EventsChanged func(ctx context.Context) error
}

// ListRegistrants lists everyone by rank with claim status.
func (h *AdminHandler) ListRegistrants(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	out, err := h.Registrants.ListWithClaims(ctx)
	if err != nil {
		return respondError(c, "list registrants", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ListClaims(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()
	out, err := h.Claims.List(ctx)
	if err != nil {
		return respondError(c, "list claims", err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) ListEventBookings(c echo.Context) error {
	eventID, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if _, err := h.Events.GetByID(ctx, eventID); err != nil {
		return respondError(c, "load event", err)
	}
	out, err := h.Bookings.ListByEvent(ctx, eventID)
	if err != nil {
		return respondError(c, "list bookings", err)
	}
	return c.JSON(http.StatusOK, out)
}

type createEventReq struct {
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	EventDate   time.Time `json:"event_date"`
	TotalSeats  int       `json:"total_seats"`
}

func (h *AdminHandler) CreateEvent(c echo.Context) error {
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.EventDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and event_date required"})
	}
	if req.TotalSeats <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
	}
	ev := model.Event{Name: req.Name, Description: req.Description, EventDate: req.EventDate, TotalSeats: req.TotalSeats}
	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Events.Create(ctx, &ev); err != nil {
		return respondError(c, "create event", err)
	}
	if h.EventsChanged != nil {
		if err := h.EventsChanged(ctx); err != nil {
			log.Printf("admin: invalidate event cache: %v", err)
		}
	}
	return c.JSON(http.StatusCreated, ev)
}

type notifyReq struct {
	Channel      string `json:"channel"`
	RegistrantID uint64 `json:"registrant_id"`
}

// NotifyVouchers announces vouchers to all eligible unclaimed
// registrants, or to one when registrant_id is set.
func (h *AdminHandler) NotifyVouchers(c echo.Context) error {
	var req notifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ch, err := notify.ParseChannel(strings.ToLower(strings.TrimSpace(req.Channel)))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), notifyTimeout)
	defer cancel()

	var res notify.BatchResult
	if req.RegistrantID > 0 {
		res, err = h.Notifier.NotifyOne(ctx, req.RegistrantID, ch)
	} else {
		res, err = h.Notifier.NotifyEligible(ctx, ch)
	}
	if err != nil {
		return respondError(c, "notify", err)
	}
	return c.JSON(http.StatusOK, res)
}

type smsReq struct {
	PhoneNumber string `json:"phone_number"`
	Message     string `json:"message"`
}

// SendSMS sends an arbitrary message to one phone number.
func (h *AdminHandler) SendSMS(c echo.Context) error {
	var req smsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.PhoneNumber) == "" || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number and message required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), notifyTimeout)
	defer cancel()
	id, err := h.Notifier.Dispatcher.SendManual(ctx, req.PhoneNumber, req.Message)
	if err != nil {
		return respondError(c, "send sms", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message_sid": id})
}
