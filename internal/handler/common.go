package handler // handler defines http handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/eligibility"
	"github.com/iliyamo/faculty-fest/internal/middleware"
	"github.com/iliyamo/faculty-fest/internal/model"
	"github.com/iliyamo/faculty-fest/internal/notify"
	"github.com/iliyamo/faculty-fest/internal/repository"
	"github.com/iliyamo/faculty-fest/internal/service"
)

const dbTimeout = 5 * time.Second

// errRegistrantMissing is set when JWTAuth did not run in front of a handler.
var errRegistrantMissing = errors.New("invalid registrant_id in context")

func getRegistrantID(c echo.Context) (uint64, error) {
	id, ok := middleware.RegistrantID(c)
	if !ok {
		return 0, errRegistrantMissing
	}
	return id, nil
}

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// respondError maps the error kinds to HTTP: validation 400, conflict
// 409, missing 404, provider 502, everything else 500.
func respondError(c echo.Context, op string, err error) error {
	var (
		ve *service.ValidationError
		pe *notify.ProviderError
	)
	switch {
	case errors.As(err, &ve):
		body := echo.Map{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrSeatTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat_taken", "message": err.Error()})
	case errors.Is(err, service.ErrAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already_booked", "message": err.Error()})
	case errors.Is(err, service.ErrAlreadyClaimed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already_claimed", "message": err.Error()})
	case errors.Is(err, repository.ErrDuplicate):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict", "message": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, notify.ErrNotConfigured):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	case errors.As(err, &pe):
		log.Printf("%s: %v", op, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	log.Printf("%s: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": op + " failed"})
}

// profile is the registrant view returned to its owner.
type profile struct {
	model.Registrant
	Tier *eligibility.Tier `json:"tier"`
}

func newProfile(r model.Registrant) profile {
	p := profile{Registrant: r}
	if t, ok := eligibility.Resolve(r.Rank); ok {
		p.Tier = &t
	}
	return p
}
