package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/faculty-fest/internal/repository"
)

// ValidationError reports malformed input, caught before any store
// interaction.  Handlers map it to HTTP 400.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Conflict errors.  Each wraps repository.ErrDuplicate, so
// errors.Is(err, repository.ErrDuplicate) holds for all of them.
var (
	ErrAlreadyClaimed    = fmt.Errorf("voucher already claimed: %w", repository.ErrDuplicate)
	ErrAlreadyBooked     = fmt.Errorf("seat already booked for this event: %w", repository.ErrDuplicate)
	ErrSeatTaken         = fmt.Errorf("seat already taken: %w", repository.ErrDuplicate)
	ErrAlreadyRegistered = fmt.Errorf("sic number or email already registered: %w", repository.ErrDuplicate)
)

// ErrIneligible is returned when the registrant's rank earns no tier.
var ErrIneligible = &ValidationError{Msg: "rank is not eligible for a voucher"}

// ErrInvalidCredentials covers unknown SIC numbers and wrong passwords alike.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEventNotFound is returned when booking against an unknown event.
var ErrEventNotFound = fmt.Errorf("event: %w", repository.ErrNotFound)
