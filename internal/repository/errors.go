// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting driver errors themselves.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup yields no rows.  Handlers
// should translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique index.
// It is the only trustworthy conflict signal: two concurrent
// requests can both pass any check made before the insert.
// Handlers should translate this into an HTTP 409 response.
var ErrDuplicate = errors.New("duplicate")

// DuplicateError carries the index or column that rejected the
// insert so callers can tell "seat taken" from "already booked".
type DuplicateError struct {
	Key string
	Err error
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate on %s: %v", e.Key, e.Err)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// Is reports true for ErrDuplicate so errors.Is works on the wrapper.
func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

// isLockConflict recognises a deadlock victim or lock wait timeout.
// Both roll back only the statement or transaction and are safe to retry.
func isLockConflict(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
	}
	return false
}

// isDuplicate recognises unique violations from MySQL (1062) and from
// SQLite, which the test suite runs against.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique constraint failed")
}

// Keys reported on DuplicateError.
const (
	KeySICNumber   = "sic_number"
	KeyEmail       = "email"
	KeyVisitOrder  = "visit_order"
	KeyClaim       = "claim"
	KeyEventSeat   = "event_seat"
	KeyEventBooker = "event_registrant"
)

// asDuplicate converts a unique violation into a *DuplicateError.
// needles maps a key to the substrings (MySQL index name, SQLite
// column list) that identify it in the driver message.  Other errors
// are returned unchanged.
func asDuplicate(err error, needles map[string][]string) error {
	if !isDuplicate(err) {
		return err
	}
	msg := err.Error()
	for key, subs := range needles {
		for _, sub := range subs {
			if strings.Contains(msg, sub) {
				return &DuplicateError{Key: key, Err: err}
			}
		}
	}
	return &DuplicateError{Key: "unknown", Err: err}
}

// DuplicateKey returns the key recorded on a *DuplicateError in err's
// chain, or "".
func DuplicateKey(err error) string {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Key
	}
	return ""
}
