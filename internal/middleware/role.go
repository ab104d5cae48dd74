package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RoleChecker answers whether a registrant holds a role.
type RoleChecker interface {
	HasRole(ctx context.Context, registrantID uint64, role string) (bool, error)
}

// RequireRole rejects the request with 403 unless the authenticated
// registrant holds role.  The role is looked up on every request, so
// grants and revocations apply without re-issuing tokens.  JWTAuth must
// run first.
func RequireRole(checker RoleChecker, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := RegistrantID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			has, err := checker.HasRole(ctx, id, role)
			if err != nil {
				log.Printf("role: lookup %s for registrant %d: %v", role, id, err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !has {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
