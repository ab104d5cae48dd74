package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/utils"
)

// Context keys set by JWTAuth.
const (
	CtxRegistrantID = "registrant_id"
	CtxSIC          = "sic"
)

// JWTAuth validates a Bearer access token and stores the registrant id
// (uint64) and SIC number in the request context.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			id, claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxRegistrantID, id)
			c.Set(CtxSIC, claims.SIC)
			return next(c)
		}
	}
}

// RegistrantID returns the authenticated registrant id, or false when
// JWTAuth did not run.
func RegistrantID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(CtxRegistrantID).(uint64)
	return id, ok && id > 0
}
