package middleware

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/utils"
)

// userKey identifies the caller for rate-limit keys.  The limiter runs
// before the route-level JWTAuth, so when no registrant is on the
// context yet the bearer token is verified here.  Missing or invalid
// tokens give "anon".
func userKey(c echo.Context, secret string) string {
	if id, ok := RegistrantID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	if secret == "" {
		return "anon"
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "anon"
	}
	id, _, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return "anon"
	}
	return strconv.FormatUint(id, 10)
}
