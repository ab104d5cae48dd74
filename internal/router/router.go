package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/faculty-fest/internal/handler"
	"github.com/iliyamo/faculty-fest/internal/middleware"
	"github.com/iliyamo/faculty-fest/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers signup, login and session routes.  /v1/me
// requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/lookup", a.Lookup)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers event browsing.  listCache wraps the event
// list, which is read far more often than events change.
func RegisterPublic(e *echo.Echo, ev *handler.EventHandler, listCache echo.MiddlewareFunc) {
	e.GET("/v1/events", ev.List, listCache)
	e.GET("/v1/events/:id/seats", ev.Seats)
}

// RegisterRegistrant registers the authenticated voucher and booking routes.
func RegisterRegistrant(e *echo.Echo, v *handler.VoucherHandler, ev *handler.EventHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	g.GET("/vouchers/me", v.Mine)
	g.POST("/vouchers/claim", v.Claim)
	g.GET("/vouchers/me/qr", v.QR)
	g.POST("/events/:id/bookings", ev.Book)
	g.GET("/bookings/me", ev.Mine)
}

// RegisterAdmin registers organiser routes behind the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, roles middleware.RoleChecker, jwtSecret string) {
	g := e.Group("/v1/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole(roles, model.RoleAdmin))
	g.GET("/registrants", a.ListRegistrants)
	g.GET("/claims", a.ListClaims)
	g.GET("/events/:id/bookings", a.ListEventBookings)
	g.POST("/events", a.CreateEvent)
	g.POST("/notify/vouchers", a.NotifyVouchers)
	g.POST("/notify/sms", a.SendSMS)
}
