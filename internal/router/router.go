package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/evelinagr/apartment-booking/internal/config"
	"github.com/evelinagr/apartment-booking/internal/handler"
	"github.com/evelinagr/apartment-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify that the
	// service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated guest-facing endpoints:
// calendar browsing, stay quotes and booking creation.  Guests book
// without an account, identified only by the contact details in the
// request body, so none of these routes carry JWT middleware.  The
// calendar and quote endpoints are read only and sit behind the redis
// response cache when one is configured.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, cal *handler.CalendarHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.ResponseCache(cacheCfg, rdb)
	e.GET("/v1/apartments/:id/calendar", cal.GetCalendar, cached)
	e.GET("/v1/apartments/:id/quote", cal.GetQuote, cached)
	e.POST("/v1/apartments/:id/bookings", b.CreateBooking)
}

// RegisterHost registers the host dashboard endpoints.  All routes
// require a valid access token with the HOST or ADMIN role; admins pass
// the ownership checks inside the booking service unconditionally.
func RegisterHost(e *echo.Echo, h *handler.HostBookingHandler, jwtSecret string) {
	g := e.Group("/v1/host")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(handler.RoleHost, handler.RoleAdmin))
	g.GET("/bookings", h.ListBookings)
	g.POST("/bookings/status", h.UpdateStatuses)
	g.POST("/blocked-dates", h.CreateBlockedDates)
	g.DELETE("/blocked-dates/:id", h.DeleteBlockedDates)
}

// RegisterGuest registers the authenticated guest endpoints.  Any valid
// token works; the handler filters by the email claim.
func RegisterGuest(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("/my-bookings", b.ListMyBookings)
}

// RegisterWebhooks registers the payment processor callback.  It is
// authenticated by a shared secret header instead of JWT, so it lives
// outside every authenticated group.
func RegisterWebhooks(e *echo.Echo, w *handler.PaymentWebhookHandler) {
	e.POST("/v1/payments/webhook", w.HandleEvent)
}
