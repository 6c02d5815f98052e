package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/cinetick/booking/internal/config"
	"github.com/cinetick/booking/internal/handler"
	"github.com/cinetick/booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check and the public seat map.
func RegisterRoutes(e *echo.Echo, seats *handler.SeatHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/showtimes/:id/seats", seats.GetShowtimeSeats)
}

// RegisterBooking registers the authenticated booking routes under /v1.
// Every route requires a valid access token with a CUSTOMER or ADMIN
// role.  The Redis token bucket additionally throttles the mutating
// endpoints so a single client cannot hammer the seat ledger.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, jwtSecret string, rdb *redis.Client) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("CUSTOMER", "ADMIN"))

	rl := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)

	auth.POST("/showtimes/:id/holds", b.HoldSeats, rl)
	auth.GET("/holds/:id", b.GetHold)
	auth.POST("/holds/:id/extend", b.ExtendHold, rl)
	auth.DELETE("/holds/:id", b.ReleaseHold)
	auth.POST("/holds/:id/finalize", b.FinalizeHold, rl)

	auth.GET("/bookings", b.ListBookings)
	auth.GET("/bookings/:id", b.GetBooking)
	auth.DELETE("/bookings/:id", b.CancelBooking)
}
