package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/equipment-rental/internal/config"
	"github.com/iliyamo/equipment-rental/internal/handler"
	"github.com/iliyamo/equipment-rental/internal/middleware"
)

// RegisterRoutes registers routes that need no handler state on the
// provided Echo instance.  Currently it exposes only a health check,
// used by load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBrowse registers the public read-only endpoints: equipment
// browsing and availability checks.  These are idempotent reads, so the
// Redis response cache and rate limiter run in front of them.  Both
// middlewares degrade to pass-throughs when rdb is nil.
func RegisterBrowse(e *echo.Echo, eq *handler.EquipmentHandler, av *handler.AvailabilityHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1", limit)
	g.GET("/equipment", eq.List, cache)
	g.GET("/equipment/:id", eq.Get, cache)
	// Availability is the engine's read entry point (CheckAvailability).
	g.GET("/equipment/:id/availability", av.Check, cache)
}

// RegisterBooking registers the mutating endpoints: the batch commit
// entry point, booking transitions, the project booking view and the
// administrative status flag override.  None of these are cached.
func RegisterBooking(e *echo.Echo, rs *handler.ReservationHandler, bk *handler.BookingHandler, pr *handler.ProjectHandler, eq *handler.EquipmentHandler) {
	g := e.Group("/v1")
	// CommitReservations: the only path that mutates the ledger.
	g.POST("/reservations", rs.Commit)
	// TransitionBooking: lifecycle changes, including the terminal
	// transitions that release capacity.
	g.POST("/bookings/:id/transition", bk.Transition)
	g.GET("/bookings/:id", bk.Get)
	g.GET("/projects/:id/bookings", pr.ListBookings)
	// Administrative override flags (MAINTENANCE/BROKEN/RETIRED).
	g.PUT("/equipment/:id/flag", eq.SetFlag)
}
