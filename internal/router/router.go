package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-screenings/internal/config"
	"github.com/iliyamo/cinema-screenings/internal/docs"
	"github.com/iliyamo/cinema-screenings/internal/handler"
	"github.com/iliyamo/cinema-screenings/internal/middleware"
)

// Options carries what RegisterRoutes needs besides the handler.  A nil
// Redis client turns caching and rate limiting off.
type Options struct {
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Health    handler.Pinger
}

// RegisterRoutes registers the health check, the API and its OpenAPI
// document under /docs.  The catalog groups are served from the response
// cache; any write on a group evicts it.  Screening and reservation routes
// are never cached because seat state changes with every booking; booking
// attempts also draw from the tighter per-screening bucket.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, opts Options) {
	e.GET("/healthz", handler.Health(opts.Health))
	docs.Register(e)

	limit := middleware.NewTokenBucket(opts.RateLimit, opts.Redis)

	movies := e.Group("/movies", limit, middleware.NewRedisCache(opts.Cache, opts.Redis, "movies"))
	movies.GET("", h.ListMovies)
	movies.POST("", h.CreateMovie)
	movies.GET("/:id", h.GetMovie)
	movies.PATCH("/:id", h.UpdateMovie)
	movies.DELETE("/:id", h.DeleteMovie)

	rooms := e.Group("/rooms", limit, middleware.NewRedisCache(opts.Cache, opts.Redis, "rooms"))
	rooms.GET("", h.ListRooms)
	rooms.POST("", h.CreateRoom)
	rooms.GET("/:id", h.GetRoom)
	rooms.DELETE("/:id", h.DeleteRoom)

	screenings := e.Group("/screenings", limit)
	screenings.GET("", h.ListScreenings)
	screenings.POST("", h.CreateScreening)
	screenings.GET("/:id", h.GetScreening)
	screenings.DELETE("/:id", h.DeleteScreening)
	screenings.GET("/:id/seats", h.GetSeats)
	screenings.GET("/:id/reservations", h.ListReservations)
	screenings.POST("/:id/reservations", h.CreateReservation, middleware.NewBookingLimit(opts.RateLimit, opts.Redis))
	screenings.GET("/:id/reservations/:reservationId", h.GetReservation)
	screenings.DELETE("/:id/reservations/:reservationId", h.DeleteReservation)
}
