// Package router mounts handlers and their middleware on an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-seat-reservation/internal/config"
	"github.com/iliyamo/event-seat-reservation/internal/handler"
	"github.com/iliyamo/event-seat-reservation/internal/middleware"
	"github.com/iliyamo/event-seat-reservation/internal/utils"
)

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, cfg config.Config) {
	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.MetricsUser, cfg.MetricsPassword))
}

// RegisterEvents registers the catalog. Listing and detail are public and
// cached in Redis; availability is public and always live; publishing and
// stats need the ORGANIZER role.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, cfg config.Config, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cfg.Cache, rdb)
	e.GET("/v1/events", h.List, cache)
	e.GET("/v1/events/search", h.Search, cache)
	e.GET("/v1/events/:id", h.Get, cache)
	e.GET("/v1/events/:id/availability", h.Availability)

	organizer := []echo.MiddlewareFunc{
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(utils.RoleOrganizer),
	}
	e.POST("/v1/events", h.Publish, organizer...)
	e.GET("/v1/events/:id/stats", h.Stats, organizer...)
}

// RegisterReservations registers the client routes under /v1/reservations.
// All of them need a CLIENT token; the writes are rate limited per user.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, cfg config.Config, rdb *redis.Client) {
	g := e.Group(
		"/v1/reservations",
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(utils.RoleClient),
	)
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb)

	g.POST("", h.Reserve, limit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.DELETE("/:id", h.Cancel, limit)
	g.POST("/:id/payment", h.Pay, limit)
	g.GET("/:id/payment", h.Payment)
	g.GET("/:id/receipt", h.Receipt)
}
