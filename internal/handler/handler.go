// Package handler exposes the reservation engine over HTTP. Handlers bind the
// request, call a service and return its error untouched; CustomHTTPErrorHandler
// turns error kinds into status codes.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/service"
)

// ReservationEngine is implemented by service.ReservationService.
type ReservationEngine interface {
	Reserve(ctx context.Context, clientID, eventID, categoryID uint64, quantity int) (*model.Reservation, error)
	Get(ctx context.Context, reservationID, clientID uint64) (*model.Reservation, error)
	List(ctx context.Context, clientID uint64) ([]model.ReservationSummary, error)
}

// CancellationEngine is implemented by service.CancellationService.
type CancellationEngine interface {
	Cancel(ctx context.Context, reservationID, clientID uint64) error
	Cutoff(startsAt time.Time) time.Time
}

// PaymentProcessor is implemented by service.PaymentService.
type PaymentProcessor interface {
	Charge(ctx context.Context, reservationID, clientID uint64, card model.Card) (*model.Payment, error)
	Get(ctx context.Context, reservationID, clientID uint64) (*model.Payment, error)
}

// EventCatalog is implemented by service.EventService.
type EventCatalog interface {
	Publish(ctx context.Context, organizerID uint64, in service.PublishEventInput) (*model.EventDetail, error)
	Get(ctx context.Context, eventID uint64) (*model.EventDetail, error)
	ListUpcoming(ctx context.Context) ([]model.Event, error)
	Search(ctx context.Context, q model.EventQuery) (*model.EventPage, error)
	Availability(ctx context.Context, eventID uint64) ([]model.CategoryAvailability, error)
	Stats(ctx context.Context, eventID, organizerID uint64) (*model.EventStats, error)
}

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")

// getUserID reads the caller id stored by middleware.JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errUnauthorized
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// bindAndValidate binds the body into dst and runs the echo validator on it.
func bindAndValidate(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(dst)
}
