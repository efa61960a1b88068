package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/event-seat-reservation/internal/service"
)

// EventHandler serves the catalog: public browsing plus the organizer's
// publish and stats routes.
type EventHandler struct {
	events EventCatalog
	// purge drops cached catalog responses after a publish; may be nil
	purge func(ctx context.Context) error
}

func NewEventHandler(events EventCatalog, purge func(ctx context.Context) error) *EventHandler {
	if events == nil {
		panic("nil catalog passed to NewEventHandler")
	}
	return &EventHandler{events: events, purge: purge}
}

// List handles GET /v1/events: upcoming events ordered by date.
func (h *EventHandler) List(c echo.Context) error {
	out, err := h.events.ListUpcoming(c.Request().Context())
	if err != nil {
		return err
	}
	if out == nil {
		out = []model.Event{}
	}
	return c.JSON(http.StatusOK, out)
}

// searchRequest holds the query string of GET /v1/events/search. Dates are
// RFC 3339 timestamps or plain YYYY-MM-DD days (UTC).
type searchRequest struct {
	Name     string `query:"name"`
	Location string `query:"location"`
	Kind     string `query:"kind"`
	From     string `query:"from"`
	To       string `query:"to"`
	Page     int    `query:"page"`
	PageSize int    `query:"page_size"`
}

// Search handles GET /v1/events/search.
func (h *EventHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &req); err != nil {
		return apperr.Validation("invalid query parameters")
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return err
	}
	page, err := h.events.Search(c.Request().Context(), model.EventQuery{
		Name:     req.Name,
		Location: req.Location,
		Kind:     model.EventKind(req.Kind),
		From:     from,
		To:       to,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func parseDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("%s must be RFC 3339 or YYYY-MM-DD", name)
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ev, err := h.events.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ev)
}

// Availability handles GET /v1/events/:id/availability. It is never cached.
func (h *EventHandler) Availability(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	out, err := h.events.Availability(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "categories": out})
}

// Publish handles POST /v1/events for organizers.
func (h *EventHandler) Publish(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return err
	}
	var in service.PublishEventInput
	if err := bindAndValidate(c, &in); err != nil {
		return err
	}
	ev, err := h.events.Publish(c.Request().Context(), organizerID, in)
	if err != nil {
		return err
	}
	if h.purge != nil {
		if err := h.purge(c.Request().Context()); err != nil {
			logger.Warn("catalog cache purge failed", zap.Uint64("event_id", ev.ID), zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, ev)
}

// Stats handles GET /v1/events/:id/stats for the event's organizer.
func (h *EventHandler) Stats(c echo.Context) error {
	organizerID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	st, err := h.events.Stats(c.Request().Context(), id, organizerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}
