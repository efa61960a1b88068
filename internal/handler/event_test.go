package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/service"
)

const organizerID = uint64(900)

func eventServer(purge func(context.Context) error) (*echo.Echo, *mockCatalog) {
	m := new(mockCatalog)
	h := NewEventHandler(m, purge)
	e := newTestEcho()
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/search", h.Search)
	e.GET("/v1/events/:id", h.Get)
	e.GET("/v1/events/:id/availability", h.Availability)
	e.POST("/v1/events", h.Publish, asUser(organizerID))
	e.GET("/v1/events/:id/stats", h.Stats, asUser(organizerID))
	return e, m
}

func TestEventHandler_List(t *testing.T) {
	e, m := eventServer(nil)
	m.On("ListUpcoming", mock.Anything).Return([]model.Event{
		{ID: 1, Name: "Summer Festival", Kind: model.EventConcert, StartsAt: startsAt, Location: "Main Park"},
	}, nil)

	rec := do(e, http.MethodGet, "/v1/events", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Summer Festival"`)
}

func TestEventHandler_Get(t *testing.T) {
	t.Run("unknown event", func(t *testing.T) {
		e, m := eventServer(nil)
		m.On("Get", mock.Anything, uint64(9)).Return(nil, apperr.NotFound("event 9 not found"))

		rec := do(e, http.MethodGet, "/v1/events/9", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"NOT_FOUND","message":"event 9 not found"}`, rec.Body.String())
	})

	t.Run("zero id", func(t *testing.T) {
		e, m := eventServer(nil)

		rec := do(e, http.MethodGet, "/v1/events/0", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		m.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestEventHandler_Availability(t *testing.T) {
	e, m := eventServer(nil)
	m.On("Availability", mock.Anything, uint64(1)).Return([]model.CategoryAvailability{
		{CategoryID: 2, CategoryName: "VIP", PriceCents: 5000, Free: 8, Reserved: 2, Capacity: 10, ReservedCents: 10000},
	}, nil)

	rec := do(e, http.MethodGet, "/v1/events/1/availability", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event_id":1`)
	assert.Contains(t, rec.Body.String(), `"free":8`)
	assert.NotContains(t, rec.Body.String(), "10000")
}

func TestEventHandler_Publish(t *testing.T) {
	body := `{"name":"Summer Festival","kind":"concert","starts_at":"2026-12-01T20:00:00Z","location":"Main Park",
		"categories":[{"name":"VIP","price_cents":5000,"capacity":10}]}`

	t.Run("publishes and purges the cache", func(t *testing.T) {
		purged := 0
		e, m := eventServer(func(context.Context) error { purged++; return nil })
		m.On("Publish", mock.Anything, organizerID, mock.MatchedBy(func(in service.PublishEventInput) bool {
			return in.Name == "Summer Festival" && len(in.Categories) == 1 && in.Categories[0].Capacity == 10
		})).Return(&model.EventDetail{Event: model.Event{ID: 1, OrganizerID: organizerID, Name: "Summer Festival"}}, nil)

		rec := do(e, http.MethodPost, "/v1/events", body)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, 1, purged)
		m.AssertExpectations(t)
	})

	t.Run("purge failure does not fail the request", func(t *testing.T) {
		e, m := eventServer(func(context.Context) error { return errors.New("redis down") })
		m.On("Publish", mock.Anything, organizerID, mock.Anything).
			Return(&model.EventDetail{Event: model.Event{ID: 1}}, nil)

		rec := do(e, http.MethodPost, "/v1/events", body)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("no categories", func(t *testing.T) {
		e, m := eventServer(nil)

		rec := do(e, http.MethodPost, "/v1/events", `{"name":"X","kind":"SHOW","starts_at":"2026-12-01T20:00:00Z","location":"Hall"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec.Body.Bytes()).Error)
		m.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestEventHandler_Stats(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		e, m := eventServer(nil)
		m.On("Stats", mock.Anything, uint64(1), organizerID).Return(&model.EventStats{
			EventID: 1, TicketsSold: 2, Capacity: 10, RevenueCents: 10000, FillRate: 0.2,
		}, nil)

		rec := do(e, http.MethodGet, "/v1/events/1/stats", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"fill_rate":0.2`)
	})

	t.Run("someone else's event", func(t *testing.T) {
		e, m := eventServer(nil)
		m.On("Stats", mock.Anything, uint64(1), organizerID).Return(nil, apperr.Forbidden("event 1 belongs to another organizer"))

		rec := do(e, http.MethodGet, "/v1/events/1/stats", "")

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCustomHTTPErrorHandler_UnknownRoute(t *testing.T) {
	e := newTestEcho()

	rec := do(e, http.MethodGet, "/v1/nowhere", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec.Body.Bytes()).Error)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(errors.New("boom")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(apperr.ErrLateCancellation))
}

func TestEventHandler_Search(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		e, m := eventServer(nil)
		from := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
		m.On("Search", mock.Anything, model.EventQuery{
			Name: "jazz", Kind: "concert", From: from, Page: 2, PageSize: 5,
		}).Return(&model.EventPage{Items: []model.Event{{ID: 3, Name: "Jazz Night"}}, Total: 6, Page: 2, PageSize: 5}, nil)

		rec := do(e, http.MethodGet, "/v1/events/search?name=jazz&kind=concert&from=2026-12-01&page=2&page_size=5", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"total":6`)
		m.AssertExpectations(t)
	})

	t.Run("bad date", func(t *testing.T) {
		e, m := eventServer(nil)

		rec := do(e, http.MethodGet, "/v1/events/search?from=tomorrow", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec.Body.Bytes()).Message, "from must be")
		m.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}
