package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/service"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = CustomHTTPErrorHandler
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// asUser is a route middleware standing in for JWTAuth.
func asUser(id uint64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user_id", id)
			return next(c)
		}
	}
}

type mockReservations struct{ mock.Mock }

func (m *mockReservations) Reserve(ctx context.Context, clientID, eventID, categoryID uint64, quantity int) (*model.Reservation, error) {
	args := m.Called(ctx, clientID, eventID, categoryID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockReservations) Get(ctx context.Context, reservationID, clientID uint64) (*model.Reservation, error) {
	args := m.Called(ctx, reservationID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *mockReservations) List(ctx context.Context, clientID uint64) ([]model.ReservationSummary, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReservationSummary), args.Error(1)
}

type mockCancels struct{ mock.Mock }

func (m *mockCancels) Cancel(ctx context.Context, reservationID, clientID uint64) error {
	return m.Called(ctx, reservationID, clientID).Error(0)
}

func (m *mockCancels) Cutoff(startsAt time.Time) time.Time {
	return startsAt.Add(-24 * time.Hour)
}

type mockPayments struct{ mock.Mock }

func (m *mockPayments) Charge(ctx context.Context, reservationID, clientID uint64, card model.Card) (*model.Payment, error) {
	args := m.Called(ctx, reservationID, clientID, card)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *mockPayments) Get(ctx context.Context, reservationID, clientID uint64) (*model.Payment, error) {
	args := m.Called(ctx, reservationID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type mockCatalog struct{ mock.Mock }

func (m *mockCatalog) Publish(ctx context.Context, organizerID uint64, in service.PublishEventInput) (*model.EventDetail, error) {
	args := m.Called(ctx, organizerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventDetail), args.Error(1)
}

func (m *mockCatalog) Get(ctx context.Context, eventID uint64) (*model.EventDetail, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventDetail), args.Error(1)
}

func (m *mockCatalog) ListUpcoming(ctx context.Context) ([]model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Event), args.Error(1)
}

func (m *mockCatalog) Search(ctx context.Context, q model.EventQuery) (*model.EventPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventPage), args.Error(1)
}

func (m *mockCatalog) Availability(ctx context.Context, eventID uint64) ([]model.CategoryAvailability, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CategoryAvailability), args.Error(1)
}

func (m *mockCatalog) Stats(ctx context.Context, eventID, organizerID uint64) (*model.EventStats, error) {
	args := m.Called(ctx, eventID, organizerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventStats), args.Error(1)
}
