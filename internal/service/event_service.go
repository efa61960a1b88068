package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/clock"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
)

// PublishEventInput describes a new event and the seats to create for it.
type PublishEventInput struct {
	Name         string               `json:"name" validate:"required,max=200"`
	Kind         string               `json:"kind" validate:"required"`
	StartsAt     time.Time            `json:"starts_at" validate:"required"`
	Location     string               `json:"location" validate:"required,max=255"`
	SpecialGuest string               `json:"special_guest" validate:"max=200"`
	Categories   []model.CategorySpec `json:"categories" validate:"required,min=1,dive"`
}

// EventService publishes events and answers catalog, availability and sales
// questions about them.
type EventService struct {
	tx         TxBeginner
	events     EventStore
	categories CategoryStore
	seats      SeatCatalog
	clock      clock.Clock
}

func NewEventService(tx TxBeginner, events EventStore, categories CategoryStore, seats SeatCatalog, clk clock.Clock) *EventService {
	return &EventService{tx: tx, events: events, categories: categories, seats: seats, clock: clk}
}

// Publish creates the event, its categories and every seat as FREE in one
// transaction.
func (s *EventService) Publish(ctx context.Context, organizerID uint64, in PublishEventInput) (*model.EventDetail, error) {
	ev, err := s.validate(organizerID, in)
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.Begin(ctx)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.events.CreateTx(ctx, tx, ev); err != nil {
		return nil, apperr.Persistence(err)
	}
	detail := &model.EventDetail{Event: *ev, Categories: make([]model.SeatCategory, 0, len(in.Categories))}
	for _, cat := range in.Categories {
		catID, err := s.categories.FindOrCreateTx(ctx, tx, cat.Name)
		if err != nil {
			return nil, apperr.Persistence(err)
		}
		if err := s.categories.AttachTx(ctx, tx, ev.ID, catID, cat.PriceCents); err != nil {
			return nil, apperr.Persistence(err)
		}
		seats := make([]model.Seat, cat.Capacity)
		for i := range seats {
			seats[i] = model.Seat{EventID: ev.ID, CategoryID: catID, PriceCents: cat.PriceCents, Status: model.SeatFree}
		}
		if err := s.seats.CreateBulkTx(ctx, tx, seats); err != nil {
			return nil, apperr.Persistence(err)
		}
		detail.Categories = append(detail.Categories, model.SeatCategory{
			ID:         catID,
			Name:       strings.TrimSpace(cat.Name),
			PriceCents: cat.PriceCents,
			Capacity:   cat.Capacity,
		})
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence(err)
	}
	committed = true

	logger.Info("event published",
		zap.Uint64("event_id", ev.ID),
		zap.Uint64("organizer_id", organizerID),
		zap.Int("categories", len(detail.Categories)))
	return detail, nil
}

func (s *EventService) validate(organizerID uint64, in PublishEventInput) (*model.Event, error) {
	if organizerID == 0 {
		return nil, apperr.Validation("organizer is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	kind, ok := model.ParseEventKind(in.Kind)
	if !ok {
		return nil, apperr.Validation("kind must be one of CONCERT, SHOW, CONFERENCE")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, apperr.Validation("location is required")
	}
	if !in.StartsAt.After(s.clock.Now()) {
		return nil, apperr.Validation("starts_at must be in the future")
	}
	if len(in.Categories) == 0 {
		return nil, apperr.Validation("at least one category is required")
	}
	seen := make(map[string]bool, len(in.Categories))
	for _, c := range in.Categories {
		key := strings.ToLower(strings.TrimSpace(c.Name))
		switch {
		case key == "":
			return nil, apperr.Validation("category name is required")
		case seen[key]:
			return nil, apperr.Validation("category %q is listed twice", c.Name)
		case c.PriceCents < 0:
			return nil, apperr.Validation("category %q has a negative price", c.Name)
		case c.Capacity < 1:
			return nil, apperr.Validation("category %q needs at least one seat", c.Name)
		}
		seen[key] = true
	}
	return &model.Event{
		OrganizerID:  organizerID,
		Name:         name,
		Kind:         kind,
		StartsAt:     in.StartsAt.UTC(),
		Location:     location,
		SpecialGuest: strings.TrimSpace(in.SpecialGuest),
		CreatedAt:    s.clock.Now(),
	}, nil
}

// Get returns an event with its categories.
func (s *EventService) Get(ctx context.Context, eventID uint64) (*model.EventDetail, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	cats, err := s.categories.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return &model.EventDetail{Event: *ev, Categories: cats}, nil
}

// ListUpcoming returns events that have not started, earliest first.
func (s *EventService) ListUpcoming(ctx context.Context) ([]model.Event, error) {
	events, err := s.events.List(ctx, s.clock.Now())
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return events, nil
}

// Search page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Search pages through events matching q. The window starts now unless q.From
// is later; page and page size are clamped to sane values.
func (s *EventService) Search(ctx context.Context, q model.EventQuery) (*model.EventPage, error) {
	now := s.clock.Now()
	if q.From.Before(now) {
		q.From = now
	}
	if !q.To.IsZero() && !q.To.After(q.From) {
		return nil, apperr.Validation("to must be after from")
	}
	if q.Kind != "" {
		kind, ok := model.ParseEventKind(string(q.Kind))
		if !ok {
			return nil, apperr.Validation("unknown event kind %q", q.Kind)
		}
		q.Kind = kind
	}
	q.Name = strings.TrimSpace(q.Name)
	q.Location = strings.TrimSpace(q.Location)
	if q.Page < 1 {
		q.Page = 1
	}
	switch {
	case q.PageSize < 1:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}

	items, total, err := s.events.Search(ctx, q)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return &model.EventPage{Items: items, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Availability returns live seat counts per category.
func (s *EventService) Availability(ctx context.Context, eventID uint64) ([]model.CategoryAvailability, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, apperr.Persistence(err)
	}
	out, err := s.seats.CountByCategory(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

// Stats reports tickets sold, revenue and fill rate. Only the organizer of the
// event may read them.
func (s *EventService) Stats(ctx context.Context, eventID, organizerID uint64) (*model.EventStats, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if ev.OrganizerID != organizerID {
		return nil, apperr.Forbidden("event %d belongs to another organizer", eventID)
	}
	counts, err := s.seats.CountByCategory(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	stats := &model.EventStats{EventID: ev.ID, EventName: ev.Name, Categories: make([]model.CategoryStats, 0, len(counts))}
	for _, c := range counts {
		stats.Categories = append(stats.Categories, model.CategoryStats{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			TicketsSold:  c.Reserved,
			Capacity:     c.Capacity,
			RevenueCents: c.ReservedCents,
			FillRate:     fillRate(c.Reserved, c.Capacity),
		})
		stats.TicketsSold += c.Reserved
		stats.Capacity += c.Capacity
		stats.RevenueCents += c.ReservedCents
	}
	stats.FillRate = fillRate(stats.TicketsSold, stats.Capacity)
	return stats, nil
}

func fillRate(sold, capacity int) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(sold) / float64(capacity)
}
