package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/clock"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/metrics"
	"github.com/iliyamo/event-seat-reservation/internal/queue"
)

// ReservationService allocates seats to clients. Each call is one short
// transaction: lock free seats, flip them, insert the reservation, commit.
type ReservationService struct {
	tx           TxBeginner
	seats        SeatInventory
	reservations ReservationStore
	events       EventStore
	categories   CategoryStore
	publisher    Publisher
	clock        clock.Clock
	metrics      *metrics.Metrics
}

// NewReservationService wires the engine. publisher may be nil.
func NewReservationService(
	tx TxBeginner,
	seats SeatInventory,
	reservations ReservationStore,
	events EventStore,
	categories CategoryStore,
	publisher Publisher,
	clk clock.Clock,
	m *metrics.Metrics,
) *ReservationService {
	return &ReservationService{
		tx:           tx,
		seats:        seats,
		reservations: reservations,
		events:       events,
		categories:   categories,
		publisher:    publisher,
		clock:        clk,
		metrics:      m,
	}
}

// Reserve takes quantity free seats of one category for clientID, all or
// nothing. It returns VALIDATION_ERROR before any transaction for bad input,
// NOT_FOUND for an unknown event or category, INSUFFICIENT_INVENTORY when
// fewer seats are free and PERSISTENCE_ERROR for storage failures.
func (s *ReservationService) Reserve(ctx context.Context, clientID, eventID, categoryID uint64, quantity int) (*model.Reservation, error) {
	if quantity < 1 {
		s.count("invalid")
		return nil, apperr.Validation("quantity must be at least 1, got %d", quantity)
	}
	if clientID == 0 || eventID == 0 || categoryID == 0 {
		s.count("invalid")
		return nil, apperr.Validation("client, event and category are required")
	}

	ev, err := s.checkCategory(ctx, eventID, categoryID)
	if err != nil {
		s.count(outcome(err))
		return nil, err
	}

	start := time.Now()
	res, err := s.reserveTx(ctx, clientID, ev, categoryID, quantity)
	s.metrics.TxDuration.WithLabelValues("reserve").Observe(time.Since(start).Seconds())
	if err != nil {
		s.count(outcome(err))
		if apperr.KindOf(err) == apperr.KindPersistence {
			logger.Error("reserve failed",
				zap.Uint64("client_id", clientID),
				zap.Uint64("event_id", eventID),
				zap.Uint64("category_id", categoryID),
				zap.Int("quantity", quantity),
				zap.Error(err))
		}
		return nil, err
	}

	s.count("success")
	s.metrics.SeatsReservedTotal.Add(float64(len(res.Seats)))
	logger.Info("reservation confirmed",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("client_id", clientID),
		zap.Uint64("event_id", eventID),
		zap.Int("seats", len(res.Seats)),
		zap.Int64("total_cents", res.TotalCents))
	s.publish(ctx, queue.NewConfirmedEvent(res, ev, s.clock.Now()))
	return res, nil
}

// checkCategory reads the catalog outside the transaction; it is immutable
// once published.
func (s *ReservationService) checkCategory(ctx context.Context, eventID, categoryID uint64) (*model.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if !s.clock.Now().Before(ev.StartsAt) {
		return nil, apperr.Validation("event %d has already started", eventID)
	}
	cats, err := s.categories.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	for _, c := range cats {
		if c.ID == categoryID {
			return ev, nil
		}
	}
	return nil, apperr.NotFound("category %d is not offered for event %d", categoryID, eventID)
}

func (s *ReservationService) reserveTx(ctx context.Context, clientID uint64, ev *model.Event, categoryID uint64, quantity int) (*model.Reservation, error) {
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

	seats, err := s.seats.SelectFreeSeatsTx(ctx, tx, ev.ID, categoryID, quantity)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	ids := model.SeatIDs(seats)
	if err := s.seats.MarkReservedTx(ctx, tx, ids); err != nil {
		return nil, apperr.Persistence(err)
	}
	for i := range seats {
		seats[i].Status = model.SeatReserved
	}

	res := &model.Reservation{
		ClientID:      clientID,
		EventID:       ev.ID,
		CategoryID:    categoryID,
		CreatedAt:     s.clock.Now(),
		EventStartsAt: ev.StartsAt,
		Seats:         seats,
		TotalCents:    model.TotalOf(seats),
	}
	if err := s.reservations.CreateTx(ctx, tx, res); err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence(err)
	}
	committed = true
	return res, nil
}

// Get returns a reservation owned by clientID.
func (s *ReservationService) Get(ctx context.Context, reservationID, clientID uint64) (*model.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if res.ClientID != clientID {
		return nil, apperr.Forbidden("reservation %d belongs to another client", reservationID)
	}
	return res, nil
}

// List returns the client's reservations, newest first.
func (s *ReservationService) List(ctx context.Context, clientID uint64) ([]model.ReservationSummary, error) {
	out, err := s.reservations.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return out, nil
}

func (s *ReservationService) count(status string) {
	s.metrics.ReservationsTotal.WithLabelValues(status).Inc()
}

func (s *ReservationService) publish(ctx context.Context, ev queue.ReservationEvent) {
	publish(ctx, s.publisher, ev)
}

// publish is best effort: the reservation is already committed.
func publish(ctx context.Context, p Publisher, ev queue.ReservationEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("publish reservation event failed",
			zap.String("type", ev.Type),
			zap.Uint64("reservation_id", ev.ReservationID),
			zap.Error(err))
	}
}

// outcome maps an error to a metrics label.
func outcome(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindInsufficientInventory:
		return "insufficient"
	case apperr.KindNotFound:
		return "not_found"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindLateCancellation:
		return "late"
	case apperr.KindConflict:
		return "conflict"
	case apperr.KindPaymentDeclined:
		return "declined"
	}
	return "error"
}
