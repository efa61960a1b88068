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

// DefaultCancelCutoff is how long before the event cancellations close.
const DefaultCancelCutoff = 24 * time.Hour

// CancellationService releases a reservation's seats and deletes it.
type CancellationService struct {
	tx           TxBeginner
	seats        SeatInventory
	reservations ReservationStore
	publisher    Publisher
	clock        clock.Clock
	cutoff       time.Duration
	metrics      *metrics.Metrics
}

// NewCancellationService wires the engine. A non-positive cutoff falls back
// to DefaultCancelCutoff; publisher may be nil.
func NewCancellationService(
	tx TxBeginner,
	seats SeatInventory,
	reservations ReservationStore,
	publisher Publisher,
	clk clock.Clock,
	cutoff time.Duration,
	m *metrics.Metrics,
) *CancellationService {
	if cutoff <= 0 {
		cutoff = DefaultCancelCutoff
	}
	return &CancellationService{
		tx:           tx,
		seats:        seats,
		reservations: reservations,
		publisher:    publisher,
		clock:        clk,
		cutoff:       cutoff,
		metrics:      m,
	}
}

// Cancel deletes reservationID on behalf of clientID and frees its seats, in
// one transaction. It returns NOT_FOUND, FORBIDDEN or LATE_CANCELLATION
// without touching any row.
func (s *CancellationService) Cancel(ctx context.Context, reservationID, clientID uint64) error {
	start := time.Now()
	res, err := s.cancelTx(ctx, reservationID, clientID)
	s.metrics.TxDuration.WithLabelValues("cancel").Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.CancellationsTotal.WithLabelValues(outcome(err)).Inc()
		if apperr.KindOf(err) == apperr.KindPersistence {
			logger.Error("cancel failed",
				zap.Uint64("reservation_id", reservationID),
				zap.Uint64("client_id", clientID),
				zap.Error(err))
		}
		return err
	}

	s.metrics.CancellationsTotal.WithLabelValues("success").Inc()
	logger.Info("reservation cancelled",
		zap.Uint64("reservation_id", reservationID),
		zap.Uint64("client_id", clientID),
		zap.Int("seats_released", len(res.Seats)))
	publish(ctx, s.publisher, queue.NewCancelledEvent(res, s.clock.Now()))
	return nil
}

// Cutoff returns the instant after which a reservation for an event starting
// at startsAt can no longer be cancelled.
func (s *CancellationService) Cutoff(startsAt time.Time) time.Time {
	return startsAt.Add(-s.cutoff)
}

func (s *CancellationService) cancelTx(ctx context.Context, reservationID, clientID uint64) (*model.Reservation, error) {
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

	res, err := s.reservations.LockTx(ctx, tx, reservationID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if res.ClientID != clientID {
		return nil, apperr.Forbidden("reservation %d belongs to another client", reservationID)
	}
	cutoff := s.Cutoff(res.EventStartsAt)
	if !s.clock.Now().Before(cutoff) {
		return nil, apperr.New(apperr.KindLateCancellation,
			"cancellations close %.0f hours before the event; the cutoff for this reservation was %s",
			s.cutoff.Hours(), cutoff.UTC().Format(time.RFC3339))
	}

	seats, err := s.seats.LockSeatsTx(ctx, tx, model.SeatIDs(res.Seats))
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := s.seats.MarkFreeTx(ctx, tx, model.SeatIDs(seats)); err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := s.reservations.DeleteTx(ctx, tx, reservationID); err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence(err)
	}
	committed = true

	res.Seats = seats
	res.TotalCents = model.TotalOf(seats)
	return res, nil
}
