package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/clock"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/metrics"
	"github.com/iliyamo/event-seat-reservation/internal/utils"
)

// PaymentService charges confirmed reservations. Seats stay RESERVED whatever
// the outcome; unpaid reservations are released only by an explicit cancel.
type PaymentService struct {
	tx           TxBeginner
	seats        SeatInventory
	reservations ReservationStore
	payments     PaymentStore
	gateway      Gateway
	clock        clock.Clock
	metrics      *metrics.Metrics
	hashCost     int
}

func NewPaymentService(
	tx TxBeginner,
	seats SeatInventory,
	reservations ReservationStore,
	payments PaymentStore,
	gateway Gateway,
	clk clock.Clock,
	m *metrics.Metrics,
) *PaymentService {
	return &PaymentService{
		tx:           tx,
		seats:        seats,
		reservations: reservations,
		payments:     payments,
		gateway:      gateway,
		clock:        clk,
		metrics:      m,
	}
}

// Charge pays reservationID for its owner. The reservation row is locked for
// the duration so a concurrent cancel cannot delete it underneath.
func (s *PaymentService) Charge(ctx context.Context, reservationID, clientID uint64, card model.Card) (*model.Payment, error) {
	p, err := s.chargeTx(ctx, reservationID, clientID, card)
	if err != nil {
		s.metrics.PaymentsTotal.WithLabelValues(outcome(err)).Inc()
		if apperr.KindOf(err) == apperr.KindPersistence {
			logger.Error("charge failed", zap.Uint64("reservation_id", reservationID), zap.Error(err))
		} else {
			logger.Info("charge refused",
				zap.Uint64("reservation_id", reservationID),
				zap.String("code", string(apperr.KindOf(err))))
		}
		return nil, err
	}
	s.metrics.PaymentsTotal.WithLabelValues("paid").Inc()
	logger.Info("reservation paid",
		zap.Uint64("reservation_id", reservationID),
		zap.String("reference", p.Reference),
		zap.Int64("amount_cents", p.AmountCents))
	return p, nil
}

func (s *PaymentService) chargeTx(ctx context.Context, reservationID, clientID uint64, card model.Card) (*model.Payment, error) {
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
	switch _, err := s.payments.GetByReservation(ctx, reservationID); {
	case err == nil:
		return nil, apperr.New(apperr.KindConflict, "reservation %d is already paid", reservationID)
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, apperr.Persistence(err)
	}
	seats, err := s.seats.LockSeatsTx(ctx, tx, model.SeatIDs(res.Seats))
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	amount := model.TotalOf(seats)

	auth, err := s.gateway.Authorize(ctx, ChargeRequest{ReservationID: reservationID, AmountCents: amount, Card: card})
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	fingerprint, err := utils.FingerprintCard(card.Number, s.hashCost)
	if err != nil {
		return nil, apperr.Persistence(err)
	}

	p := &model.Payment{
		ReservationID:   reservationID,
		Reference:       auth.Reference,
		AmountCents:     amount,
		Status:          model.PaymentPaid,
		CardHolder:      strings.TrimSpace(card.Holder),
		CardLast4:       utils.LastFour(card.Number),
		CardFingerprint: fingerprint,
		PaidAt:          s.clock.Now(),
	}
	if err := s.payments.CreateTx(ctx, tx, p); err != nil {
		return nil, apperr.Persistence(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, apperr.Persistence(err)
	}
	committed = true
	return p, nil
}

// Get returns the payment of a reservation owned by clientID.
func (s *PaymentService) Get(ctx context.Context, reservationID, clientID uint64) (*model.Payment, error) {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	if res.ClientID != clientID {
		return nil, apperr.Forbidden("reservation %d belongs to another client", reservationID)
	}
	p, err := s.payments.GetByReservation(ctx, reservationID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return p, nil
}
