package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
)

const paymentColumns = `id, reservation_id, reference, amount_cents, status, card_holder, card_last4, card_fingerprint, paid_at`

// PaymentRepo records payments; at most one per reservation.
type PaymentRepo struct {
	db *sqlx.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts p and sets its id. A second payment for the same
// reservation returns CONFLICT.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx database.Tx, p *model.Payment) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	const q = `INSERT INTO payments (reservation_id, reference, amount_cents, status, card_holder, card_last4, card_fingerprint, paid_at)
        VALUES (:reservation_id, :reference, :amount_cents, :status, :card_holder, :card_last4, :card_fingerprint, :paid_at)`
	res, err := t.NamedExecContext(ctx, q, p)
	if err != nil {
		if apperr.IsDuplicate(err) {
			return errAlreadyPaid(p.ReservationID)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByReservation returns NOT_FOUND when the reservation has no payment.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	var p model.Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE reservation_id = ?`, reservationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errPaymentNotFound(reservationID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
