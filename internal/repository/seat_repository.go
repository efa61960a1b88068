package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
)

// seatInsertBatch bounds the number of rows per multi-row INSERT so the
// statement stays below max_allowed_packet and the 65535 placeholder limit.
const seatInsertBatch = 1000

const seatColumns = `id, event_id, category_id, price_cents, status`

// SeatRepo owns seat inventory. Status changes happen only inside a
// transaction that has already locked the rows with SELECT ... FOR UPDATE.
type SeatRepo struct {
	db *sqlx.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sqlx.DB) *SeatRepo { return &SeatRepo{db: db} }

// SelectFreeSeatsTx locks the first quantity free seats of a category in
// ascending id order. When fewer are free it returns INSUFFICIENT_INVENTORY
// and no seats; the caller must roll back.
func (r *SeatRepo) SelectFreeSeatsTx(ctx context.Context, tx database.Tx, eventID, categoryID uint64, quantity int) ([]model.Seat, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	t, err := database.Unwrap(tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT ` + seatColumns + ` FROM seats
        WHERE event_id = ? AND category_id = ? AND status = 'FREE'
        ORDER BY id
        LIMIT ?
        FOR UPDATE`
	var seats []model.Seat
	if err := t.SelectContext(ctx, &seats, q, eventID, categoryID, quantity); err != nil {
		return nil, err
	}
	if len(seats) < quantity {
		return nil, apperr.InsufficientInventory(quantity, len(seats))
	}
	return seats, nil
}

// LockSeatsTx locks the given seats in ascending id order and returns them.
func (r *SeatRepo) LockSeatsTx(ctx context.Context, tx database.Tx, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	t, err := database.Unwrap(tx)
	if err != nil {
		return nil, err
	}
	q, args, err := sqlx.In(`SELECT `+seatColumns+` FROM seats WHERE id IN (?) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	var seats []model.Seat
	if err := t.SelectContext(ctx, &seats, t.Rebind(q), args...); err != nil {
		return nil, err
	}
	return seats, nil
}

// MarkReservedTx flips the given locked seats to RESERVED.
func (r *SeatRepo) MarkReservedTx(ctx context.Context, tx database.Tx, ids []uint64) error {
	return r.setStatusTx(ctx, tx, ids, model.SeatReserved)
}

// MarkFreeTx flips the given locked seats back to FREE.
func (r *SeatRepo) MarkFreeTx(ctx context.Context, tx database.Tx, ids []uint64) error {
	return r.setStatusTx(ctx, tx, ids, model.SeatFree)
}

func (r *SeatRepo) setStatusTx(ctx context.Context, tx database.Tx, ids []uint64, status model.SeatStatus) error {
	if len(ids) == 0 {
		return nil
	}
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	q, args, err := sqlx.In(`UPDATE seats SET status = ? WHERE id IN (?)`, status, ids)
	if err != nil {
		return err
	}
	_, err = t.ExecContext(ctx, t.Rebind(q), args...)
	return err
}

// CreateBulkTx inserts seats with multi-row INSERT statements.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx database.Tx, seats []model.Seat) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	for start := 0; start < len(seats); start += seatInsertBatch {
		end := min(start+seatInsertBatch, len(seats))
		batch := seats[start:end]

		var sb strings.Builder
		sb.WriteString(`INSERT INTO seats (event_id, category_id, price_cents, status) VALUES `)
		args := make([]any, 0, len(batch)*4)
		for i, s := range batch {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?)")
			status := s.Status
			if status == "" {
				status = model.SeatFree
			}
			args = append(args, s.EventID, s.CategoryID, s.PriceCents, status)
		}
		if _, err := t.ExecContext(ctx, sb.String(), args...); err != nil {
			return err
		}
	}
	return nil
}

// CountByCategory returns free, reserved and total seats for every category
// of an event. Plain reads; counts may be stale by the time they are used.
func (r *SeatRepo) CountByCategory(ctx context.Context, eventID uint64) ([]model.CategoryAvailability, error) {
	const q = `SELECT ec.category_id, c.name AS category_name, ec.price_cents,
            COALESCE(SUM(s.status = 'FREE'), 0) AS free,
            COALESCE(SUM(s.status = 'RESERVED'), 0) AS reserved,
            COUNT(s.id) AS capacity,
            COALESCE(SUM(CASE WHEN s.status = 'RESERVED' THEN s.price_cents ELSE 0 END), 0) AS reserved_cents
        FROM event_categories ec
        JOIN categories c ON c.id = ec.category_id
        LEFT JOIN seats s ON s.event_id = ec.event_id AND s.category_id = ec.category_id
        WHERE ec.event_id = ?
        GROUP BY ec.category_id, c.name, ec.price_cents
        ORDER BY ec.category_id`
	var out []model.CategoryAvailability
	if err := r.db.SelectContext(ctx, &out, q, eventID); err != nil {
		return nil, err
	}
	return out, nil
}
