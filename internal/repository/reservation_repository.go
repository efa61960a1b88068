package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
)

// ReservationRepo stores reservations and their seat links. A reservation
// owns its reservation_seats rows: they are created and deleted with it.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx inserts the reservation row and one link row per seat. The seats
// must already be locked and marked RESERVED by the same transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx database.Tx, res *model.Reservation) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO reservations (client_id, event_id, category_id, created_at) VALUES (?, ?, ?, ?)`
	result, err := t.ExecContext(ctx, q, res.ClientID, res.EventID, res.CategoryID, res.CreatedAt)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	var sb strings.Builder
	sb.WriteString(`INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `)
	args := make([]any, 0, len(res.Seats)*2)
	for i, s := range res.Seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?)")
		args = append(args, res.ID, s.ID)
	}
	_, err = t.ExecContext(ctx, sb.String(), args...)
	return err
}

// LockTx locks the reservation row and returns it with the event start time
// and its seat ids (prices are not loaded). Returns NOT_FOUND when absent.
func (r *ReservationRepo) LockTx(ctx context.Context, tx database.Tx, id uint64) (*model.Reservation, error) {
	t, err := database.Unwrap(tx)
	if err != nil {
		return nil, err
	}
	const q = `SELECT r.id, r.client_id, r.event_id, r.category_id, r.created_at, e.starts_at AS event_starts_at
        FROM reservations r
        JOIN events e ON e.id = r.event_id
        WHERE r.id = ?
        FOR UPDATE OF r`
	var res model.Reservation
	if err := t.GetContext(ctx, &res, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errReservationNotFound(id)
		}
		return nil, err
	}
	var seatIDs []uint64
	if err := t.SelectContext(ctx, &seatIDs,
		`SELECT seat_id FROM reservation_seats WHERE reservation_id = ? ORDER BY seat_id`, id); err != nil {
		return nil, err
	}
	res.Seats = make([]model.Seat, len(seatIDs))
	for i, sid := range seatIDs {
		res.Seats[i] = model.Seat{ID: sid, EventID: res.EventID, CategoryID: res.CategoryID, Status: model.SeatReserved}
	}
	return &res, nil
}

// DeleteTx removes the seat links, any payment and the reservation row.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx database.Tx, id uint64) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	for _, q := range []string{
		`DELETE FROM reservation_seats WHERE reservation_id = ?`,
		`DELETE FROM payments WHERE reservation_id = ?`,
	} {
		if _, err := t.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	result, err := t.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errReservationNotFound(id)
	}
	return nil
}

// GetByID returns a reservation with its seats and total.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT r.id, r.client_id, r.event_id, r.category_id, r.created_at, e.starts_at AS event_starts_at
        FROM reservations r
        JOIN events e ON e.id = r.event_id
        WHERE r.id = ?`
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errReservationNotFound(id)
		}
		return nil, err
	}
	const sq = `SELECT s.id, s.event_id, s.category_id, s.price_cents, s.status
        FROM reservation_seats rs
        JOIN seats s ON s.id = rs.seat_id
        WHERE rs.reservation_id = ?
        ORDER BY s.id`
	if err := r.db.SelectContext(ctx, &res.Seats, sq, id); err != nil {
		return nil, err
	}
	res.TotalCents = model.TotalOf(res.Seats)
	return &res, nil
}

// ListByClient returns the client's reservations, newest first.
func (r *ReservationRepo) ListByClient(ctx context.Context, clientID uint64) ([]model.ReservationSummary, error) {
	const q = `SELECT r.id, r.event_id, e.name AS event_name, e.starts_at AS event_starts_at,
            c.name AS category_name, COUNT(rs.seat_id) AS quantity,
            COALESCE(SUM(s.price_cents), 0) AS total_cents, r.created_at, p.status AS payment_status
        FROM reservations r
        JOIN events e ON e.id = r.event_id
        JOIN categories c ON c.id = r.category_id
        JOIN reservation_seats rs ON rs.reservation_id = r.id
        JOIN seats s ON s.id = rs.seat_id
        LEFT JOIN payments p ON p.reservation_id = r.id
        WHERE r.client_id = ?
        GROUP BY r.id, r.event_id, e.name, e.starts_at, c.name, r.created_at, p.status
        ORDER BY r.created_at DESC, r.id DESC`
	out := []model.ReservationSummary{}
	if err := r.db.SelectContext(ctx, &out, q, clientID); err != nil {
		return nil, err
	}
	return out, nil
}
