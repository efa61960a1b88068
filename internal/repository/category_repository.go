package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
)

// CategoryRepo manages category names and their per-event price.
type CategoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo returns a new CategoryRepo bound to the given database.
func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// ListByEvent returns the categories of an event with their capacity, in id
// order. An unknown event yields an empty slice.
func (r *CategoryRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatCategory, error) {
	const q = `SELECT c.id, c.name, ec.price_cents, COUNT(s.id) AS capacity
        FROM event_categories ec
        JOIN categories c ON c.id = ec.category_id
        LEFT JOIN seats s ON s.event_id = ec.event_id AND s.category_id = ec.category_id
        WHERE ec.event_id = ?
        GROUP BY c.id, c.name, ec.price_cents
        ORDER BY c.id`
	out := []model.SeatCategory{}
	if err := r.db.SelectContext(ctx, &out, q, eventID); err != nil {
		return nil, err
	}
	return out, nil
}

// FindOrCreateTx returns the id of the category named name. Names compare
// case-insensitively through the column collation; the first spelling wins.
func (r *CategoryRepo) FindOrCreateTx(ctx context.Context, tx database.Tx, name string) (uint64, error) {
	t, err := database.Unwrap(tx)
	if err != nil {
		return 0, err
	}
	// LAST_INSERT_ID(id) makes the existing row's id visible through the result
	const q = `INSERT INTO categories (name) VALUES (?) ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
	res, err := t.ExecContext(ctx, q, strings.TrimSpace(name))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// AttachTx links a category to an event at the given seat price.
func (r *CategoryRepo) AttachTx(ctx context.Context, tx database.Tx, eventID, categoryID uint64, priceCents int64) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	_, err = t.ExecContext(ctx,
		`INSERT INTO event_categories (event_id, category_id, price_cents) VALUES (?, ?, ?)`,
		eventID, categoryID, priceCents)
	return err
}
