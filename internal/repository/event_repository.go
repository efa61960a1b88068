package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
)

const eventColumns = `id, organizer_id, name, kind, starts_at, location, special_guest, created_at`

// EventRepo reads and publishes events.
type EventRepo struct {
	db *sqlx.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sqlx.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID returns NOT_FOUND when the event does not exist.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	var ev model.Event
	err := r.db.GetContext(ctx, &ev, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errEventNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// List returns events starting at or after from, earliest first.
func (r *EventRepo) List(ctx context.Context, from time.Time) ([]model.Event, error) {
	const q = `SELECT ` + eventColumns + ` FROM events WHERE starts_at >= ? ORDER BY starts_at, id`
	events := []model.Event{}
	if err := r.db.SelectContext(ctx, &events, q, from.UTC()); err != nil {
		return nil, err
	}
	return events, nil
}

// CreateTx inserts the event and sets its generated id and creation time.
func (r *EventRepo) CreateTx(ctx context.Context, tx database.Tx, ev *model.Event) error {
	t, err := database.Unwrap(tx)
	if err != nil {
		return err
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO events (organizer_id, name, kind, starts_at, location, special_guest, created_at)
        VALUES (:organizer_id, :name, :kind, :starts_at, :location, :special_guest, :created_at)`
	res, err := t.NamedExecContext(ctx, q, ev)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}
