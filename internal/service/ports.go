package service

import (
	"context"
	"time"

	"github.com/iliyamo/event-seat-reservation/internal/database"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/queue"
)

// TxBeginner opens the transaction every write operation runs in.
type TxBeginner interface {
	Begin(ctx context.Context) (database.Tx, error)
}

// SeatInventory selects, locks and flips seats. Every method runs inside the
// caller's transaction.
type SeatInventory interface {
	SelectFreeSeatsTx(ctx context.Context, tx database.Tx, eventID, categoryID uint64, quantity int) ([]model.Seat, error)
	LockSeatsTx(ctx context.Context, tx database.Tx, ids []uint64) ([]model.Seat, error)
	MarkReservedTx(ctx context.Context, tx database.Tx, ids []uint64) error
	MarkFreeTx(ctx context.Context, tx database.Tx, ids []uint64) error
}

// SeatCatalog creates seats when an event is published and counts them.
type SeatCatalog interface {
	CreateBulkTx(ctx context.Context, tx database.Tx, seats []model.Seat) error
	CountByCategory(ctx context.Context, eventID uint64) ([]model.CategoryAvailability, error)
}

type ReservationStore interface {
	CreateTx(ctx context.Context, tx database.Tx, res *model.Reservation) error
	LockTx(ctx context.Context, tx database.Tx, id uint64) (*model.Reservation, error)
	DeleteTx(ctx context.Context, tx database.Tx, id uint64) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	ListByClient(ctx context.Context, clientID uint64) ([]model.ReservationSummary, error)
}

type PaymentStore interface {
	CreateTx(ctx context.Context, tx database.Tx, p *model.Payment) error
	GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error)
}

type EventStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	List(ctx context.Context, from time.Time) ([]model.Event, error)
	Search(ctx context.Context, q model.EventQuery) ([]model.Event, int64, error)
	CreateTx(ctx context.Context, tx database.Tx, ev *model.Event) error
}

type CategoryStore interface {
	ListByEvent(ctx context.Context, eventID uint64) ([]model.SeatCategory, error)
	FindOrCreateTx(ctx context.Context, tx database.Tx, name string) (uint64, error)
	AttachTx(ctx context.Context, tx database.Tx, eventID, categoryID uint64, priceCents int64) error
}

// Publisher emits reservation lifecycle messages after commit.
type Publisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
