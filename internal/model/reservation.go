package model

import "time"

// Reservation binds one client to a fixed, non-empty set of seats of a single
// event category.
type Reservation struct {
	ID            uint64    `db:"id" json:"id"`
	ClientID      uint64    `db:"client_id" json:"client_id"`
	EventID       uint64    `db:"event_id" json:"event_id"`
	CategoryID    uint64    `db:"category_id" json:"category_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	EventStartsAt time.Time `db:"event_starts_at" json:"event_starts_at"`
	Seats         []Seat    `db:"-" json:"seats"`
	TotalCents    int64     `db:"-" json:"total_cents"`
}

// TotalOf sums the seat prices.
func TotalOf(seats []Seat) int64 {
	var total int64
	for _, s := range seats {
		total += s.PriceCents
	}
	return total
}

// ReservationSummary is the read-only listing row of a client's reservation.
type ReservationSummary struct {
	ID            uint64    `db:"id" json:"id"`
	EventID       uint64    `db:"event_id" json:"event_id"`
	EventName     string    `db:"event_name" json:"event_name"`
	EventStartsAt time.Time `db:"event_starts_at" json:"event_starts_at"`
	CategoryName  string    `db:"category_name" json:"category_name"`
	Quantity      int       `db:"quantity" json:"quantity"`
	TotalCents    int64     `db:"total_cents" json:"total_cents"`
	ReservedAt    time.Time `db:"created_at" json:"reserved_at"`
	PaymentStatus *string   `db:"payment_status" json:"payment_status"`
}
