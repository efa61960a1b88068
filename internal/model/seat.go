package model

// SeatStatus is the inventory state of a seat.
type SeatStatus string

const (
	SeatFree     SeatStatus = "FREE"
	SeatReserved SeatStatus = "RESERVED"
)

// Seat is the smallest inventory unit. It belongs to exactly one event and one
// category for its whole life.
type Seat struct {
	ID         uint64     `db:"id" json:"id"`
	EventID    uint64     `db:"event_id" json:"event_id"`
	CategoryID uint64     `db:"category_id" json:"category_id"`
	PriceCents int64      `db:"price_cents" json:"price_cents"`
	Status     SeatStatus `db:"status" json:"status"`
}

// SeatIDs returns the ids of seats in order.
func SeatIDs(seats []Seat) []uint64 {
	ids := make([]uint64, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}

// CategoryAvailability is the live seat count of one category.
type CategoryAvailability struct {
	CategoryID   uint64 `db:"category_id" json:"category_id"`
	CategoryName string `db:"category_name" json:"category_name"`
	PriceCents   int64  `db:"price_cents" json:"price_cents"`
	Free         int    `db:"free" json:"free"`
	Reserved     int    `db:"reserved" json:"reserved"`
	Capacity     int    `db:"capacity" json:"capacity"`
	// sum of prices of reserved seats
	ReservedCents int64 `db:"reserved_cents" json:"-"`
}
