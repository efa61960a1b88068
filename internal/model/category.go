package model

// SeatCategory is a pricing and capacity group of seats within one event.
// Names are shared across events; price and capacity are per event.
type SeatCategory struct {
	ID         uint64 `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	Capacity   int    `db:"capacity" json:"capacity"`
}

// CategorySpec describes a category to create when an event is published.
type CategorySpec struct {
	Name       string `json:"name" validate:"required,max=64"`
	PriceCents int64  `json:"price_cents" validate:"gte=0"`
	Capacity   int    `json:"capacity" validate:"gte=1,lte=100000"`
}
