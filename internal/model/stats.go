package model

// CategoryStats reports sales of one category.
type CategoryStats struct {
	CategoryID   uint64  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	TicketsSold  int     `json:"tickets_sold"`
	Capacity     int     `json:"capacity"`
	RevenueCents int64   `json:"revenue_cents"`
	FillRate     float64 `json:"fill_rate"`
}

// EventStats aggregates sales of an event.
type EventStats struct {
	EventID      uint64          `json:"event_id"`
	EventName    string          `json:"event_name"`
	TicketsSold  int             `json:"tickets_sold"`
	Capacity     int             `json:"capacity"`
	RevenueCents int64           `json:"revenue_cents"`
	FillRate     float64         `json:"fill_rate"`
	Categories   []CategoryStats `json:"categories"`
}
