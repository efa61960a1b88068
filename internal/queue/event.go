// Package queue defines the reservation messages exchanged over RabbitMQ, the
// publisher used by the engines and the audit-log consumer.
package queue

import (
	"time"

	"github.com/iliyamo/event-seat-reservation/internal/model"
)

const (
	TypeReservationConfirmed = "reservation.confirmed"
	TypeReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is committed or deleted.
// It carries enough for consumers to log or notify without querying the
// database.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	ClientID      uint64    `json:"client_id"`
	EventID       uint64    `json:"event_id"`
	EventName     string    `json:"event_name,omitempty"`
	CategoryID    uint64    `json:"category_id"`
	SeatIDs       []uint64  `json:"seat_ids"`
	TotalCents    int64     `json:"total_cents"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func NewConfirmedEvent(res *model.Reservation, ev *model.Event, at time.Time) ReservationEvent {
	out := fromReservation(TypeReservationConfirmed, res, at)
	if ev != nil {
		out.EventName = ev.Name
	}
	return out
}

func NewCancelledEvent(res *model.Reservation, at time.Time) ReservationEvent {
	return fromReservation(TypeReservationCancelled, res, at)
}

func fromReservation(typ string, res *model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		ClientID:      res.ClientID,
		EventID:       res.EventID,
		CategoryID:    res.CategoryID,
		SeatIDs:       model.SeatIDs(res.Seats),
		TotalCents:    res.TotalCents,
		OccurredAt:    at.UTC(),
	}
}
