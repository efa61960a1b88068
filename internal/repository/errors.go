// Package repository implements MySQL storage for events, categories, seats,
// reservations and payments. Business outcomes (missing rows, not enough free
// seats, duplicates) are returned as apperr kinds; any other error is the raw
// driver error and callers treat it as a persistence failure.
package repository

import (
	"github.com/iliyamo/event-seat-reservation/internal/apperr"
)

func errEventNotFound(id uint64) error {
	return apperr.NotFound("event %d not found", id)
}

func errReservationNotFound(id uint64) error {
	return apperr.NotFound("reservation %d not found", id)
}

func errPaymentNotFound(reservationID uint64) error {
	return apperr.NotFound("no payment recorded for reservation %d", reservationID)
}

// errAlreadyPaid is returned when a second payment is recorded for a reservation.
func errAlreadyPaid(reservationID uint64) error {
	return apperr.New(apperr.KindConflict, "reservation %d is already paid", reservationID)
}
