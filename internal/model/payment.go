package model

import "time"

type PaymentStatus string

const PaymentPaid PaymentStatus = "PAID"

// Payment records a successful charge for a reservation (one per reservation).
type Payment struct {
	ID              uint64        `db:"id" json:"id"`
	ReservationID   uint64        `db:"reservation_id" json:"reservation_id"`
	Reference       string        `db:"reference" json:"reference"`
	AmountCents     int64         `db:"amount_cents" json:"amount_cents"`
	Status          PaymentStatus `db:"status" json:"status"`
	CardHolder      string        `db:"card_holder" json:"card_holder"`
	CardLast4       string        `db:"card_last4" json:"card_last4"`
	CardFingerprint string        `db:"card_fingerprint" json:"-"`
	PaidAt          time.Time     `db:"paid_at" json:"paid_at"`
}

// Card is the payment instrument submitted by the client. It is never stored
// as is.
type Card struct {
	Holder string `json:"holder" validate:"required"`
	Number string `json:"number" validate:"required"`
}
