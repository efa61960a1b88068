package service

import (
	"context"
	"regexp"

	"github.com/google/uuid"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/utils"
)

// ChargeRequest asks a gateway to authorize an amount on a card.
type ChargeRequest struct {
	ReservationID uint64
	AmountCents   int64
	Card          model.Card
}

// Authorization is a successful gateway answer.
type Authorization struct {
	Reference string
}

// Gateway authorizes payments. A refusal is returned as PAYMENT_DECLINED.
type Gateway interface {
	Authorize(ctx context.Context, req ChargeRequest) (Authorization, error)
}

var (
	cardHolderPattern = regexp.MustCompile(`^[a-zA-Z\s-]{3,}$`)
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
)

// CardGateway is the built-in gateway: it checks the card format and approves
// every well-formed card.
type CardGateway struct {
	newReference func() string
}

func NewCardGateway() *CardGateway {
	return &CardGateway{newReference: uuid.NewString}
}

func (g *CardGateway) Authorize(_ context.Context, req ChargeRequest) (Authorization, error) {
	if !cardHolderPattern.MatchString(req.Card.Holder) {
		return Authorization{}, apperr.New(apperr.KindPaymentDeclined,
			"card holder must be at least 3 letters, spaces or dashes")
	}
	if !cardNumberPattern.MatchString(utils.NormalizeCardNumber(req.Card.Number)) {
		return Authorization{}, apperr.New(apperr.KindPaymentDeclined, "card number must have 16 digits")
	}
	if req.AmountCents < 0 {
		return Authorization{}, apperr.Validation("amount must not be negative")
	}
	return Authorization{Reference: g.newReference()}, nil
}
