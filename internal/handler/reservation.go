package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/model"
	"github.com/iliyamo/event-seat-reservation/internal/receipt"
)

// ReservationHandler serves the client-facing reservation routes. Every route
// expects JWTAuth and the CLIENT role in front of it.
type ReservationHandler struct {
	reservations ReservationEngine
	cancels      CancellationEngine
	payments     PaymentProcessor
	events       EventCatalog
}

func NewReservationHandler(r ReservationEngine, c CancellationEngine, p PaymentProcessor, e EventCatalog) *ReservationHandler {
	if r == nil || c == nil || p == nil || e == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{reservations: r, cancels: c, payments: p, events: e}
}

// ReserveRequest is the body of POST /v1/reservations. Quantity and ids are
// checked by the engine so that every rule lives in one place.
type ReserveRequest struct {
	EventID    uint64 `json:"event_id"`
	CategoryID uint64 `json:"category_id"`
	Quantity   int    `json:"quantity"`
}

// Reserve handles POST /v1/reservations.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	clientID, err := getUserID(c)
	if err != nil {
		return err
	}
	var req ReserveRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	res, err := h.reservations.Reserve(c.Request().Context(), clientID, req.EventID, req.CategoryID, req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	clientID, err := getUserID(c)
	if err != nil {
		return err
	}
	out, err := h.reservations.List(c.Request().Context(), clientID)
	if err != nil {
		return err
	}
	if out == nil {
		out = []model.ReservationSummary{}
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	clientID, resID, err := h.target(c)
	if err != nil {
		return err
	}
	res, err := h.reservations.Get(c.Request().Context(), resID, clientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// Cancel handles DELETE /v1/reservations/:id and answers 204 on success.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	clientID, resID, err := h.target(c)
	if err != nil {
		return err
	}
	if err := h.cancels.Cancel(c.Request().Context(), resID, clientID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Pay handles POST /v1/reservations/:id/payment.
func (h *ReservationHandler) Pay(c echo.Context) error {
	clientID, resID, err := h.target(c)
	if err != nil {
		return err
	}
	var card model.Card
	if err := bindAndValidate(c, &card); err != nil {
		return err
	}
	p, err := h.payments.Charge(c.Request().Context(), resID, clientID, card)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Payment handles GET /v1/reservations/:id/payment.
func (h *ReservationHandler) Payment(c echo.Context) error {
	clientID, resID, err := h.target(c)
	if err != nil {
		return err
	}
	p, err := h.payments.Get(c.Request().Context(), resID, clientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Receipt handles GET /v1/reservations/:id/receipt and streams a PDF.
func (h *ReservationHandler) Receipt(c echo.Context) error {
	clientID, resID, err := h.target(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	res, err := h.reservations.Get(ctx, resID, clientID)
	if err != nil {
		return err
	}
	ev, err := h.events.Get(ctx, res.EventID)
	if err != nil {
		return err
	}
	pay, err := h.payments.Get(ctx, resID, clientID)
	if errors.Is(err, apperr.ErrNotFound) {
		pay = nil
	} else if err != nil {
		return err
	}

	pdf, err := receipt.Render(receipt.Data{
		Reservation:  res,
		Event:        &ev.Event,
		CategoryName: categoryName(ev.Categories, res.CategoryID),
		Payment:      pay,
		CancelBy:     h.cancels.Cutoff(res.EventStartsAt),
	})
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=reservation-%d.pdf", res.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// target returns the caller and the :id of the addressed reservation.
func (h *ReservationHandler) target(c echo.Context) (clientID, resID uint64, err error) {
	if clientID, err = getUserID(c); err != nil {
		return 0, 0, err
	}
	if resID, err = pathID(c, "id"); err != nil {
		return 0, 0, err
	}
	return clientID, resID, nil
}

func categoryName(cats []model.SeatCategory, id uint64) string {
	for _, cat := range cats {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}
