package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-reservation/internal/apperr"
	"github.com/iliyamo/event-seat-reservation/internal/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:            http.StatusBadRequest,
	apperr.KindPaymentDeclined:       http.StatusPaymentRequired,
	apperr.KindForbidden:             http.StatusForbidden,
	apperr.KindNotFound:              http.StatusNotFound,
	apperr.KindInsufficientInventory: http.StatusConflict,
	apperr.KindConflict:              http.StatusConflict,
	apperr.KindLateCancellation:      http.StatusUnprocessableEntity,
	apperr.KindPersistence:           http.StatusServiceUnavailable,
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	if code, ok := kindStatus[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// writeKinded writes err as an ErrorResponse. Persistence failures are
// logged with their cause and answered with a generic retry message.
func writeKinded(c echo.Context, err error) error {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Bool("retryable", apperr.IsRetryable(err)),
			zap.Error(err))
	}
	if code == http.StatusServiceUnavailable && apperr.IsRetryable(err) {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(code, ErrorResponse{Error: string(apperr.KindOf(err)), Message: apperr.MessageOf(err)})
}

// CustomHTTPErrorHandler renders every error returned by a handler or
// middleware: echo errors keep their status, kinded errors map through
// StatusOf.
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.Error("server error", zap.Int("status", he.Code), zap.String("path", c.Request().URL.Path), zap.Error(err))
		}
		body := ErrorResponse{Error: httpCode(he.Code), Message: msg}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			logger.Error("write error response", zap.Error(err))
		}
		return
	}

	if err := writeKinded(c, err); err != nil {
		logger.Error("write error response", zap.Error(err))
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(apperr.KindValidation)
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return string(apperr.KindForbidden)
	case http.StatusNotFound:
		return string(apperr.KindNotFound)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "BAD_REQUEST"
}
