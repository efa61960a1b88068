// Package apperr defines the error kinds surfaced by the reservation engine.
// Every failure a caller can act on carries one of these kinds; anything else
// is treated as a persistence failure.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable code of an error.
type Kind string

const (
	KindValidation            Kind = "VALIDATION_ERROR"
	KindInsufficientInventory Kind = "INSUFFICIENT_INVENTORY"
	KindNotFound              Kind = "NOT_FOUND"
	KindForbidden             Kind = "FORBIDDEN"
	KindLateCancellation      Kind = "LATE_CANCELLATION"
	KindConflict              Kind = "CONFLICT"
	KindPaymentDeclined       Kind = "PAYMENT_DECLINED"
	KindPersistence           Kind = "PERSISTENCE_ERROR"
)

// Error is a kinded error. Message is safe to show to the end user, Err keeps
// the underlying cause for logs.
type Error struct {
	Kind      Kind
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so that errors.Is(err, apperr.ErrNotFound) works
// for any *Error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation            = &Error{Kind: KindValidation}
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrForbidden             = &Error{Kind: KindForbidden}
	ErrLateCancellation      = &Error{Kind: KindLateCancellation}
	ErrConflict              = &Error{Kind: KindConflict}
	ErrPaymentDeclined       = &Error{Kind: KindPaymentDeclined}
	ErrPersistence           = &Error{Kind: KindPersistence}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// InsufficientInventory reports that fewer than requested seats were free.
func InsufficientInventory(requested, available int) *Error {
	return New(KindInsufficientInventory, "requested %d seats but only %d are available", requested, available)
}

// Persistence wraps an infrastructure failure. Returns nil for a nil error and
// leaves already-kinded errors untouched.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindPersistence, Message: "storage failure", Err: err, Retryable: isRetryable(err)}
}

// KindOf returns the kind of err, or KindPersistence for unkinded errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindPersistence
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" && ae.Kind != KindPersistence {
		return ae.Message
	}
	return "temporary failure, please retry"
}

// IsRetryable reports whether the whole operation may be retried as is.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}
