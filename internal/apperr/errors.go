package apperr

import (
	"errors"
	"fmt"
)

// Caller-visible error classes. Handlers map these to HTTP statuses with
// errors.Is; everything else is a 500.
var (
	// ErrValidation marks malformed input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers both genuinely absent entities and entities
	// outside the caller's ownership scope, so a lookup cannot be used
	// to probe for other tenants' data.
	ErrNotFound = errors.New("not found")

	// ErrInvalidToken covers malformed, expired and unresolvable
	// confirmation tokens alike. It must not reveal whether the
	// underlying subscriber exists.
	ErrInvalidToken = errors.New("invalid confirmation token")
)

// Transport error classes, used only inside the dispatcher.
var (
	ErrTransient = errors.New("transient failure")
	ErrPermanent = errors.New("permanent failure")
)

// DispatchSchedulingError reports that a subscriber was durably created
// but the confirmation task could not be enqueued. The record is kept;
// a reconciliation sweep may re-enqueue later.
type DispatchSchedulingError struct {
	SubscriberID int64
	Err          error
}

func (e *DispatchSchedulingError) Error() string {
	return fmt.Sprintf("subscriber %d created but confirmation dispatch not scheduled: %v", e.SubscriberID, e.Err)
}

func (e *DispatchSchedulingError) Unwrap() error { return e.Err }

// Validationf wraps ErrValidation with a caller-facing message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Transient marks err as retryable for the dispatcher.
func Transient(err error) error {
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
