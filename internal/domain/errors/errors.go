package errors

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("missing or invalid credentials")
	ErrForbidden       = errors.New("permission denied")
	ErrUnknownRole     = errors.New("unknown role")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidID       = errors.New("invalid identifier")
	ErrNotFound        = errors.New("resource not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrInternal        = errors.New("internal server error")
)

// NotificationError is the uniform failure returned by the notification
// gateway. It keeps the provider's original message but presents a single
// error kind to callers.
type NotificationError struct {
	Event  string
	Reason error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification %q failed: %v", e.Event, e.Reason)
}

func (e *NotificationError) Unwrap() error { return e.Reason }
