package portal

import (
	"errors"
	"fmt"

	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/settings"
	"github.com/warp/hrportal/terminal"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique field (email, employee number, group name) clashes.
	ErrDuplicate = errors.New("already exists")

	// ErrUnauthorized is returned when the caller may not perform the action.
	ErrUnauthorized = errors.New("not authorized")

	// ErrInvalidInput is returned for malformed requests that no core package rejects.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InputError describes a rejected input field.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// IsNotFound returns true if err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is caused by the caller's request
// rather than the server's state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, settings.ErrInvalidPolicy) ||
		calendar.IsClientError(err) ||
		terminal.IsClientError(err)
}
