package settings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration is returned when the Default layer is missing or
	// incomplete. Fatal for resolution; it is never patched with fallbacks.
	ErrConfiguration = errors.New("work policy configuration error")

	// ErrInvalidPolicy is returned when a layer carries an out-of-range value.
	ErrInvalidPolicy = errors.New("invalid work policy")
)

// ConfigurationError lists the Default-layer fields that are not populated.
// Missing is empty when the Default layer does not exist at all.
type ConfigurationError struct {
	Missing []Field
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) == 0 {
		return "default work policy is not initialised"
	}
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return fmt.Sprintf("default work policy is incomplete: missing %s", strings.Join(names, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// ValidationError describes a single out-of-range field.
type ValidationError struct {
	Field  Field
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPolicy
}
