/*
errors.go - Error taxonomy of the calendar engine

CATEGORIES:
  InvalidRangeError   end date before start date; rejected at the call boundary
  UnknownRegionError  holiday lookup for an unrecognised region code; never
                      treated as "no holidays"
  OverlapError        two absences of the same category share a day

None of these are retried. Computations here are pure, so there is no
transient failure mode.

USAGE:
  if errors.Is(err, calendar.ErrUnknownRegion) {
      // ask the user to select a valid holiday region
  }
*/
package calendar

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a range ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")

	// ErrUnknownRegion is returned when the holiday source does not know a region code.
	ErrUnknownRegion = errors.New("unknown holiday region")

	// ErrAbsenceOverlap is returned when two absences of the same category overlap.
	ErrAbsenceOverlap = errors.New("absence overlaps an existing absence of the same category")

	// ErrInvalidCategory is returned for an absence category outside the known set.
	ErrInvalidCategory = errors.New("invalid absence category")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError carries the offending bounds.
type InvalidRangeError struct {
	Start Day
	End   Day
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: end %s is before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// UnknownRegionError names the region code that could not be resolved.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown holiday region %q", e.Region)
}

func (e *UnknownRegionError) Unwrap() error {
	return ErrUnknownRegion
}

// OverlapError identifies the two conflicting absences.
type OverlapError struct {
	Category   AbsenceCategory
	ExistingID string
	Existing   Range
	Requested  Range
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s %s overlaps existing %s (id: %s)",
		e.Category, e.Requested, e.Existing, e.ExistingID)
}

func (e *OverlapError) Unwrap() error {
	return ErrAbsenceOverlap
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is caused by invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrUnknownRegion) ||
		errors.Is(err, ErrAbsenceOverlap) ||
		errors.Is(err, ErrInvalidCategory)
}
