/*
errors.go - Centralized error types for the calendar engine

PURPOSE:
  All engine error types in one place. Callers match with errors.Is/As;
  the API layer maps categories to HTTP statuses via the helpers below.

ERROR CATEGORIES:
  1. Request errors  - Bad ranges, unknown employees (fail the whole call)
  2. Upstream errors - A collaborator store unreachable during backfill
                       (retried, then isolated to the affected day)

  A day that cannot be classified (no shift, no exception) is NOT an
  error: it is recorded on the row as StatusSkipped and the range call
  still succeeds.

SEE ALSO:
  - sync.go: Retry/backoff and per-day failure isolation
  - engine.go: Range-level validation
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
	// ErrEmployeeNotFound is returned when a supplied employee id does not
	// resolve, including via soft-deleted records.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidRange is returned when the range start is after its end.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrMalformedDate is returned when a raw date string does not parse
	// as YYYY-MM-DD.
	ErrMalformedDate = errors.New("malformed date")

	// ErrUpstreamUnavailable is returned when a collaborator store cannot be
	// reached. The synchronizer retries with backoff; if retries are
	// exhausted the affected day is marked pending, not failed.
	ErrUpstreamUnavailable = errors.New("upstream store unavailable")

	// ErrNoShift is the internal sentinel for a date with no shift
	// assignment. Never surfaced to callers; the classifier turns it into
	// a skipped-day candidate.
	ErrNoShift = errors.New("no shift assignment for date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RangeError describes a rejected date range.
type RangeError struct {
	Start Date
	End   Date
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid range: start %s after end %s", e.Start, e.End)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// UpstreamError identifies which collaborator failed during backfill.
type UpstreamError struct {
	Store string // "punches", "shifts", "holidays", "exceptions"
	Date  Date
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s store unavailable for %s: %v", e.Store, e.Date, e.Err)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstreamUnavailable }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrMalformedDate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
