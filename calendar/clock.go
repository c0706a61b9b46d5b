/*
clock.go - Daylight-saving correction for stored punch instants

PURPOSE:
  The biometric feed records punch instants as UTC wall-clock without the
  regional one-hour daylight-saving offset applied. This file computes the
  region's DST window per-year and shifts an instant into the locally
  correct hour when its day falls inside the window.

WINDOW RULE:
  [first Sunday of April, last Sunday of October) - half-open. A date on
  the opening Sunday is inside the window; a date on the closing Sunday
  is outside. Boundary Sundays are computed per-year, never hardcoded.

IDEMPOTENCE:
  CorrectInstant is pure, but the one-hour shift is not self-inverse, so
  the engine applies it exactly once: at aggregation time, when a punch is
  selected into a day row. Re-reading a materialized row never re-corrects.

SEE ALSO:
  - punches.go: The only caller during day computation
*/
package calendar

import "time"

// DSTShift is the regional daylight-saving offset missing from stored data.
const DSTShift = time.Hour

// DSTWindowStart returns the first Sunday of April for the year.
func DSTWindowStart(year int) Date {
	d := NewDate(year, time.April, 1)
	for d.Weekday() != time.Sunday {
		d = d.AddDays(1)
	}
	return d
}

// DSTWindowEnd returns the last Sunday of October for the year.
// The window excludes this date.
func DSTWindowEnd(year int) Date {
	d := NewDate(year, time.October, 31)
	for d.Weekday() != time.Sunday {
		d = d.AddDays(-1)
	}
	return d
}

// InDSTWindow reports whether the date falls inside its year's window
// [first Sunday of April, last Sunday of October).
func InDSTWindow(d Date) bool {
	start := DSTWindowStart(d.Year)
	end := DSTWindowEnd(d.Year)
	return !d.Before(start) && d.Before(end)
}

// CorrectInstant converts a stored instant into the locally correct one for
// the given calendar day: inside the DST window it adds exactly one hour,
// outside it is the identity. Each stamp of a day is corrected
// independently, keyed on the day the punch belongs to.
func CorrectInstant(instant time.Time, forDate Date) time.Time {
	if InDSTWindow(forDate) {
		return instant.Add(DSTShift)
	}
	return instant
}
