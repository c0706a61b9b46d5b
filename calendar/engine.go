/*
engine.go - The calendar range orchestrator

PURPOSE:
  The sole entry point the surrounding CRUD/reporting layer consumes.
  Resolves a raw requested range to canonical regional day boundaries,
  resolves the employee filter, drives the gap-filling synchronizer,
  enriches every returned row through the overlay, and hands back a
  date-ascending sequence.

FAILURE CONTRACT:
  A range request fails outright only for an unknown employee or an
  inverted range. One bad day never sinks the range: unresolved dates
  ride along in RangeResult.PendingDates.

AGGREGATE QUERIES:
  An empty employee filter is an administrative query: the range is
  assembled across every employee in the directory, soft-deleted ones
  included (historical reporting stays possible after offboarding).

SEE ALSO:
  - sync.go: Gap detection and backfill
  - overlay.go: Gated enrichment
*/
package calendar

import (
	"context"
	"sort"
	"time"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine assembles reconciled calendar ranges.
type Engine struct {
	Sync      *Synchronizer
	Overlay   *Overlay
	Directory DirectoryLister

	// Location is the canonical regional timezone for day boundaries.
	Location *time.Location
}

// RangeResult is an assembled calendar range.
type RangeResult struct {
	Days []*CalendarDay

	// PendingDates are dates whose rows are still unresolved (upstream
	// unavailable after retries, or enrichment failed on read). Their
	// placeholder rows are included in Days with StatusPending.
	PendingDates []Date
}

// NewEngine wires an engine over the given stores.
func NewEngine(cal CalendarStore, punches PunchSource, shifts ShiftStore, holidays HolidayStore, exceptions ExceptionStore, directory DirectoryLister, loc *time.Location) *Engine {
	return &Engine{
		Sync: &Synchronizer{
			Calendar:   cal,
			Punches:    punches,
			Shifts:     shifts,
			Holidays:   holidays,
			Exceptions: exceptions,
			Location:   loc,
		},
		Overlay: &Overlay{
			Holidays:   holidays,
			Exceptions: exceptions,
			Punches:    punches,
		},
		Directory: directory,
		Location:  loc,
	}
}

func (e *Engine) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.UTC
}

// GetCalendar returns the reconciled calendar for [startRaw, endRaw].
// employeeID may be empty for an administrative aggregate query. Bounds
// are YYYY-MM-DD strings, normalized at regional-timezone day boundaries
// before any storage access.
func (e *Engine) GetCalendar(ctx context.Context, employeeID, startRaw, endRaw string) (*RangeResult, error) {
	r, err := NormalizeRange(startRaw, endRaw, e.location())
	if err != nil {
		return nil, err
	}

	var employees []*Employee
	if employeeID != "" {
		emp, err := e.Directory.GetEmployee(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if emp == nil {
			return nil, ErrEmployeeNotFound
		}
		employees = []*Employee{emp}
	} else {
		employees, err = e.Directory.ListEmployees(ctx)
		if err != nil {
			return nil, err
		}
	}

	result := &RangeResult{}
	for _, emp := range employees {
		rows, pending, err := e.Sync.EnsureRange(ctx, emp, r)
		if err != nil {
			return nil, err
		}
		result.PendingDates = append(result.PendingDates, pending...)

		for _, day := range rows {
			if err := e.Overlay.Enrich(ctx, day); err != nil {
				// Enrichment failure degrades one row, not the range.
				result.PendingDates = append(result.PendingDates, day.Date)
			}
			result.Days = append(result.Days, day)
		}
	}

	// The persistence layer's ordering is not trusted.
	sort.Slice(result.Days, func(i, j int) bool {
		a, b := result.Days[i], result.Days[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.EmployeeID < b.EmployeeID
	})
	sort.Slice(result.PendingDates, func(i, j int) bool {
		return result.PendingDates[i].Before(result.PendingDates[j])
	})

	return result, nil
}
