/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  Defines the interfaces between the engine and its collaborators. The
  engine never talks to a database or a device feed directly; everything
  flows through these contracts so SQLite, PostgreSQL, or in-memory
  implementations are interchangeable.

KEY INTERFACES:
  CalendarStore:     Materialized day rows (load, upsert, soft delete)
  PunchSource:       Raw biometric events for an employee/day
  ShiftStore:        Shift assignment in effect on a date
  HolidayStore:      Holiday record by date
  ExceptionStore:    Approved exception covering an employee/date
  EmployeeDirectory: Employee resolution (soft-deleted rows included)

UPSERT CONTRACT:
  Upsert is keyed on (employeeID, date). Two concurrent backfills for the
  same missing day must collapse into one stored row; last-write-wins is
  safe because day computation is deterministic given identical inputs.

READ-ONLY COLLABORATORS:
  PunchSource, ShiftStore, HolidayStore and ExceptionStore are read-only
  from the engine's point of view. Their data is owned by the surrounding
  CRUD layer and the device sync feed.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - calendar/store/memory.go: In-memory for testing

SEE ALSO:
  - sync.go: The only writer of calendar rows
  - overlay.go: The only consumer of holiday/exception lookups
*/
package calendar

import "context"

// =============================================================================
// CALENDAR STORE - Materialized day rows
// =============================================================================

// CalendarStore persists materialized calendar day rows.
type CalendarStore interface {
	// LoadRange returns the non-deleted rows for the employee in [start, end].
	// Callers must not rely on ordering; the orchestrator sorts defensively.
	LoadRange(ctx context.Context, employeeID string, r DateRange) ([]*CalendarDay, error)

	// Upsert writes a row keyed on (employeeID, date). An existing row is
	// replaced wholesale except for CreatedAt; UpdatedAt is refreshed only
	// when the write actually changes the row.
	Upsert(ctx context.Context, day *CalendarDay) error

	// SoftDeleteEmployee marks every row of the employee deleted. Only
	// invoked by the cascading employee lifecycle, never per-day.
	SoftDeleteEmployee(ctx context.Context, employeeID string) error
}

// =============================================================================
// COLLABORATOR STORES - Read-only inputs to day computation
// =============================================================================

// PunchSource exposes the raw biometric events populated by the device feed.
type PunchSource interface {
	// ListPunches returns the raw punches recorded against the employee and
	// calendar day, in no guaranteed order.
	ListPunches(ctx context.Context, employeeID string, date Date) ([]RawPunch, error)
}

// ShiftStore resolves the shift assignment in effect for an employee on a
// date. Returns nil (no error) when the employee has no shift that day.
type ShiftStore interface {
	ActiveShift(ctx context.Context, employeeID string, date Date) (*ShiftAssignment, error)
}

// HolidayStore resolves the holiday record for a date, nil when none.
type HolidayStore interface {
	HolidayOn(ctx context.Context, date Date) (*Holiday, error)
}

// ExceptionStore resolves the approved exception request whose window
// covers the employee/date, nil when none.
type ExceptionStore interface {
	ExceptionOn(ctx context.Context, employeeID string, date Date) (*ExceptionRequest, error)
}

// EmployeeDirectory resolves employees. Soft-deleted employees resolve
// normally: they remain valid targets for historical calendar queries.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
}

// =============================================================================
// AGGREGATE VIEW - Administrative queries without an employee filter
// =============================================================================

// DirectoryLister extends EmployeeDirectory for administrative range
// queries that span every employee.
type DirectoryLister interface {
	EmployeeDirectory

	// ListEmployees returns all employees, soft-deleted ones included.
	ListEmployees(ctx context.Context) ([]*Employee, error)
}
