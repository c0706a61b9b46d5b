/*
Package calendar provides the attendance calendar reconciliation engine.

PURPOSE:
  This package converts raw biometric punch events into canonical,
  per-employee, per-calendar-day attendance rows, reconciled against
  shift assignments, holidays, and approved exception requests
  (vacation, disability, permits), with daylight-saving correction.

KEY CONCEPTS IN THIS FILE (types.go):
  - Date: A calendar date with no clock or zone (row identity component)
  - Stamp: A selected punch instant, raw and DST-corrected
  - CalendarDay: The materialized per-employee-per-date attendance row
  - ShiftAssignment: Standing shift or a dated temporary swap
  - EnrichmentPlan: Which overlay fetches a row has earned

DESIGN PRINCIPLES:
  1. Determinism: Recomputing a day from the same inputs yields the same row
  2. Lazy materialization: Rows exist only for dates someone has asked about
  3. Gated enrichment: Overlay fetches happen only when the row's gate is set
  4. Precision: Worked-hours figures use decimal.Decimal, never float64

SEE ALSO:
  - clock.go: DST window computation and instant correction
  - punches.go: First-in/last-out punch aggregation
  - sync.go: Gap detection and backfill
  - engine.go: The range orchestrator, the sole upward entry point
*/
package calendar

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar date (no clock, no zone)
// =============================================================================

// Date identifies a calendar day. It is deliberately not a time.Time:
// row identity must not shift with timezone interpretation.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date. Used for storage and arithmetic only;
// never for deciding which calendar day an instant belongs to.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// In returns midnight of the date in the given location.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }
func (d Date) Equal(other Date) bool  { return d == other }
func (d Date) IsZero() bool           { return d == Date{} }

func (d Date) AddDays(n int) Date        { return DateOf(d.Time().AddDate(0, 0, n)) }
func (d Date) Weekday() time.Weekday     { return d.Time().Weekday() }
func (d Date) SameMonthDay(o Date) bool  { return d.Month == o.Month && d.Day == o.Day }
func (d Date) String() string            { return d.Time().Format("2006-01-02") }

// =============================================================================
// PUNCHES - Raw biometric events and selected stamps
// =============================================================================

// PunchKind is the declared kind of a raw biometric event.
type PunchKind string

const (
	KindCheckIn  PunchKind = "check_in"
	KindCheckOut PunchKind = "check_out"
	KindEatIn    PunchKind = "eat_in"
	KindEatOut   PunchKind = "eat_out"
)

// RawPunch is a single biometric event as recorded by the device feed.
// Instant is stored as UTC wall-clock without the regional DST offset applied;
// the engine applies the correction exactly once, at aggregation time.
type RawPunch struct {
	ID         string
	EmployeeID string
	Kind       PunchKind
	Instant    time.Time
	Origin     string // device/feed identifier, pass-through
}

// StampStatus tags how a selected stamp was resolved.
type StampStatus string

const (
	// StampRecorded: a punch was selected for this slot.
	StampRecorded StampStatus = "recorded"

	// StampOpen: the slot is legitimately empty because the day is still in
	// progress (today, checkout not yet happened). Explicitly not an anomaly.
	StampOpen StampStatus = ""
)

// Stamp is one selected punch on a day row: the raw instant as recorded,
// the DST-corrected local instant, and a status tag.
type Stamp struct {
	Raw    time.Time   `json:"raw"`
	Local  time.Time   `json:"local"`
	Status StampStatus `json:"status"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// Shift is a working-hours template with a configured rest-day set.
type Shift struct {
	ID            string
	Name          string
	RestDays      map[time.Weekday]bool
	CalculateFlag string // opaque pass-through for downstream payroll
}

func (s Shift) IsRestDay(d Date) bool { return s.RestDays[d.Weekday()] }

// ShiftAssignment is the shift in effect for an employee on a date.
// A standing assignment has Original == nil; a temporary swap carries the
// employee's standing shift in Original so the swap is observable.
type ShiftAssignment struct {
	Shift    Shift
	Original *Shift
}

// Standing builds an assignment for the employee's default shift.
func Standing(shift Shift) *ShiftAssignment {
	return &ShiftAssignment{Shift: shift}
}

// Swapped builds an assignment for a dated temporary swap.
func Swapped(shift, original Shift) *ShiftAssignment {
	return &ShiftAssignment{Shift: shift, Original: &original}
}

// IsSwap reports whether the shift in effect differs from the standing shift.
func (a *ShiftAssignment) IsSwap() bool {
	return a.Original != nil && a.Original.ID != a.Shift.ID
}

// =============================================================================
// HOLIDAYS AND EXCEPTIONS
// =============================================================================

// Holiday is a company holiday record.
type Holiday struct {
	ID   string `json:"id"`
	Date Date   `json:"-"`
	Name string `json:"name"`
}

// ExceptionType classifies an approved exception request.
type ExceptionType string

const (
	ExceptionVacation   ExceptionType = "vacation"
	ExceptionDisability ExceptionType = "work_disability"
	ExceptionPermit     ExceptionType = "permit"
)

// ExceptionRequest is an approved leave/vacation/disability request whose
// date window may cover one or more calendar days.
type ExceptionRequest struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id"`
	Type       ExceptionType `json:"type"`
	From       Date          `json:"-"`
	To         Date          `json:"-"`

	// Optional expected times granted by the request (e.g. a late-arrival
	// permit). Stored verbatim, never interpreted by this engine.
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// Covers reports whether the request's window includes the date.
func (e *ExceptionRequest) Covers(d Date) bool {
	return !d.Before(e.From) && !d.After(e.To)
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the minimal employee view the engine needs.
// Soft-deleted employees remain valid targets for historical queries.
type Employee struct {
	ID              string
	Name            string
	BirthDate       Date
	StandingShiftID string
	HireDate        Date
	CreatedAt       time.Time
	DeletedAt       *time.Time
}

// =============================================================================
// CALENDAR DAY - The materialized row
// =============================================================================

// DayStatus is the closed resolution state of a row. Downstream payroll
// consumers never observe a half-enriched day: a row is fully Resolved,
// still Pending (inputs unavailable, will be recomputed), or Skipped
// (nothing explains the day: no shift, no exception).
type DayStatus string

const (
	StatusResolved DayStatus = "resolved"
	StatusPending  DayStatus = "pending"
	StatusSkipped  DayStatus = "skipped"
)

// CalendarDay is the reconciled attendance record for one employee and one
// calendar date. Identity is (EmployeeID, Date); recomputation upserts.
type CalendarDay struct {
	EmployeeID string    `json:"employee_id"`
	Date       Date      `json:"-"`
	Status     DayStatus `json:"status"`

	CheckIn  *Stamp `json:"check_in,omitempty"`
	CheckOut *Stamp `json:"check_out,omitempty"`
	EatIn    *Stamp `json:"eat_in,omitempty"`
	EatOut   *Stamp `json:"eat_out,omitempty"`

	ShiftID       string `json:"shift_id,omitempty"`
	ShiftIsChange bool   `json:"shift_is_change"`

	HolidayID     string `json:"holiday_id,omitempty"`
	IsHoliday     bool   `json:"is_holiday"`
	IsBirthday    bool   `json:"is_birthday"`
	IsRestDay     bool   `json:"is_rest_day"`
	IsSundayBonus bool   `json:"is_sunday_bonus"`

	IsVacationDate       bool `json:"is_vacation_date"`
	IsWorkDisabilityDate bool `json:"is_work_disability_date"`
	HasExceptions        bool `json:"has_exceptions"`

	IsCheckInEatNextDay  bool `json:"is_check_in_eat_next_day"`
	IsCheckOutEatNextDay bool `json:"is_check_out_eat_next_day"`
	IsCheckOutNextDay    bool `json:"is_check_out_next_day"`

	IsFutureDay       bool `json:"is_future_day"`
	HasAssistFlatList bool `json:"has_assist_flat_list"`

	// Opaque pass-through used by downstream payroll. Preserved, never read.
	ShiftCalculateFlag string `json:"shift_calculate_flag,omitempty"`

	// Worked hours between corrected check-in and check-out, minus the eat
	// window when both eat stamps exist. Zero when the pair is incomplete.
	WorkedHours decimal.Decimal `json:"worked_hours"`

	// Overlay attachments. Populated on read only when the matching gate
	// above is true; a false gate guarantees the fetch never happened.
	Exception *ExceptionRequest `json:"exception,omitempty"`
	Holiday   *Holiday          `json:"holiday,omitempty"`
	PunchList []RawPunch        `json:"punch_list,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// =============================================================================
// ENRICHMENT PLAN - Gates computed once, consumed by the overlay
// =============================================================================

// EnrichmentPlan names the overlay fetches a row has earned. It is derived
// from the row's persisted gate booleans in exactly one place so the flags
// and the fetch conditions cannot drift apart.
type EnrichmentPlan struct {
	FetchException bool
	FetchHoliday   bool
	FetchPunchList bool
}

// PlanFor derives the enrichment plan from a materialized row's gates.
func PlanFor(day *CalendarDay) EnrichmentPlan {
	return EnrichmentPlan{
		FetchException: day.HasExceptions,
		FetchHoliday:   day.IsHoliday,
		FetchPunchList: day.HasAssistFlatList,
	}
}
