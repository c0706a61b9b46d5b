/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: dates travel
  as YYYY-MM-DD strings, instants as RFC3339, decimals as strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// CALENDAR TYPES
// =============================================================================

// StampDTO is one selected punch on a day row.
type StampDTO struct {
	Raw    string `json:"raw"`
	Local  string `json:"local"`
	Status string `json:"status"`
}

// CalendarDayDTO is the reconciled attendance row in API responses.
type CalendarDayDTO struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`

	CheckIn  *StampDTO `json:"check_in,omitempty"`
	CheckOut *StampDTO `json:"check_out,omitempty"`
	EatIn    *StampDTO `json:"eat_in,omitempty"`
	EatOut   *StampDTO `json:"eat_out,omitempty"`

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

	ShiftCalculateFlag string `json:"shift_calculate_flag,omitempty"`
	WorkedHours        string `json:"worked_hours"`

	Exception *ExceptionDTO `json:"exception,omitempty"`
	Holiday   *HolidayDTO   `json:"holiday,omitempty"`
	PunchList []PunchDTO    `json:"punch_list,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CalendarRangeResponse is the assembled range, date-ascending.
type CalendarRangeResponse struct {
	Days         []CalendarDayDTO `json:"days"`
	PendingDates []string         `json:"pending_dates,omitempty"`
}

// CalendarSummaryDTO aggregates a range for one employee.
type CalendarSummaryDTO struct {
	EmployeeID   string `json:"employee_id"`
	Start        string `json:"start"`
	End          string `json:"end"`
	WorkedHours  string `json:"worked_hours"`
	WorkedDays   int    `json:"worked_days"`
	RestDays     int    `json:"rest_days"`
	Holidays     int    `json:"holidays"`
	VacationDays int    `json:"vacation_days"`
	AbsenceDays  int    `json:"absence_days"`
	PendingDays  int    `json:"pending_days"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BirthDate       string `json:"birth_date,omitempty"`
	StandingShiftID string `json:"standing_shift_id,omitempty"`
	HireDate        string `json:"hire_date"`
	Deleted         bool   `json:"deleted,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BirthDate       string `json:"birth_date"`
	StandingShiftID string `json:"standing_shift_id"`
	HireDate        string `json:"hire_date"`
}

// =============================================================================
// PUNCHES
// =============================================================================

// PunchDTO represents a raw punch event.
type PunchDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Instant    string `json:"instant"`
	Origin     string `json:"origin,omitempty"`
}

// IngestPunchRequest is one punch from the device feed.
type IngestPunchRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Kind       string `json:"kind"`
	Instant    string `json:"instant"`
	Origin     string `json:"origin"`
}

// =============================================================================
// SHIFTS, HOLIDAYS, EXCEPTIONS
// =============================================================================

// ShiftDTO represents a shift definition.
type ShiftDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	RestDays      []int  `json:"rest_days"`
	CalculateFlag string `json:"calculate_flag,omitempty"`
}

// CreateSwapRequest puts a temporary shift in effect for one date.
type CreateSwapRequest struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	ShiftID    string `json:"shift_id"`
}

// HolidayDTO represents a holiday record.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// ExceptionDTO represents an approved exception request.
type ExceptionDTO struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Type         string `json:"type"`
	From         string `json:"from"`
	To           string `json:"to"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
}

// ErrorResponse is the envelope for API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// DOMAIN -> DTO CONVERSION
// =============================================================================

func stampDTO(s *calendar.Stamp) *StampDTO {
	if s == nil {
		return nil
	}
	return &StampDTO{
		Raw:    s.Raw.UTC().Format(time.RFC3339),
		Local:  s.Local.UTC().Format(time.RFC3339),
		Status: string(s.Status),
	}
}

func calendarDayDTO(day *calendar.CalendarDay) CalendarDayDTO {
	dto := CalendarDayDTO{
		EmployeeID:           day.EmployeeID,
		Date:                 day.Date.String(),
		Status:               string(day.Status),
		CheckIn:              stampDTO(day.CheckIn),
		CheckOut:             stampDTO(day.CheckOut),
		EatIn:                stampDTO(day.EatIn),
		EatOut:               stampDTO(day.EatOut),
		ShiftID:              day.ShiftID,
		ShiftIsChange:        day.ShiftIsChange,
		HolidayID:            day.HolidayID,
		IsHoliday:            day.IsHoliday,
		IsBirthday:           day.IsBirthday,
		IsRestDay:            day.IsRestDay,
		IsSundayBonus:        day.IsSundayBonus,
		IsVacationDate:       day.IsVacationDate,
		IsWorkDisabilityDate: day.IsWorkDisabilityDate,
		HasExceptions:        day.HasExceptions,
		IsCheckInEatNextDay:  day.IsCheckInEatNextDay,
		IsCheckOutEatNextDay: day.IsCheckOutEatNextDay,
		IsCheckOutNextDay:    day.IsCheckOutNextDay,
		IsFutureDay:          day.IsFutureDay,
		HasAssistFlatList:    day.HasAssistFlatList,
		ShiftCalculateFlag:   day.ShiftCalculateFlag,
		WorkedHours:          day.WorkedHours.String(),
		CreatedAt:            day.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:            day.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if day.Exception != nil {
		e := exceptionDTO(*day.Exception)
		dto.Exception = &e
	}
	if day.Holiday != nil {
		h := holidayDTO(*day.Holiday)
		dto.Holiday = &h
	}
	for _, p := range day.PunchList {
		dto.PunchList = append(dto.PunchList, punchDTO(p, day.Date))
	}
	return dto
}

func punchDTO(p calendar.RawPunch, date calendar.Date) PunchDTO {
	return PunchDTO{
		ID:         p.ID,
		EmployeeID: p.EmployeeID,
		Date:       date.String(),
		Kind:       string(p.Kind),
		Instant:    p.Instant.UTC().Format(time.RFC3339),
		Origin:     p.Origin,
	}
}

func holidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name}
}

func exceptionDTO(e calendar.ExceptionRequest) ExceptionDTO {
	return ExceptionDTO{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Type:         string(e.Type),
		From:         e.From.String(),
		To:           e.To.String(),
		CheckInTime:  e.CheckInTime,
		CheckOutTime: e.CheckOutTime,
	}
}

func employeeDTO(e *calendar.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:              e.ID,
		Name:            e.Name,
		StandingShiftID: e.StandingShiftID,
		Deleted:         e.DeletedAt != nil,
	}
	if !e.BirthDate.IsZero() {
		dto.BirthDate = e.BirthDate.String()
	}
	if !e.HireDate.IsZero() {
		dto.HireDate = e.HireDate.String()
	}
	return dto
}
