/*
handlers.go - HTTP API handlers for the attendance calendar engine

PURPOSE:
  Exposes the reconciliation engine and the collaborator data it consumes
  via REST. Handles HTTP request/response, JSON serialization, and
  delegates everything else to domain logic.

ENDPOINTS:
  Calendar (the engine):
    GET  /api/calendar?employee_id=&start=&end=     Aggregate or filtered range
    GET  /api/employees/{id}/calendar?start=&end=   One employee's range
    GET  /api/employees/{id}/calendar/summary       Worked-hours totals

  Collaborator data:
    GET/POST   /api/employees        Employee management (DELETE soft-deletes)
    POST       /api/punches          Raw punch ingestion (device feed boundary)
    GET/POST   /api/holidays         Holiday records
    POST       /api/exceptions       Approved exception requests
    POST       /api/shifts           Shift definitions
    POST       /api/shifts/swaps     Dated temporary swaps

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, inverted ranges
  - 404: Unknown employee
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Engine *calendar.Engine
}

// NewHandler wires a handler over the store and the regional timezone.
func NewHandler(store *sqlite.Store, loc *time.Location) *Handler {
	return &Handler{
		Store:  store,
		Engine: calendar.NewEngine(store, store, store, store, store, store, loc),
	}
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetEmployeeCalendar returns the reconciled range for one employee.
func (h *Handler) GetEmployeeCalendar(w http.ResponseWriter, r *http.Request) {
	h.serveCalendar(w, r, chi.URLParam(r, "id"))
}

// GetCalendar serves the administrative range query; an employee_id query
// parameter narrows it to one employee.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	h.serveCalendar(w, r, r.URL.Query().Get("employee_id"))
}

func (h *Handler) serveCalendar(w http.ResponseWriter, r *http.Request, employeeID string) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required (YYYY-MM-DD)", nil)
		return
	}

	result, err := h.Engine.GetCalendar(r.Context(), employeeID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rangeResponse(result))
}

// GetCalendarSummary aggregates one employee's range into totals.
func (h *Handler) GetCalendarSummary(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required (YYYY-MM-DD)", nil)
		return
	}

	result, err := h.Engine.GetCalendar(r.Context(), employeeID, start, end)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	summary := CalendarSummaryDTO{
		EmployeeID: employeeID,
		Start:      start,
		End:        end,
	}
	workedHours := decimal.Zero
	for _, day := range result.Days {
		workedHours = workedHours.Add(day.WorkedHours)
		switch {
		case day.Status == calendar.StatusPending:
			summary.PendingDays++
		case day.IsRestDay:
			summary.RestDays++
		case day.IsHoliday:
			summary.Holidays++
		case day.IsVacationDate:
			summary.VacationDays++
		case day.CheckIn != nil:
			summary.WorkedDays++
		case !day.IsFutureDay:
			summary.AbsenceDays++
		}
	}
	summary.WorkedHours = workedHours.String()

	writeJSON(w, http.StatusOK, summary)
}

func rangeResponse(result *calendar.RangeResult) CalendarRangeResponse {
	resp := CalendarRangeResponse{Days: make([]CalendarDayDTO, 0, len(result.Days))}
	for _, day := range result.Days {
		resp.Days = append(resp.Days, calendarDayDTO(day))
	}
	for _, d := range result.PendingDates {
		resp.PendingDates = append(resp.PendingDates, d.String())
	}
	return resp
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees, soft-deleted ones included.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns one employee by id.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(emp))
}

// CreateEmployee creates an employee record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	emp := calendar.Employee{
		ID:              req.ID,
		Name:            req.Name,
		StandingShiftID: req.StandingShiftID,
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}

	var err error
	if req.BirthDate != "" {
		if emp.BirthDate, err = calendar.ParseDate(req.BirthDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid birth_date format (use YYYY-MM-DD)", err)
			return
		}
	}
	if req.HireDate != "" {
		if emp.HireDate, err = calendar.ParseDate(req.HireDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
			return
		}
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, employeeDTO(&emp))
}

// DeleteEmployee soft-deletes an employee and cascades to calendar rows.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	if err := h.Store.SoftDeleteEmployee(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PUNCH INGESTION
// =============================================================================

// IngestPunches records a batch of raw punches from the device feed.
func (h *Handler) IngestPunches(w http.ResponseWriter, r *http.Request) {
	var reqs []IngestPunchRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	saved := make([]PunchDTO, 0, len(reqs))
	for _, req := range reqs {
		date, err := calendar.ParseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		instant, err := time.Parse(time.RFC3339, req.Instant)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid instant format (use RFC3339)", err)
			return
		}
		kind := calendar.PunchKind(req.Kind)
		switch kind {
		case calendar.KindCheckIn, calendar.KindCheckOut, calendar.KindEatIn, calendar.KindEatOut:
		default:
			writeError(w, http.StatusBadRequest, "Invalid punch kind", nil)
			return
		}

		punch := calendar.RawPunch{
			ID:         uuid.NewString(),
			EmployeeID: req.EmployeeID,
			Kind:       kind,
			Instant:    instant.UTC(),
			Origin:     req.Origin,
		}
		if err := h.Store.SavePunch(r.Context(), punch, date); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save punch", err)
			return
		}
		saved = append(saved, punchDTO(punch, date))
	}

	writeJSON(w, http.StatusCreated, saved)
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = holidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates or replaces the holiday on a date.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := calendar.Holiday{ID: req.ID, Date: date, Name: req.Name}
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, holidayDTO(holiday))
}

// =============================================================================
// EXCEPTION HANDLERS
// =============================================================================

// CreateException records an approved exception request.
func (h *Handler) CreateException(w http.ResponseWriter, r *http.Request) {
	var req ExceptionDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	exc := calendar.ExceptionRequest{
		ID:           req.ID,
		EmployeeID:   req.EmployeeID,
		Type:         calendar.ExceptionType(req.Type),
		CheckInTime:  req.CheckInTime,
		CheckOutTime: req.CheckOutTime,
	}
	switch exc.Type {
	case calendar.ExceptionVacation, calendar.ExceptionDisability, calendar.ExceptionPermit:
	default:
		writeError(w, http.StatusBadRequest, "Invalid exception type", nil)
		return
	}

	var err error
	if exc.From, err = calendar.ParseDate(req.From); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
		return
	}
	if exc.To, err = calendar.ParseDate(req.To); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
		return
	}
	if exc.To.Before(exc.From) {
		writeError(w, http.StatusBadRequest, "Exception window ends before it starts", nil)
		return
	}
	if exc.ID == "" {
		exc.ID = uuid.NewString()
	}

	if err := h.Store.SaveException(r.Context(), exc); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save exception", err)
		return
	}
	writeJSON(w, http.StatusCreated, exceptionDTO(exc))
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift creates or replaces a shift definition.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	shift := calendar.Shift{
		ID:            req.ID,
		Name:          req.Name,
		RestDays:      make(map[time.Weekday]bool),
		CalculateFlag: req.CalculateFlag,
	}
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	for _, n := range req.RestDays {
		if n < 0 || n > 6 {
			writeError(w, http.StatusBadRequest, "rest_days must be weekday numbers 0-6", nil)
			return
		}
		shift.RestDays[time.Weekday(n)] = true
	}

	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}
	req.ID = shift.ID
	writeJSON(w, http.StatusCreated, req)
}

// CreateSwap puts a temporary shift in effect for one employee/date.
func (h *Handler) CreateSwap(w http.ResponseWriter, r *http.Request) {
	var req CreateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := calendar.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.SaveSwap(r.Context(), uuid.NewString(), req.EmployeeID, date, req.ShiftID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift swap", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case calendar.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Employee not found", nil)
	case calendar.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to assemble calendar", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
