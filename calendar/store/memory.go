// Package store provides in-memory implementations of the calendar
// engine's storage interfaces, for testing and development.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/attendance-engine/calendar"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements every engine interface in one value: CalendarStore,
// PunchSource, ShiftStore, HolidayStore, ExceptionStore, DirectoryLister.
// Rows are cloned across the boundary so read-path enrichment never leaks
// back into stored state.
type Memory struct {
	mu         sync.RWMutex
	days       map[dayKey]*calendar.CalendarDay
	punches    map[dayKey][]calendar.RawPunch
	shifts     map[string]calendar.Shift
	standing   map[string]string // employeeID -> standing shift id
	swaps      map[dayKey]string // employee/date -> swapped-in shift id
	holidays   map[calendar.Date]calendar.Holiday
	exceptions []calendar.ExceptionRequest
	employees  map[string]*calendar.Employee

	// failures injects collaborator outages per store name, for tests.
	failures map[string]error
}

type dayKey struct {
	EmployeeID string
	Date       calendar.Date
}

func NewMemory() *Memory {
	return &Memory{
		days:      make(map[dayKey]*calendar.CalendarDay),
		punches:   make(map[dayKey][]calendar.RawPunch),
		shifts:    make(map[string]calendar.Shift),
		standing:  make(map[string]string),
		swaps:     make(map[dayKey]string),
		holidays:  make(map[calendar.Date]calendar.Holiday),
		employees: make(map[string]*calendar.Employee),
		failures:  make(map[string]error),
	}
}

// =============================================================================
// SEEDING AND FAULT INJECTION
// =============================================================================

func (m *Memory) AddEmployee(e calendar.Employee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = &e
}

func (m *Memory) AddShift(s calendar.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = s
}

// AssignStanding makes shiftID the employee's default shift.
func (m *Memory) AssignStanding(employeeID, shiftID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.standing[employeeID] = shiftID
}

// AssignSwap puts a temporary shift in effect for one date.
func (m *Memory) AssignSwap(employeeID string, date calendar.Date, shiftID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swaps[dayKey{employeeID, date}] = shiftID
}

func (m *Memory) AddPunch(p calendar.RawPunch, date calendar.Date) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := dayKey{p.EmployeeID, date}
	m.punches[k] = append(m.punches[k], p)
}

func (m *Memory) AddHoliday(h calendar.Holiday) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.Date] = h
}

func (m *Memory) AddException(e calendar.ExceptionRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exceptions = append(m.exceptions, e)
}

// FailWith makes the named store ("punches", "shifts", "holidays",
// "exceptions") return err until cleared with a nil err.
func (m *Memory) FailWith(storeName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, storeName)
		return
	}
	m.failures[storeName] = err
}

func (m *Memory) failure(storeName string) error {
	return m.failures[storeName]
}

// =============================================================================
// CALENDAR STORE
// =============================================================================

func (m *Memory) LoadRange(_ context.Context, employeeID string, r calendar.DateRange) ([]*calendar.CalendarDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rows []*calendar.CalendarDay
	for k, day := range m.days {
		if k.EmployeeID != employeeID || day.DeletedAt != nil {
			continue
		}
		if r.Contains(k.Date) {
			rows = append(rows, cloneDay(day))
		}
	}
	return rows, nil
}

func (m *Memory) Upsert(_ context.Context, day *calendar.CalendarDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{day.EmployeeID, day.Date}
	stored := cloneDay(day)
	if prior, ok := m.days[k]; ok {
		stored.CreatedAt = prior.CreatedAt
	}
	m.days[k] = stored
	return nil
}

func (m *Memory) SoftDeleteEmployee(_ context.Context, employeeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	for k, day := range m.days {
		if k.EmployeeID == employeeID && day.DeletedAt == nil {
			t := now
			day.DeletedAt = &t
		}
	}
	return nil
}

// RowCount reports stored (non-deleted) rows, for idempotence assertions.
func (m *Memory) RowCount(employeeID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for k, day := range m.days {
		if k.EmployeeID == employeeID && day.DeletedAt == nil {
			n++
		}
	}
	return n
}

// =============================================================================
// COLLABORATOR STORES
// =============================================================================

func (m *Memory) ListPunches(_ context.Context, employeeID string, date calendar.Date) ([]calendar.RawPunch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("punches"); err != nil {
		return nil, err
	}
	src := m.punches[dayKey{employeeID, date}]
	out := make([]calendar.RawPunch, len(src))
	copy(out, src)
	return out, nil
}

func (m *Memory) ActiveShift(_ context.Context, employeeID string, date calendar.Date) (*calendar.ShiftAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("shifts"); err != nil {
		return nil, err
	}

	standingID, hasStanding := m.standing[employeeID]
	if swapID, ok := m.swaps[dayKey{employeeID, date}]; ok {
		swapped := m.shifts[swapID]
		if hasStanding {
			return calendar.Swapped(swapped, m.shifts[standingID]), nil
		}
		return calendar.Standing(swapped), nil
	}
	if !hasStanding {
		return nil, nil
	}
	return calendar.Standing(m.shifts[standingID]), nil
}

func (m *Memory) HolidayOn(_ context.Context, date calendar.Date) (*calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("holidays"); err != nil {
		return nil, err
	}
	if h, ok := m.holidays[date]; ok {
		out := h
		return &out, nil
	}
	return nil, nil
}

func (m *Memory) ExceptionOn(_ context.Context, employeeID string, date calendar.Date) (*calendar.ExceptionRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.failure("exceptions"); err != nil {
		return nil, err
	}
	for i := range m.exceptions {
		e := m.exceptions[i]
		if e.EmployeeID == employeeID && e.Covers(date) {
			return &e, nil
		}
	}
	return nil, nil
}

// =============================================================================
// DIRECTORY
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*calendar.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.employees[id]; ok {
		out := *e
		return &out, nil
	}
	return nil, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]*calendar.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*calendar.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		c := *e
		out = append(out, &c)
	}
	return out, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func cloneDay(day *calendar.CalendarDay) *calendar.CalendarDay {
	c := *day
	c.CheckIn = cloneStamp(day.CheckIn)
	c.CheckOut = cloneStamp(day.CheckOut)
	c.EatIn = cloneStamp(day.EatIn)
	c.EatOut = cloneStamp(day.EatOut)
	// Overlay attachments are read-path only; never stored.
	c.Exception = nil
	c.Holiday = nil
	c.PunchList = nil
	return &c
}

func cloneStamp(s *calendar.Stamp) *calendar.Stamp {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
