/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every persistence interface the calendar engine consumes
  (CalendarStore, PunchSource, ShiftStore, HolidayStore, ExceptionStore,
  DirectoryLister) plus the management writes the surrounding API layer
  needs. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

UPSERT CONTRACT:
  calendar_days is keyed on (employee_id, date). Writes go through
  INSERT ... ON CONFLICT DO UPDATE so two concurrent backfills for the
  same missing day collapse into one stored row. created_at survives the
  conflict path; updated_at is refreshed on every write.

SOFT DELETE:
  Employees and their calendar rows are soft-deleted (deleted_at marker).
  Soft-deleted employees still resolve through GetEmployee: historical
  calendar queries remain valid after offboarding. Calendar rows are
  soft-deleted only by the cascading employee lifecycle, never per-day.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block and crash recovery improves.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - calendar/store.go: Interface definitions
  - calendar/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/calendar"
)

const instantLayout = time.RFC3339Nano

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (soft-deleted rows remain readable)
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		birth_date TEXT,
		standing_shift_id TEXT,
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		deleted_at TEXT
	);

	-- Shifts (rest_days is a CSV of weekday numbers, Sunday=0)
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		rest_days TEXT NOT NULL DEFAULT '',
		calculate_flag TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Dated temporary shift swaps; standing shifts live on the employee row
	CREATE TABLE IF NOT EXISTS shift_swaps (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		shift_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_shift_swaps_employee_date
		ON shift_swaps(employee_id, date);

	-- Raw biometric punch events (populated by the device sync feed)
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		instant TEXT NOT NULL,
		origin TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_punches_employee_date
		ON punches(employee_id, date);

	-- Company holidays
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Approved exception requests (vacation, disability, permits)
	CREATE TABLE IF NOT EXISTS exceptions (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		type TEXT NOT NULL,
		date_from TEXT NOT NULL,
		date_to TEXT NOT NULL,
		check_in_time TEXT NOT NULL DEFAULT '',
		check_out_time TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_exceptions_employee_window
		ON exceptions(employee_id, date_from, date_to);

	-- Materialized calendar day rows
	-- CRITICAL: the primary key makes concurrent backfills collapse into
	-- one row per (employee, date) instead of racing to insert duplicates.
	CREATE TABLE IF NOT EXISTS calendar_days (
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		check_in_raw TEXT, check_in_local TEXT, check_in_status TEXT,
		check_out_raw TEXT, check_out_local TEXT, check_out_status TEXT,
		eat_in_raw TEXT, eat_in_local TEXT, eat_in_status TEXT,
		eat_out_raw TEXT, eat_out_local TEXT, eat_out_status TEXT,
		shift_id TEXT NOT NULL DEFAULT '',
		shift_is_change INTEGER NOT NULL DEFAULT 0,
		holiday_id TEXT NOT NULL DEFAULT '',
		is_holiday INTEGER NOT NULL DEFAULT 0,
		is_birthday INTEGER NOT NULL DEFAULT 0,
		is_rest_day INTEGER NOT NULL DEFAULT 0,
		is_sunday_bonus INTEGER NOT NULL DEFAULT 0,
		is_vacation_date INTEGER NOT NULL DEFAULT 0,
		is_work_disability_date INTEGER NOT NULL DEFAULT 0,
		has_exceptions INTEGER NOT NULL DEFAULT 0,
		is_check_in_eat_next_day INTEGER NOT NULL DEFAULT 0,
		is_check_out_eat_next_day INTEGER NOT NULL DEFAULT 0,
		is_check_out_next_day INTEGER NOT NULL DEFAULT 0,
		is_future_day INTEGER NOT NULL DEFAULT 0,
		has_assist_flat_list INTEGER NOT NULL DEFAULT 0,
		shift_calculate_flag TEXT NOT NULL DEFAULT '',
		worked_hours TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted_at TEXT,
		PRIMARY KEY (employee_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_days_date
		ON calendar_days(date);
	CREATE INDEX IF NOT EXISTS idx_calendar_days_status
		ON calendar_days(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDAR STORE (calendar.CalendarStore interface)
// =============================================================================

const calendarDayColumns = `employee_id, date, status,
	check_in_raw, check_in_local, check_in_status,
	check_out_raw, check_out_local, check_out_status,
	eat_in_raw, eat_in_local, eat_in_status,
	eat_out_raw, eat_out_local, eat_out_status,
	shift_id, shift_is_change, holiday_id, is_holiday, is_birthday,
	is_rest_day, is_sunday_bonus, is_vacation_date, is_work_disability_date,
	has_exceptions, is_check_in_eat_next_day, is_check_out_eat_next_day,
	is_check_out_next_day, is_future_day, has_assist_flat_list,
	shift_calculate_flag, worked_hours, created_at, updated_at`

// LoadRange returns non-deleted rows for the employee in [start, end].
func (s *Store) LoadRange(ctx context.Context, employeeID string, r calendar.DateRange) ([]*calendar.CalendarDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + calendarDayColumns + `
		FROM calendar_days
		WHERE employee_id = ? AND date >= ? AND date <= ? AND deleted_at IS NULL
	`
	rows, err := s.db.QueryContext(ctx, query,
		employeeID, r.Start.String(), r.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar days: %w", err)
	}
	defer rows.Close()

	var days []*calendar.CalendarDay
	for rows.Next() {
		day, err := scanCalendarDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// Upsert writes a row keyed on (employee_id, date). The conflict path
// keeps created_at and replaces everything else.
func (s *Store) Upsert(ctx context.Context, day *calendar.CalendarDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ciRaw, ciLocal, ciStatus := splitStamp(day.CheckIn)
	coRaw, coLocal, coStatus := splitStamp(day.CheckOut)
	eiRaw, eiLocal, eiStatus := splitStamp(day.EatIn)
	eoRaw, eoLocal, eoStatus := splitStamp(day.EatOut)

	now := time.Now().UTC().Format(instantLayout)
	createdAt := now
	if !day.CreatedAt.IsZero() {
		createdAt = day.CreatedAt.UTC().Format(instantLayout)
	}

	query := `
		INSERT INTO calendar_days (` + calendarDayColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		        ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET
			status = excluded.status,
			check_in_raw = excluded.check_in_raw,
			check_in_local = excluded.check_in_local,
			check_in_status = excluded.check_in_status,
			check_out_raw = excluded.check_out_raw,
			check_out_local = excluded.check_out_local,
			check_out_status = excluded.check_out_status,
			eat_in_raw = excluded.eat_in_raw,
			eat_in_local = excluded.eat_in_local,
			eat_in_status = excluded.eat_in_status,
			eat_out_raw = excluded.eat_out_raw,
			eat_out_local = excluded.eat_out_local,
			eat_out_status = excluded.eat_out_status,
			shift_id = excluded.shift_id,
			shift_is_change = excluded.shift_is_change,
			holiday_id = excluded.holiday_id,
			is_holiday = excluded.is_holiday,
			is_birthday = excluded.is_birthday,
			is_rest_day = excluded.is_rest_day,
			is_sunday_bonus = excluded.is_sunday_bonus,
			is_vacation_date = excluded.is_vacation_date,
			is_work_disability_date = excluded.is_work_disability_date,
			has_exceptions = excluded.has_exceptions,
			is_check_in_eat_next_day = excluded.is_check_in_eat_next_day,
			is_check_out_eat_next_day = excluded.is_check_out_eat_next_day,
			is_check_out_next_day = excluded.is_check_out_next_day,
			is_future_day = excluded.is_future_day,
			has_assist_flat_list = excluded.has_assist_flat_list,
			shift_calculate_flag = excluded.shift_calculate_flag,
			worked_hours = excluded.worked_hours,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		day.EmployeeID, day.Date.String(), string(day.Status),
		ciRaw, ciLocal, ciStatus,
		coRaw, coLocal, coStatus,
		eiRaw, eiLocal, eiStatus,
		eoRaw, eoLocal, eoStatus,
		day.ShiftID, boolInt(day.ShiftIsChange), day.HolidayID,
		boolInt(day.IsHoliday), boolInt(day.IsBirthday),
		boolInt(day.IsRestDay), boolInt(day.IsSundayBonus),
		boolInt(day.IsVacationDate), boolInt(day.IsWorkDisabilityDate),
		boolInt(day.HasExceptions), boolInt(day.IsCheckInEatNextDay),
		boolInt(day.IsCheckOutEatNextDay), boolInt(day.IsCheckOutNextDay),
		boolInt(day.IsFutureDay), boolInt(day.HasAssistFlatList),
		day.ShiftCalculateFlag, day.WorkedHours.String(),
		createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert calendar day: %w", err)
	}
	return nil
}

// SoftDeleteEmployee marks the employee and every calendar row deleted.
// Cascading lifecycle only; rows are never deleted individually.
func (s *Store) SoftDeleteEmployee(ctx context.Context, employeeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(instantLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE employees SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, employeeID); err != nil {
		return fmt.Errorf("failed to soft-delete employee: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE calendar_days SET deleted_at = ? WHERE employee_id = ? AND deleted_at IS NULL`,
		now, employeeID); err != nil {
		return fmt.Errorf("failed to soft-delete calendar rows: %w", err)
	}
	return tx.Commit()
}

func scanCalendarDay(rows *sql.Rows) (*calendar.CalendarDay, error) {
	var (
		day                         calendar.CalendarDay
		dateStr, status             string
		ciRaw, ciLocal, ciStatus    sql.NullString
		coRaw, coLocal, coStatus    sql.NullString
		eiRaw, eiLocal, eiStatus    sql.NullString
		eoRaw, eoLocal, eoStatus    sql.NullString
		shiftIsChange, isHoliday    int
		isBirthday, isRestDay       int
		isSundayBonus, isVacation   int
		isDisability, hasExceptions int
		eatInNext, eatOutNext       int
		checkOutNext, isFuture      int
		hasFlatList                 int
		workedHours                 string
		createdAt, updatedAt        string
	)

	err := rows.Scan(
		&day.EmployeeID, &dateStr, &status,
		&ciRaw, &ciLocal, &ciStatus,
		&coRaw, &coLocal, &coStatus,
		&eiRaw, &eiLocal, &eiStatus,
		&eoRaw, &eoLocal, &eoStatus,
		&day.ShiftID, &shiftIsChange, &day.HolidayID, &isHoliday, &isBirthday,
		&isRestDay, &isSundayBonus, &isVacation, &isDisability,
		&hasExceptions, &eatInNext, &eatOutNext,
		&checkOutNext, &isFuture, &hasFlatList,
		&day.ShiftCalculateFlag, &workedHours, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan calendar day: %w", err)
	}

	day.Date, err = calendar.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	day.Status = calendar.DayStatus(status)

	day.CheckIn = joinStamp(ciRaw, ciLocal, ciStatus)
	day.CheckOut = joinStamp(coRaw, coLocal, coStatus)
	day.EatIn = joinStamp(eiRaw, eiLocal, eiStatus)
	day.EatOut = joinStamp(eoRaw, eoLocal, eoStatus)

	day.ShiftIsChange = shiftIsChange != 0
	day.IsHoliday = isHoliday != 0
	day.IsBirthday = isBirthday != 0
	day.IsRestDay = isRestDay != 0
	day.IsSundayBonus = isSundayBonus != 0
	day.IsVacationDate = isVacation != 0
	day.IsWorkDisabilityDate = isDisability != 0
	day.HasExceptions = hasExceptions != 0
	day.IsCheckInEatNextDay = eatInNext != 0
	day.IsCheckOutEatNextDay = eatOutNext != 0
	day.IsCheckOutNextDay = checkOutNext != 0
	day.IsFutureDay = isFuture != 0
	day.HasAssistFlatList = hasFlatList != 0

	day.WorkedHours, err = decimal.NewFromString(workedHours)
	if err != nil {
		day.WorkedHours = decimal.Zero
	}
	day.CreatedAt = parseInstant(createdAt)
	day.UpdatedAt = parseInstant(updatedAt)
	return &day, nil
}

// =============================================================================
// PUNCH SOURCE (calendar.PunchSource interface)
// =============================================================================

// ListPunches returns the raw punches recorded against an employee/day.
func (s *Store) ListPunches(ctx context.Context, employeeID string, date calendar.Date) ([]calendar.RawPunch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, kind, instant, origin
		FROM punches
		WHERE employee_id = ? AND date = ?
		ORDER BY instant ASC
	`, employeeID, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	var punches []calendar.RawPunch
	for rows.Next() {
		var (
			p       calendar.RawPunch
			kind    string
			instant string
		)
		if err := rows.Scan(&p.ID, &p.EmployeeID, &kind, &instant, &p.Origin); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.Kind = calendar.PunchKind(kind)
		p.Instant = parseInstant(instant)
		punches = append(punches, p)
	}
	return punches, rows.Err()
}

// SavePunch records a raw punch from the device feed against a calendar day.
func (s *Store) SavePunch(ctx context.Context, p calendar.RawPunch, date calendar.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO punches (id, employee_id, date, kind, instant, origin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.EmployeeID, date.String(), string(p.Kind),
		p.Instant.UTC().Format(instantLayout), p.Origin,
		time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save punch: %w", err)
	}
	return nil
}

// =============================================================================
// SHIFT STORE (calendar.ShiftStore interface)
// =============================================================================

// ActiveShift resolves the shift in effect for the employee on a date:
// a dated swap wins over the standing shift; nil when neither exists.
func (s *Store) ActiveShift(ctx context.Context, employeeID string, date calendar.Date) (*calendar.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var standingID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT standing_shift_id FROM employees WHERE id = ?`,
		employeeID).Scan(&standingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve standing shift: %w", err)
	}

	var swapID string
	err = s.db.QueryRowContext(ctx,
		`SELECT shift_id FROM shift_swaps WHERE employee_id = ? AND date = ?`,
		employeeID, date.String()).Scan(&swapID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to resolve shift swap: %w", err)
	}

	if swapID != "" {
		swapped, err := s.getShift(ctx, swapID)
		if err != nil {
			return nil, err
		}
		if standingID.Valid && standingID.String != "" {
			standing, err := s.getShift(ctx, standingID.String)
			if err != nil {
				return nil, err
			}
			return calendar.Swapped(*swapped, *standing), nil
		}
		return calendar.Standing(*swapped), nil
	}

	if !standingID.Valid || standingID.String == "" {
		return nil, nil
	}
	standing, err := s.getShift(ctx, standingID.String)
	if err != nil {
		return nil, err
	}
	return calendar.Standing(*standing), nil
}

func (s *Store) getShift(ctx context.Context, id string) (*calendar.Shift, error) {
	var (
		shift    calendar.Shift
		restDays string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, rest_days, calculate_flag FROM shifts WHERE id = ?`,
		id).Scan(&shift.ID, &shift.Name, &restDays, &shift.CalculateFlag)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shift %s: %w", id, calendar.ErrNoShift)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	shift.RestDays = parseRestDays(restDays)
	return &shift, nil
}

// SaveShift creates or replaces a shift definition.
func (s *Store) SaveShift(ctx context.Context, shift calendar.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, name, rest_days, calculate_flag, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rest_days = excluded.rest_days,
			calculate_flag = excluded.calculate_flag
	`,
		shift.ID, shift.Name, formatRestDays(shift.RestDays),
		shift.CalculateFlag, time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

// SaveSwap puts a temporary shift in effect for one employee/date.
func (s *Store) SaveSwap(ctx context.Context, id, employeeID string, date calendar.Date, shiftID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shift_swaps (id, employee_id, date, shift_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_id, date) DO UPDATE SET shift_id = excluded.shift_id
	`,
		id, employeeID, date.String(), shiftID,
		time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save shift swap: %w", err)
	}
	return nil
}

// =============================================================================
// HOLIDAY STORE (calendar.HolidayStore interface)
// =============================================================================

// HolidayOn returns the holiday record for a date, nil when none.
func (s *Store) HolidayOn(ctx context.Context, date calendar.Date) (*calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h calendar.Holiday
	var dateStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, date, name FROM holidays WHERE date = ?`,
		date.String()).Scan(&h.ID, &dateStr, &h.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query holiday: %w", err)
	}
	h.Date, err = calendar.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// SaveHoliday creates or replaces the holiday on a date.
func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET name = excluded.name
	`,
		h.ID, h.Date.String(), h.Name, time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, name FROM holidays ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date, err = calendar.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// =============================================================================
// EXCEPTION STORE (calendar.ExceptionStore interface)
// =============================================================================

// ExceptionOn returns the approved exception covering the employee/date,
// nil when none.
func (s *Store) ExceptionOn(ctx context.Context, employeeID string, date calendar.Date) (*calendar.ExceptionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		e                 calendar.ExceptionRequest
		excType, from, to string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, type, date_from, date_to, check_in_time, check_out_time
		FROM exceptions
		WHERE employee_id = ? AND date_from <= ? AND date_to >= ?
		LIMIT 1
	`, employeeID, date.String(), date.String()).Scan(
		&e.ID, &e.EmployeeID, &excType, &from, &to,
		&e.CheckInTime, &e.CheckOutTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query exception: %w", err)
	}

	e.Type = calendar.ExceptionType(excType)
	if e.From, err = calendar.ParseDate(from); err != nil {
		return nil, err
	}
	if e.To, err = calendar.ParseDate(to); err != nil {
		return nil, err
	}
	return &e, nil
}

// SaveException records an approved exception request.
func (s *Store) SaveException(ctx context.Context, e calendar.ExceptionRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exceptions
			(id, employee_id, type, date_from, date_to, check_in_time, check_out_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.EmployeeID, string(e.Type),
		e.From.String(), e.To.String(),
		e.CheckInTime, e.CheckOutTime,
		time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save exception: %w", err)
	}
	return nil
}

// =============================================================================
// EMPLOYEE DIRECTORY (calendar.DirectoryLister interface)
// =============================================================================

// GetEmployee resolves an employee by id. Soft-deleted employees resolve
// normally; nil means the id has never existed.
func (s *Store) GetEmployee(ctx context.Context, id string) (*calendar.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, standing_shift_id, hire_date, created_at, deleted_at
		FROM employees WHERE id = ?
	`, id)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return emp, err
}

// ListEmployees returns all employees, soft-deleted ones included.
func (s *Store) ListEmployees(ctx context.Context) ([]*calendar.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_date, standing_shift_id, hire_date, created_at, deleted_at
		FROM employees ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []*calendar.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// SaveEmployee creates or replaces an employee record.
func (s *Store) SaveEmployee(ctx context.Context, e calendar.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	birthDate := ""
	if !e.BirthDate.IsZero() {
		birthDate = e.BirthDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, birth_date, standing_shift_id, hire_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			birth_date = excluded.birth_date,
			standing_shift_id = excluded.standing_shift_id,
			hire_date = excluded.hire_date
	`,
		e.ID, e.Name, birthDate, e.StandingShiftID,
		e.HireDate.String(), time.Now().UTC().Format(instantLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*calendar.Employee, error) {
	var (
		e                   calendar.Employee
		birthDate, hireDate sql.NullString
		standingShift       sql.NullString
		createdAt           string
		deletedAt           sql.NullString
	)
	err := row.Scan(&e.ID, &e.Name, &birthDate, &standingShift,
		&hireDate, &createdAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if birthDate.Valid && birthDate.String != "" {
		if e.BirthDate, err = calendar.ParseDate(birthDate.String); err != nil {
			return nil, err
		}
	}
	if hireDate.Valid && hireDate.String != "" {
		if e.HireDate, err = calendar.ParseDate(hireDate.String); err != nil {
			return nil, err
		}
	}
	e.StandingShiftID = standingShift.String
	e.CreatedAt = parseInstant(createdAt)
	if deletedAt.Valid && deletedAt.String != "" {
		t := parseInstant(deletedAt.String)
		e.DeletedAt = &t
	}
	return &e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func splitStamp(st *calendar.Stamp) (raw, local, status any) {
	if st == nil {
		return nil, nil, nil
	}
	return st.Raw.UTC().Format(instantLayout),
		st.Local.UTC().Format(instantLayout),
		string(st.Status)
}

func joinStamp(raw, local, status sql.NullString) *calendar.Stamp {
	if !raw.Valid {
		return nil
	}
	return &calendar.Stamp{
		Raw:    parseInstant(raw.String),
		Local:  parseInstant(local.String),
		Status: calendar.StampStatus(status.String),
	}
}

func parseInstant(s string) time.Time {
	t, err := time.Parse(instantLayout, s)
	if err != nil {
		// Older rows may carry second precision.
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.UTC()
}

func parseRestDays(csv string) map[time.Weekday]bool {
	days := make(map[time.Weekday]bool)
	if csv == "" {
		return days
	}
	for _, part := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		days[time.Weekday(n)] = true
	}
	return days
}

func formatRestDays(days map[time.Weekday]bool) string {
	var parts []string
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if days[wd] {
			parts = append(parts, strconv.Itoa(int(wd)))
		}
	}
	return strings.Join(parts, ",")
}
