package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/calendar"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func rangeOver(t *testing.T, start, end calendar.Date) calendar.DateRange {
	t.Helper()
	r, err := calendar.NewDateRange(start, end)
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	return r
}

func TestUpsert_RoundTripsAllFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	date := calendar.NewDate(2024, time.June, 3)
	checkIn := date.Time().Add(8 * time.Hour)
	day := &calendar.CalendarDay{
		EmployeeID: "emp-1",
		Date:       date,
		Status:     calendar.StatusResolved,
		CheckIn: &calendar.Stamp{
			Raw:    checkIn,
			Local:  checkIn.Add(time.Hour),
			Status: calendar.StampRecorded,
		},
		ShiftID:            "day",
		IsSundayBonus:      false,
		IsCheckOutNextDay:  true,
		HasExceptions:      true,
		IsVacationDate:     true,
		HasAssistFlatList:  true,
		ShiftCalculateFlag: "F2",
		WorkedHours:        decimal.RequireFromString("8.5"),
		CreatedAt:          time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC),
	}

	if err := s.Upsert(ctx, day); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rows, err := s.LoadRange(ctx, "emp-1", rangeOver(t, date, date))
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}

	got := rows[0]
	if got.Status != calendar.StatusResolved || got.ShiftID != "day" {
		t.Errorf("status/shift mismatch: %+v", got)
	}
	if got.CheckIn == nil || !got.CheckIn.Raw.Equal(checkIn) || !got.CheckIn.Local.Equal(checkIn.Add(time.Hour)) {
		t.Errorf("check-in stamp mismatch: %+v", got.CheckIn)
	}
	if got.CheckOut != nil {
		t.Error("absent stamps must come back nil, not zero")
	}
	if !got.IsCheckOutNextDay || !got.HasExceptions || !got.IsVacationDate || !got.HasAssistFlatList {
		t.Errorf("flag round trip failed: %+v", got)
	}
	if got.ShiftCalculateFlag != "F2" {
		t.Errorf("calculate flag = %q, want F2", got.ShiftCalculateFlag)
	}
	if !got.WorkedHours.Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("worked hours = %s, want 8.5", got.WorkedHours)
	}
	if !got.CreatedAt.Equal(day.CreatedAt) {
		t.Errorf("created_at = %s, want %s", got.CreatedAt, day.CreatedAt)
	}
}

func TestUpsert_ConflictCollapsesToOneRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	date := calendar.NewDate(2024, time.June, 3)

	first := &calendar.CalendarDay{
		EmployeeID: "emp-1",
		Date:       date,
		Status:     calendar.StatusPending,
		CreatedAt:  time.Date(2024, 6, 3, 20, 0, 0, 0, time.UTC),
	}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second := &calendar.CalendarDay{
		EmployeeID:  "emp-1",
		Date:        date,
		Status:      calendar.StatusResolved,
		WorkedHours: decimal.RequireFromString("8"),
		CreatedAt:   first.CreatedAt, // caller preserves the original
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := s.LoadRange(ctx, "emp-1", rangeOver(t, date, date))
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("conflict path must keep a single row, got %d", len(rows))
	}
	if rows[0].Status != calendar.StatusResolved {
		t.Errorf("status not replaced on conflict: %q", rows[0].Status)
	}
	if !rows[0].CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at rewritten on conflict: %s", rows[0].CreatedAt)
	}
}

func TestActiveShift_SwapWinsOverStanding(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveShift(ctx, calendar.Shift{ID: "day", Name: "Day", RestDays: map[time.Weekday]bool{time.Sunday: true}}); err != nil {
		t.Fatalf("SaveShift: %v", err)
	}
	if err := s.SaveShift(ctx, calendar.Shift{ID: "night", Name: "Night"}); err != nil {
		t.Fatalf("SaveShift: %v", err)
	}
	if err := s.SaveEmployee(ctx, calendar.Employee{ID: "emp-1", Name: "Ana", StandingShiftID: "day", HireDate: calendar.NewDate(2020, time.January, 1)}); err != nil {
		t.Fatalf("SaveEmployee: %v", err)
	}

	swapDate := calendar.NewDate(2024, time.June, 5)
	if err := s.SaveSwap(ctx, "swap-1", "emp-1", swapDate, "night"); err != nil {
		t.Fatalf("SaveSwap: %v", err)
	}

	// On the swap date the temporary shift is in effect.
	a, err := s.ActiveShift(ctx, "emp-1", swapDate)
	if err != nil {
		t.Fatalf("ActiveShift: %v", err)
	}
	if a == nil || !a.IsSwap() || a.Shift.ID != "night" {
		t.Errorf("swap date should resolve the night shift as a swap: %+v", a)
	}

	// Any other date falls back to the standing shift.
	a, err = s.ActiveShift(ctx, "emp-1", swapDate.AddDays(1))
	if err != nil {
		t.Fatalf("ActiveShift: %v", err)
	}
	if a == nil || a.IsSwap() || a.Shift.ID != "day" {
		t.Errorf("off-swap date should resolve the standing shift: %+v", a)
	}
	if !a.Shift.RestDays[time.Sunday] {
		t.Error("rest days did not survive the CSV round trip")
	}

	// Unknown employee: no assignment, no error.
	a, err = s.ActiveShift(ctx, "ghost", swapDate)
	if err != nil || a != nil {
		t.Errorf("unknown employee: want nil/nil, got %+v, %v", a, err)
	}
}

func TestExceptionOn_WindowCoversInclusive(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	exc := calendar.ExceptionRequest{
		ID:         "exc-1",
		EmployeeID: "emp-1",
		Type:       calendar.ExceptionVacation,
		From:       calendar.NewDate(2024, time.July, 1),
		To:         calendar.NewDate(2024, time.July, 5),
	}
	if err := s.SaveException(ctx, exc); err != nil {
		t.Fatalf("SaveException: %v", err)
	}

	for _, tc := range []struct {
		date calendar.Date
		want bool
	}{
		{calendar.NewDate(2024, time.June, 30), false},
		{calendar.NewDate(2024, time.July, 1), true},
		{calendar.NewDate(2024, time.July, 3), true},
		{calendar.NewDate(2024, time.July, 5), true},
		{calendar.NewDate(2024, time.July, 6), false},
	} {
		got, err := s.ExceptionOn(ctx, "emp-1", tc.date)
		if err != nil {
			t.Fatalf("ExceptionOn(%s): %v", tc.date, err)
		}
		if (got != nil) != tc.want {
			t.Errorf("ExceptionOn(%s) = %v, want covered=%v", tc.date, got, tc.want)
		}
		if got != nil && got.Type != calendar.ExceptionVacation {
			t.Errorf("exception type lost: %q", got.Type)
		}
	}

	// The window never covers a different employee.
	got, err := s.ExceptionOn(ctx, "emp-2", calendar.NewDate(2024, time.July, 3))
	if err != nil || got != nil {
		t.Errorf("other employee: want nil/nil, got %+v, %v", got, err)
	}
}

func TestSoftDeleteEmployee_CascadesButStaysResolvable(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveEmployee(ctx, calendar.Employee{ID: "emp-1", Name: "Ana", HireDate: calendar.NewDate(2020, time.January, 1)}); err != nil {
		t.Fatalf("SaveEmployee: %v", err)
	}
	date := calendar.NewDate(2024, time.June, 3)
	if err := s.Upsert(ctx, &calendar.CalendarDay{EmployeeID: "emp-1", Date: date, Status: calendar.StatusResolved}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := s.SoftDeleteEmployee(ctx, "emp-1"); err != nil {
		t.Fatalf("SoftDeleteEmployee: %v", err)
	}

	// Calendar rows are hidden from range reads.
	rows, err := s.LoadRange(ctx, "emp-1", rangeOver(t, date, date))
	if err != nil {
		t.Fatalf("LoadRange: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("soft-deleted rows must not load, got %d", len(rows))
	}

	// But the employee record still resolves, marked deleted.
	emp, err := s.GetEmployee(ctx, "emp-1")
	if err != nil {
		t.Fatalf("GetEmployee: %v", err)
	}
	if emp == nil {
		t.Fatal("soft-deleted employee must still resolve")
	}
	if emp.DeletedAt == nil {
		t.Error("deleted_at marker missing")
	}
}

func TestPunches_SaveAndListByDay(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	date := calendar.NewDate(2024, time.June, 3)
	other := date.AddDays(1)
	in := calendar.RawPunch{ID: "p1", EmployeeID: "emp-1", Kind: calendar.KindCheckIn, Instant: date.Time().Add(8 * time.Hour), Origin: "device-7"}
	out := calendar.RawPunch{ID: "p2", EmployeeID: "emp-1", Kind: calendar.KindCheckOut, Instant: date.Time().Add(17 * time.Hour)}
	stray := calendar.RawPunch{ID: "p3", EmployeeID: "emp-1", Kind: calendar.KindCheckIn, Instant: other.Time().Add(8 * time.Hour)}

	for _, p := range []struct {
		punch calendar.RawPunch
		day   calendar.Date
	}{{in, date}, {out, date}, {stray, other}} {
		if err := s.SavePunch(ctx, p.punch, p.day); err != nil {
			t.Fatalf("SavePunch(%s): %v", p.punch.ID, err)
		}
	}

	punches, err := s.ListPunches(ctx, "emp-1", date)
	if err != nil {
		t.Fatalf("ListPunches: %v", err)
	}
	if len(punches) != 2 {
		t.Fatalf("got %d punches, want the 2 keyed to the day", len(punches))
	}
	if punches[0].ID != "p1" || punches[1].ID != "p2" {
		t.Errorf("punches not ordered by instant: %s, %s", punches[0].ID, punches[1].ID)
	}
	if punches[0].Origin != "device-7" {
		t.Errorf("origin lost: %q", punches[0].Origin)
	}
	if !punches[0].Instant.Equal(in.Instant) {
		t.Errorf("instant round trip: got %s, want %s", punches[0].Instant, in.Instant)
	}
}

func TestHolidays_UpsertByDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	date := calendar.NewDate(2024, time.September, 16)
	if err := s.SaveHoliday(ctx, calendar.Holiday{ID: "hol-1", Date: date, Name: "Independence"}); err != nil {
		t.Fatalf("SaveHoliday: %v", err)
	}
	// Same date again: the name is replaced, not duplicated.
	if err := s.SaveHoliday(ctx, calendar.Holiday{ID: "hol-2", Date: date, Name: "Independence Day"}); err != nil {
		t.Fatalf("SaveHoliday (replace): %v", err)
	}

	all, err := s.ListHolidays(ctx)
	if err != nil {
		t.Fatalf("ListHolidays: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("date-keyed holiday duplicated, got %d", len(all))
	}
	if all[0].Name != "Independence Day" {
		t.Errorf("name not replaced: %q", all[0].Name)
	}

	h, err := s.HolidayOn(ctx, date)
	if err != nil {
		t.Fatalf("HolidayOn: %v", err)
	}
	if h == nil || h.Date != date {
		t.Errorf("HolidayOn mismatch: %+v", h)
	}

	none, err := s.HolidayOn(ctx, date.AddDays(1))
	if err != nil || none != nil {
		t.Errorf("no holiday: want nil/nil, got %+v, %v", none, err)
	}
}
