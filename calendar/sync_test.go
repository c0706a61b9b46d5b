package calendar_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/calendar/store"
)

// fixedNow pins the synchronizer's clock well after the test ranges so
// historical days resolve instead of staying pending as "today".
func fixedNow(d calendar.Date) func() time.Time {
	return func() time.Time { return d.Time().Add(12 * time.Hour) }
}

func newSynchronizer(mem *store.Memory, today calendar.Date) *calendar.Synchronizer {
	return &calendar.Synchronizer{
		Calendar:     mem,
		Punches:      mem,
		Shifts:       mem,
		Holidays:     mem,
		Exceptions:   mem,
		Now:          fixedNow(today),
		RetryBackoff: time.Millisecond,
	}
}

func seedWorker(mem *store.Memory) *calendar.Employee {
	emp := calendar.Employee{ID: "emp-1", Name: "Ana", StandingShiftID: "day"}
	mem.AddEmployee(emp)
	mem.AddShift(calendar.Shift{
		ID:       "day",
		Name:     "Day shift",
		RestDays: map[time.Weekday]bool{time.Sunday: true},
	})
	mem.AssignStanding(emp.ID, "day")
	return &emp
}

func mustRange(t *testing.T, start, end calendar.Date) calendar.DateRange {
	t.Helper()
	r, err := calendar.NewDateRange(start, end)
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	return r
}

func TestEnsureRange_MaterializesEveryDate(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	r := mustRange(t, calendar.NewDate(2024, time.January, 8), calendar.NewDate(2024, time.January, 12))
	s := newSynchronizer(mem, calendar.NewDate(2024, time.February, 1))

	rows, failed, err := s.EnsureRange(context.Background(), emp, r)
	if err != nil {
		t.Fatalf("EnsureRange: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("no upstream is broken, yet %d dates failed", len(failed))
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want one per date (5)", len(rows))
	}
	for _, row := range rows {
		if row.Status != calendar.StatusResolved {
			t.Errorf("%s: historical weekday on shift should resolve, got %q", row.Date, row.Status)
		}
		if row.ShiftID != "day" {
			t.Errorf("%s: shift id not carried onto the row", row.Date)
		}
	}
}

func TestEnsureRange_ResolvedRowsAreNeverRecomputed(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	r := mustRange(t, calendar.NewDate(2024, time.January, 8), calendar.NewDate(2024, time.January, 10))
	s := newSynchronizer(mem, calendar.NewDate(2024, time.February, 1))
	ctx := context.Background()

	first, _, err := s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	stamps := make(map[calendar.Date]time.Time, len(first))
	for _, row := range first {
		stamps[row.Date] = row.UpdatedAt
	}

	// WHEN: a later pass runs with a later clock
	s.Now = fixedNow(calendar.NewDate(2024, time.March, 1))
	second, _, err := s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	// THEN: resolved rows kept their original UpdatedAt
	for _, row := range second {
		if !row.UpdatedAt.Equal(stamps[row.Date]) {
			t.Errorf("%s: resolved row was rewritten; UpdatedAt %s -> %s",
				row.Date, stamps[row.Date], row.UpdatedAt)
		}
	}
	if mem.RowCount(emp.ID) != 3 {
		t.Errorf("row count drifted to %d, want 3", mem.RowCount(emp.ID))
	}
}

func TestEnsureRange_BackfillsOnlyTheGap(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	first := calendar.NewDate(2024, time.June, 1)
	s := newSynchronizer(mem, calendar.NewDate(2024, time.June, 10))
	ctx := context.Background()

	// GIVEN: June 1 is already materialized
	rows, _, err := s.EnsureRange(ctx, emp, mustRange(t, first, first))
	if err != nil {
		t.Fatalf("seed pass: %v", err)
	}
	seeded := rows[0].UpdatedAt

	// WHEN: a wider range arrives with a later clock
	s.Now = fixedNow(calendar.NewDate(2024, time.June, 20))
	rows, _, err = s.EnsureRange(ctx, emp, mustRange(t, first, first.AddDays(2)))
	if err != nil {
		t.Fatalf("gap pass: %v", err)
	}

	// THEN: the two missing dates were filled, the existing row untouched
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for _, row := range rows {
		if row.Date.Equal(first) && !row.UpdatedAt.Equal(seeded) {
			t.Errorf("pre-existing row was rewritten; UpdatedAt %s -> %s", seeded, row.UpdatedAt)
		}
	}
}

func TestEnsureRange_PendingRowsAreRecomputed(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	target := calendar.NewDate(2024, time.January, 10)
	r := mustRange(t, target, target)
	ctx := context.Background()

	// GIVEN: the date is materialized while it is still in the future
	s := newSynchronizer(mem, calendar.NewDate(2024, time.January, 5))
	rows, _, err := s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("future pass: %v", err)
	}
	if rows[0].Status != calendar.StatusPending || !rows[0].IsFutureDay {
		t.Fatalf("future date should be a pending placeholder, got %+v", rows[0])
	}

	// AND: punches arrive once the day has happened
	mem.AddPunch(calendar.RawPunch{ID: "p1", EmployeeID: emp.ID, Kind: calendar.KindCheckIn, Instant: target.Time().Add(8 * time.Hour)}, target)
	mem.AddPunch(calendar.RawPunch{ID: "p2", EmployeeID: emp.ID, Kind: calendar.KindCheckOut, Instant: target.Time().Add(17 * time.Hour)}, target)

	// WHEN: a later read passes over the same range
	s.Now = fixedNow(calendar.NewDate(2024, time.February, 1))
	rows, _, err = s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	// THEN: the pending row was recomputed in place
	if rows[0].Status != calendar.StatusResolved {
		t.Errorf("pending row should resolve once inputs exist, got %q", rows[0].Status)
	}
	if rows[0].IsFutureDay {
		t.Error("the date is in the past now; IsFutureDay must clear")
	}
	if !rows[0].HasAssistFlatList || rows[0].CheckIn == nil {
		t.Error("recomputation should pick up the arrived punches")
	}
	if mem.RowCount(emp.ID) != 1 {
		t.Errorf("recompute must reuse the row, got %d rows", mem.RowCount(emp.ID))
	}
}

func TestEnsureRange_UpstreamFailureLeavesPendingPlaceholder(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	r := mustRange(t, calendar.NewDate(2024, time.January, 8), calendar.NewDate(2024, time.January, 9))
	s := newSynchronizer(mem, calendar.NewDate(2024, time.February, 1))
	ctx := context.Background()

	mem.FailWith("punches", calendar.ErrUpstreamUnavailable)

	rows, failed, err := s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("a broken collaborator must not abort the range: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("both dates depend on punches, got %d failed", len(failed))
	}
	for _, row := range rows {
		if row.Status != calendar.StatusPending {
			t.Errorf("%s: unreachable inputs should leave a pending placeholder, got %q", row.Date, row.Status)
		}
	}

	// WHEN: the upstream recovers
	mem.FailWith("punches", nil)
	rows, failed, err = s.EnsureRange(ctx, emp, r)
	if err != nil {
		t.Fatalf("recovery pass: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("recovered upstream, yet %d dates still failed", len(failed))
	}
	for _, row := range rows {
		if row.Status != calendar.StatusResolved {
			t.Errorf("%s: placeholder should resolve after recovery, got %q", row.Date, row.Status)
		}
	}
}

func TestEnsureRange_NoShiftNoEvidenceIsSkipped(t *testing.T) {
	mem := store.NewMemory()
	emp := calendar.Employee{ID: "emp-2", Name: "Ben"}
	mem.AddEmployee(emp)

	target := calendar.NewDate(2024, time.January, 10)
	s := newSynchronizer(mem, calendar.NewDate(2024, time.February, 1))

	rows, _, err := s.EnsureRange(context.Background(), &emp, mustRange(t, target, target))
	if err != nil {
		t.Fatalf("EnsureRange: %v", err)
	}
	if rows[0].Status != calendar.StatusSkipped {
		t.Errorf("no shift, no exception, no punches: want skipped, got %q", rows[0].Status)
	}
}

func TestEnsureRange_ConcurrentCallersConvergeOnOneRowPerDay(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	r := mustRange(t, calendar.NewDate(2024, time.January, 1), calendar.NewDate(2024, time.January, 31))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := newSynchronizer(mem, calendar.NewDate(2024, time.February, 15))
			if _, _, err := s.EnsureRange(ctx, emp, r); err != nil {
				t.Errorf("EnsureRange: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := mem.RowCount(emp.ID); got != 31 {
		t.Errorf("concurrent backfills must converge on one row per day, got %d", got)
	}
}

func TestEnsureRange_TodayStaysPending(t *testing.T) {
	mem := store.NewMemory()
	emp := seedWorker(mem)
	today := calendar.NewDate(2024, time.January, 10)
	s := newSynchronizer(mem, today)

	mem.AddPunch(calendar.RawPunch{ID: "p1", EmployeeID: emp.ID, Kind: calendar.KindCheckIn, Instant: today.Time().Add(8 * time.Hour)}, today)

	rows, _, err := s.EnsureRange(context.Background(), emp, mustRange(t, today, today))
	if err != nil {
		t.Fatalf("EnsureRange: %v", err)
	}
	row := rows[0]
	if row.Status != calendar.StatusPending {
		t.Errorf("today is still accruing punches, want pending, got %q", row.Status)
	}
	if row.IsFutureDay {
		t.Error("today is not a future day")
	}
	if row.CheckIn == nil {
		t.Error("today's punches so far should still be on the row")
	}
}
