package calendar_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/attendance-engine/calendar"
	"github.com/warp/attendance-engine/calendar/store"
)

func overlayUnderTest(mem *store.Memory) *calendar.Overlay {
	return &calendar.Overlay{Holidays: mem, Exceptions: mem, Punches: mem}
}

func TestOverlay_FalseGatesSkipFetchesEntirely(t *testing.T) {
	// GIVEN: every collaborator store is broken
	mem := store.NewMemory()
	mem.FailWith("punches", errors.New("boom"))
	mem.FailWith("holidays", errors.New("boom"))
	mem.FailWith("exceptions", errors.New("boom"))

	day := &calendar.CalendarDay{
		EmployeeID: "emp-1",
		Date:       calendar.NewDate(2024, time.June, 3),
		// All gates false: no store may be consulted.
	}

	// WHEN/THEN: enrichment succeeds because nothing is fetched
	if err := overlayUnderTest(mem).Enrich(context.Background(), day); err != nil {
		t.Fatalf("false gates must guarantee no fetch, got %v", err)
	}
	if day.Exception != nil || day.Holiday != nil || day.PunchList != nil {
		t.Error("ungated row must stay bare")
	}
}

func TestOverlay_GatedFetchesAttachDetail(t *testing.T) {
	mem := store.NewMemory()
	date := calendar.NewDate(2024, time.May, 1)
	mem.AddHoliday(calendar.Holiday{ID: "hol-1", Name: "Labor Day", Date: date})
	mem.AddException(calendar.ExceptionRequest{
		ID:         "exc-1",
		EmployeeID: "emp-1",
		Type:       calendar.ExceptionVacation,
		From:       date,
		To:         date,
	})
	mem.AddPunch(calendar.RawPunch{ID: "p1", EmployeeID: "emp-1", Kind: calendar.KindCheckIn, Instant: date.Time().Add(8 * time.Hour)}, date)

	day := &calendar.CalendarDay{
		EmployeeID:        "emp-1",
		Date:              date,
		IsHoliday:         true,
		HasExceptions:     true,
		HasAssistFlatList: true,
	}

	if err := overlayUnderTest(mem).Enrich(context.Background(), day); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if day.Holiday == nil || day.Holiday.ID != "hol-1" {
		t.Errorf("holiday detail not attached: %+v", day.Holiday)
	}
	if day.Exception == nil || day.Exception.ID != "exc-1" {
		t.Errorf("exception detail not attached: %+v", day.Exception)
	}
	if len(day.PunchList) != 1 {
		t.Errorf("punch list not attached, got %d punches", len(day.PunchList))
	}
}

func TestOverlay_UpstreamFailureIsNamedAndDated(t *testing.T) {
	mem := store.NewMemory()
	mem.FailWith("holidays", calendar.ErrUpstreamUnavailable)

	date := calendar.NewDate(2024, time.May, 1)
	day := &calendar.CalendarDay{EmployeeID: "emp-1", Date: date, IsHoliday: true}

	err := overlayUnderTest(mem).Enrich(context.Background(), day)
	if err == nil {
		t.Fatal("gated fetch against a broken store must fail")
	}

	var ue *calendar.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %T", err)
	}
	if ue.Store != "holidays" || ue.Date != date {
		t.Errorf("failure should name the store and date, got %+v", ue)
	}
	if !calendar.IsRetryable(err) {
		t.Error("an unavailable upstream is retryable")
	}
}
