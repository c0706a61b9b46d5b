package calendar

import (
	"testing"
	"time"
)

func weekdayShift(id string, restDays ...time.Weekday) Shift {
	rest := make(map[time.Weekday]bool)
	for _, wd := range restDays {
		rest[wd] = true
	}
	return Shift{ID: id, Name: id, RestDays: rest}
}

func TestClassify_RestDayFromShiftSet(t *testing.T) {
	emp := &Employee{ID: "emp-1"}
	shift := weekdayShift("morning", time.Sunday)

	// 2024-06-02 is a Sunday
	traits := Classify(emp, NewDate(2024, time.June, 2), Standing(shift))
	if !traits.IsRestDay {
		t.Error("Sunday should be a rest day for a Sunday-rest shift")
	}

	traits = Classify(emp, NewDate(2024, time.June, 3), Standing(shift))
	if traits.IsRestDay {
		t.Error("Monday should not be a rest day for a Sunday-rest shift")
	}
}

func TestClassify_SwapMarksShiftChange(t *testing.T) {
	emp := &Employee{ID: "emp-1"}
	morning := weekdayShift("morning", time.Sunday)
	night := weekdayShift("night", time.Monday)
	date := NewDate(2024, time.June, 3)

	standing := Classify(emp, date, Standing(morning))
	if standing.ShiftIsChange {
		t.Error("standing assignment should not mark a shift change")
	}
	if standing.ShiftID != "morning" {
		t.Errorf("ShiftID = %q, want morning", standing.ShiftID)
	}

	swapped := Classify(emp, date, Swapped(night, morning))
	if !swapped.ShiftIsChange {
		t.Error("swap should mark a shift change")
	}
	if swapped.ShiftID != "night" {
		t.Errorf("ShiftID = %q, want the swapped-in shift", swapped.ShiftID)
	}
	// Rest days follow the shift actually in effect.
	mondayTraits := Classify(emp, date, Swapped(night, morning))
	if !mondayTraits.IsRestDay {
		t.Error("rest day should follow the swapped-in shift's rest set")
	}
}

func TestClassify_BirthdayIgnoresYear(t *testing.T) {
	emp := &Employee{ID: "emp-1", BirthDate: NewDate(1990, time.June, 3)}

	traits := Classify(emp, NewDate(2024, time.June, 3), nil)
	if !traits.IsBirthday {
		t.Error("birthday should match on month/day across years")
	}

	traits = Classify(emp, NewDate(2024, time.June, 4), nil)
	if traits.IsBirthday {
		t.Error("non-matching day should not be a birthday")
	}
}

func TestClassify_NoShiftIsNotAnError(t *testing.T) {
	// An employee may legitimately have no shift on a historical date.
	emp := &Employee{ID: "emp-1"}
	traits := Classify(emp, NewDate(2024, time.June, 3), nil)

	if traits.HasShift {
		t.Error("nil assignment should yield HasShift == false")
	}
	if traits.ShiftID != "" || traits.IsRestDay {
		t.Error("nil assignment should leave shift traits zero")
	}
}

func TestClassify_ZeroBirthDateNeverMatches(t *testing.T) {
	emp := &Employee{ID: "emp-1"} // no birth date on record
	traits := Classify(emp, NewDate(2024, time.January, 1), nil)
	if traits.IsBirthday {
		t.Error("employee without a birth date should never get the birthday flag")
	}
}
