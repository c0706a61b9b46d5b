package calendar

import (
	"errors"
	"testing"
	"time"
)

func TestDateRange_DatesAscendingInclusive(t *testing.T) {
	r, err := NewDateRange(NewDate(2024, time.January, 30), NewDate(2024, time.February, 2))
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}

	dates := r.Dates()
	if len(dates) != 4 || r.Len() != 4 {
		t.Fatalf("got %d dates (Len %d), want 4 across the month boundary", len(dates), r.Len())
	}
	if dates[0] != r.Start || dates[3] != r.End {
		t.Errorf("bounds are inclusive: %v", dates)
	}
	if dates[1] != NewDate(2024, time.January, 31) || dates[2] != NewDate(2024, time.February, 1) {
		t.Errorf("month rollover broken: %v", dates)
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	d := NewDate(2024, time.June, 3)
	r, err := NewDateRange(d, d)
	if err != nil {
		t.Fatalf("NewDateRange: %v", err)
	}
	if r.Len() != 1 || !r.Contains(d) {
		t.Errorf("single-day range malformed: %s", r)
	}
	if r.Contains(d.AddDays(1)) || r.Contains(d.AddDays(-1)) {
		t.Error("neighbors must fall outside")
	}
}

func TestNewDateRange_RejectsInverted(t *testing.T) {
	_, err := NewDateRange(NewDate(2024, time.June, 5), NewDate(2024, time.June, 1))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("want ErrInvalidRange, got %v", err)
	}
	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("want *RangeError carrying the bounds, got %T", err)
	}
	if re.Start.Day != 5 || re.End.Day != 1 {
		t.Errorf("bounds lost: %+v", re)
	}
}

func TestNormalizeRange_ParsesAtRegionalBoundaries(t *testing.T) {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	r, err := NormalizeRange("2024-06-01", "2024-06-03", loc)
	if err != nil {
		t.Fatalf("NormalizeRange: %v", err)
	}
	if r.Start != NewDate(2024, time.June, 1) || r.End != NewDate(2024, time.June, 3) {
		t.Errorf("regional parse drifted: %s", r)
	}

	_, err = NormalizeRange("06/01/2024", "2024-06-03", loc)
	if !errors.Is(err, ErrMalformedDate) {
		t.Errorf("want ErrMalformedDate, got %v", err)
	}
}
