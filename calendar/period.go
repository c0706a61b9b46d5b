package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE RANGE - Inclusive span of calendar dates
// =============================================================================

// DateRange is an inclusive [Start, End] span of calendar dates.
// Every range query resolves to one of these before touching storage.
type DateRange struct {
	Start Date
	End   Date
}

// NewDateRange validates and builds a range.
func NewDateRange(start, end Date) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, &RangeError{Start: start, End: end}
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains returns true if the date is within the range.
func (r DateRange) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Dates returns every calendar date in the range, ascending.
func (r DateRange) Dates() []Date {
	var dates []Date
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

// Len returns the number of days in the range.
func (r DateRange) Len() int {
	return int(r.End.Time().Sub(r.Start.Time()).Hours()/24) + 1
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// RANGE NORMALIZATION
// =============================================================================

// NormalizeRange parses raw YYYY-MM-DD bounds at regional-timezone day
// boundaries (00:00:00 start, 23:59:59 end). Parsing through the regional
// location avoids the off-by-one-day drift a naive UTC parse produces for
// callers west of Greenwich.
func NormalizeRange(startRaw, endRaw string, loc *time.Location) (DateRange, error) {
	start, err := parseDateIn(startRaw, loc)
	if err != nil {
		return DateRange{}, err
	}
	end, err := parseDateIn(endRaw, loc)
	if err != nil {
		return DateRange{}, err
	}
	return NewDateRange(start, end)
}

func parseDateIn(s string, loc *time.Location) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return DateOf(t.In(loc)), nil
}
