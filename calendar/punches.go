/*
punches.go - First-in/last-out punch aggregation

PURPOSE:
  Collapses the raw punches recorded against an employee/day into the four
  canonical stamps (check-in, eat-in, eat-out, check-out), applying the
  DST correction to each selected instant and detecting cross-midnight
  pairs.

SELECTION POLICY (last-known-good):
  More punches than pairs is tolerated and resolved by extremes, not by
  count validation: check-in and eat-in take the earliest punch of their
  kind, check-out and eat-out take the latest. A duplicate badge scan
  never corrupts a day.

CROSS-DAY OWNERSHIP:
  A check-out whose corrected instant lands on the following calendar
  date stays on the originating shift day with IsCheckOutNextDay set.
  The next date's row is never created or mutated because of it.

IN-PROGRESS VS MISSING:
  Today with no check-out is "not yet happened": the slot is nil with no
  status, never an anomaly. A past working day with no punches at all is
  also not an error here - the nil pair is surfaced for downstream
  payroll to interpret as an absence.

SEE ALSO:
  - clock.go: The DST correction applied to every selected instant
  - sync.go: Calls Aggregate during day computation
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate is the punch-derived portion of a day row.
type Aggregate struct {
	CheckIn  *Stamp
	CheckOut *Stamp
	EatIn    *Stamp
	EatOut   *Stamp

	IsCheckInEatNextDay  bool // eat-in fell on the following calendar date
	IsCheckOutEatNextDay bool // eat-out fell on the following calendar date
	IsCheckOutNextDay    bool // check-out fell on the following calendar date

	// InProgress is true when the day is today and no check-out exists yet:
	// "not yet happened", distinct from a past day's missing check-out.
	InProgress bool

	// WorkedHours is check-out minus check-in minus the eat window, in
	// hours, zero while the pair is incomplete.
	WorkedHours decimal.Decimal
}

// AggregatePunches reduces the raw punches of one employee/day to stamps.
// today is injected so the in-progress policy is testable.
func AggregatePunches(date Date, punches []RawPunch, today Date) Aggregate {
	agg := Aggregate{WorkedHours: decimal.Zero}

	checkIn := selectPunch(punches, KindCheckIn, earliest)
	checkOut := selectPunch(punches, KindCheckOut, latest)
	eatIn := selectPunch(punches, KindEatIn, earliest)
	eatOut := selectPunch(punches, KindEatOut, latest)

	agg.CheckIn = stampFor(checkIn, date)
	agg.EatIn = stampFor(eatIn, date)
	agg.EatOut = stampFor(eatOut, date)

	if checkOut != nil {
		agg.CheckOut = stampFor(checkOut, date)
	} else {
		// The slot stays nil with an empty status. When date is today the
		// day is simply in progress and no anomaly is inferred; past days
		// keep the nil slot for downstream interpretation as an absence.
		agg.InProgress = date.Equal(today)
	}

	nextDay := date.AddDays(1)
	if agg.CheckOut != nil && DateOf(agg.CheckOut.Local) == nextDay {
		agg.IsCheckOutNextDay = true
	}
	if agg.EatIn != nil && DateOf(agg.EatIn.Local) == nextDay {
		agg.IsCheckInEatNextDay = true
	}
	if agg.EatOut != nil && DateOf(agg.EatOut.Local) == nextDay {
		agg.IsCheckOutEatNextDay = true
	}

	agg.WorkedHours = workedHours(agg)
	return agg
}

// stampFor corrects the punch instant for the owning day exactly once.
func stampFor(p *RawPunch, date Date) *Stamp {
	if p == nil {
		return nil
	}
	return &Stamp{
		Raw:    p.Instant,
		Local:  CorrectInstant(p.Instant, date),
		Status: StampRecorded,
	}
}

type pick func(a, b time.Time) bool

func earliest(a, b time.Time) bool { return a.Before(b) }
func latest(a, b time.Time) bool   { return a.After(b) }

func selectPunch(punches []RawPunch, kind PunchKind, better pick) *RawPunch {
	var selected *RawPunch
	for i := range punches {
		p := &punches[i]
		if p.Kind != kind {
			continue
		}
		if selected == nil || better(p.Instant, selected.Instant) {
			selected = p
		}
	}
	return selected
}

func workedHours(agg Aggregate) decimal.Decimal {
	if agg.CheckIn == nil || agg.CheckOut == nil {
		return decimal.Zero
	}
	worked := agg.CheckOut.Local.Sub(agg.CheckIn.Local)
	if agg.EatIn != nil && agg.EatOut != nil {
		if eat := agg.EatOut.Local.Sub(agg.EatIn.Local); eat > 0 {
			worked -= eat
		}
	}
	if worked < 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(worked.Minutes()).
		Div(decimal.NewFromInt(60)).
		Round(2)
}
