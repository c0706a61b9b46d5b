/*
overlay.go - Gated enrichment of materialized day rows

PURPOSE:
  Attaches exception, holiday, and raw-punch detail to a day row on read.
  Which fetches run is decided by the EnrichmentPlan derived from the
  row's persisted gates - the overlay itself never speculates.

COST CONTRACT:
  A false gate is a guarantee, not an optimization: when HasExceptions is
  false the exception store is not consulted at all, so the enriched row
  cannot carry exception data the base row never earned.

CONCURRENCY:
  Enrich is read-only against storage and touches only the row it was
  handed, so concurrent calls for different days of a range are
  independent.

SEE ALSO:
  - types.go: EnrichmentPlan and PlanFor
  - engine.go: Enriches every row after synchronization
*/
package calendar

import "context"

// Overlay enriches day rows from the collaborator stores.
type Overlay struct {
	Holidays   HolidayStore
	Exceptions ExceptionStore
	Punches    PunchSource
}

// Enrich attaches the gated detail to the row in place. Exactly the
// fetches named by the row's plan are performed.
func (o *Overlay) Enrich(ctx context.Context, day *CalendarDay) error {
	plan := PlanFor(day)

	if plan.FetchException {
		exc, err := o.Exceptions.ExceptionOn(ctx, day.EmployeeID, day.Date)
		if err != nil {
			return &UpstreamError{Store: "exceptions", Date: day.Date, Err: err}
		}
		day.Exception = exc
	}

	if plan.FetchHoliday {
		hol, err := o.Holidays.HolidayOn(ctx, day.Date)
		if err != nil {
			return &UpstreamError{Store: "holidays", Date: day.Date, Err: err}
		}
		day.Holiday = hol
	}

	if plan.FetchPunchList {
		punches, err := o.Punches.ListPunches(ctx, day.EmployeeID, day.Date)
		if err != nil {
			return &UpstreamError{Store: "punches", Date: day.Date, Err: err}
		}
		day.PunchList = punches
	}

	return nil
}
