/*
sync.go - Gap detection and at-most-once backfill

PURPOSE:
  Guarantees that every date of a requested range has a materialized
  calendar row before the caller reads. Missing dates are computed
  through the full day pipeline (classify -> aggregate -> gate) and
  upserted; the range is then re-read so callers always observe
  persisted rows, never a partially computed in-memory result.

TWO-PHASE DESIGN:
  Compute-then-reread exists so concurrent callers requesting
  overlapping ranges converge on one persisted row per day. The upsert
  is keyed on (employeeID, date); last-write-wins is safe because day
  computation is deterministic given identical inputs.

WHAT GETS (RE)COMPUTED:
  - Dates with no row at all (the gap).
  - Rows left in StatusPending: today's still-accruing row, rows for
    dates that were in the future when first materialized, and rows
    whose inputs were unreachable on a previous pass.
  Resolved and skipped rows are never touched again; their UpdatedAt
  stays put.

FAILURE ISOLATION:
  One day's upstream failure never aborts the range. The fetch is
  retried with backoff; if retries are exhausted the day is recorded as
  a pending placeholder (when no prior row exists) and reported in the
  still-pending set. The caller gets every resolved day regardless.

CANCELLATION:
  Backfill runs on a cancellation-detached context: a caller that goes
  away mid-range stops the final read from being delivered, not a day
  from being materialized. Computed rows are never wasted work.

SEE ALSO:
  - classify.go, punches.go: The per-day pipeline stages
  - engine.go: The only caller
*/
package calendar

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// SYNCHRONIZER
// =============================================================================

// Synchronizer materializes missing calendar rows for a range.
type Synchronizer struct {
	Calendar   CalendarStore
	Punches    PunchSource
	Shifts     ShiftStore
	Holidays   HolidayStore
	Exceptions ExceptionStore

	// Location is the regional timezone used to decide "today".
	Location *time.Location

	// Now is injectable for tests. Defaults to time.Now.
	Now func() time.Time

	// MaxRetries and RetryBackoff govern upstream retry. Defaults: 3, 50ms.
	MaxRetries   int
	RetryBackoff time.Duration

	// MaxConcurrent caps the per-day fan-out. Default: 8.
	MaxConcurrent int
}

func (s *Synchronizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Synchronizer) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Synchronizer) today() Date {
	return DateOf(s.now().In(s.location()))
}

func (s *Synchronizer) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return 3
}

func (s *Synchronizer) backoff() time.Duration {
	if s.RetryBackoff > 0 {
		return s.RetryBackoff
	}
	return 50 * time.Millisecond
}

func (s *Synchronizer) concurrency() int {
	if s.MaxConcurrent > 0 {
		return s.MaxConcurrent
	}
	return 8
}

// EnsureRange materializes every date of the range for the employee and
// returns the re-read rows plus the dates still unresolved after retries.
// The returned rows are unordered and unenriched; the orchestrator owns
// sorting and overlay.
func (s *Synchronizer) EnsureRange(ctx context.Context, employee *Employee, r DateRange) ([]*CalendarDay, []Date, error) {
	existing, err := s.Calendar.LoadRange(ctx, employee.ID, r)
	if err != nil {
		return nil, nil, err
	}

	byDate := make(map[Date]*CalendarDay, len(existing))
	for _, day := range existing {
		byDate[day.Date] = day
	}

	// The work set: gap dates plus rows still pending. A map keys the
	// fan-out so each date is processed at most once per invocation.
	work := make(map[Date]*CalendarDay)
	for _, d := range r.Dates() {
		prior, ok := byDate[d]
		if !ok {
			work[d] = nil
			continue
		}
		if prior.Status == StatusPending {
			work[d] = prior
		}
	}

	failed := s.backfill(ctx, employee, work)

	// Re-read with the caller's context: cancellation gates delivery only.
	rows, err := s.Calendar.LoadRange(ctx, employee.ID, r)
	if err != nil {
		return nil, nil, err
	}
	return rows, failed, nil
}

// backfill fans the work set out per-day and returns the dates that could
// not be resolved. Runs detached from caller cancellation: a computed day
// is persisted even when nobody is left to read it.
func (s *Synchronizer) backfill(ctx context.Context, employee *Employee, work map[Date]*CalendarDay) []Date {
	if len(work) == 0 {
		return nil
	}

	detached := context.WithoutCancel(ctx)
	sem := make(chan struct{}, s.concurrency())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []Date
	)

	for date, prior := range work {
		wg.Add(1)
		go func(date Date, prior *CalendarDay) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.materialize(detached, employee, date, prior); err != nil {
				mu.Lock()
				failed = append(failed, date)
				mu.Unlock()
			}
		}(date, prior)
	}
	wg.Wait()

	return failed
}

// materialize computes one day and upserts it. On exhausted retries it
// writes a pending placeholder when no prior row exists, so the gap stays
// visible and a later pass retries it.
func (s *Synchronizer) materialize(ctx context.Context, employee *Employee, date Date, prior *CalendarDay) error {
	var day *CalendarDay
	err := s.withRetry(ctx, func() error {
		var computeErr error
		day, computeErr = s.computeDay(ctx, employee, date, prior)
		return computeErr
	})
	if err != nil {
		if prior == nil {
			placeholder := s.placeholderRow(employee.ID, date)
			if upsertErr := s.Calendar.Upsert(ctx, placeholder); upsertErr != nil {
				return upsertErr
			}
		}
		return err
	}
	return s.Calendar.Upsert(ctx, day)
}

func (s *Synchronizer) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < s.retries(); attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		select {
		case <-time.After(s.backoff() * time.Duration(attempt+1)):
		case <-ctx.Done():
			return err
		}
	}
	return err
}

// =============================================================================
// DAY PIPELINE
// =============================================================================

// computeDay runs the full pipeline for one employee/date. Deterministic
// given identical store contents and clock.
func (s *Synchronizer) computeDay(ctx context.Context, employee *Employee, date Date, prior *CalendarDay) (*CalendarDay, error) {
	todayDate := s.today()
	now := s.now().UTC()

	day := &CalendarDay{
		EmployeeID:  employee.ID,
		Date:        date,
		IsFutureDay: date.After(todayDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if prior != nil && !prior.CreatedAt.IsZero() {
		day.CreatedAt = prior.CreatedAt
	}

	// Stage 1: shift assignment and static traits.
	assignment, err := s.Shifts.ActiveShift(ctx, employee.ID, date)
	if err != nil {
		return nil, &UpstreamError{Store: "shifts", Date: date, Err: err}
	}
	traits := Classify(employee, date, assignment)
	day.ShiftID = traits.ShiftID
	day.ShiftIsChange = traits.ShiftIsChange
	day.IsRestDay = traits.IsRestDay
	day.IsBirthday = traits.IsBirthday
	day.ShiftCalculateFlag = traits.ShiftCalculateFlag
	if day.ShiftCalculateFlag == "" && prior != nil {
		// Opaque payroll flag: preserved across recomputation, never read.
		day.ShiftCalculateFlag = prior.ShiftCalculateFlag
	}

	// Stage 2: holiday gate.
	holiday, err := s.Holidays.HolidayOn(ctx, date)
	if err != nil {
		return nil, &UpstreamError{Store: "holidays", Date: date, Err: err}
	}
	if holiday != nil {
		day.IsHoliday = true
		day.HolidayID = holiday.ID
	}

	// Stage 3: exception gates. This write-path fetch is what licenses the
	// read-path overlay: a false gate means the overlay never looks.
	exception, err := s.Exceptions.ExceptionOn(ctx, employee.ID, date)
	if err != nil {
		return nil, &UpstreamError{Store: "exceptions", Date: date, Err: err}
	}
	if exception != nil {
		day.HasExceptions = true
		day.IsVacationDate = exception.Type == ExceptionVacation
		day.IsWorkDisabilityDate = exception.Type == ExceptionDisability
	}

	// Stage 4: punches. Future days carry no punch interpretation at all:
	// no lookup, no stamps, no anomaly inference on days not yet happened.
	var punchCount int
	if !day.IsFutureDay {
		punches, err := s.Punches.ListPunches(ctx, employee.ID, date)
		if err != nil {
			return nil, &UpstreamError{Store: "punches", Date: date, Err: err}
		}
		punchCount = len(punches)

		agg := AggregatePunches(date, punches, todayDate)
		day.CheckIn = agg.CheckIn
		day.CheckOut = agg.CheckOut
		day.EatIn = agg.EatIn
		day.EatOut = agg.EatOut
		day.IsCheckInEatNextDay = agg.IsCheckInEatNextDay
		day.IsCheckOutEatNextDay = agg.IsCheckOutEatNextDay
		day.IsCheckOutNextDay = agg.IsCheckOutNextDay
		day.WorkedHours = agg.WorkedHours

		day.HasAssistFlatList = punchCount > 0
		day.IsSundayBonus = date.Weekday() == time.Sunday &&
			!day.IsRestDay && day.CheckIn != nil
	}

	day.Status = s.resolveStatus(day, traits, punchCount, todayDate)
	return day, nil
}

// resolveStatus closes the row into exactly one of the three states.
func (s *Synchronizer) resolveStatus(day *CalendarDay, traits DayTraits, punchCount int, today Date) DayStatus {
	switch {
	case day.IsFutureDay:
		// Materialized ahead of time; recomputed once the date arrives.
		return StatusPending
	case day.Date.Equal(today):
		// Today is still accruing punches; recomputed on later reads.
		return StatusPending
	case !traits.HasShift && !day.HasExceptions && !day.IsHoliday && punchCount == 0:
		// Nothing explains the day: no shift, no exception, no punches.
		return StatusSkipped
	default:
		return StatusResolved
	}
}

// placeholderRow marks a date whose inputs were unreachable so the gap
// stays visible and a later pass retries it.
func (s *Synchronizer) placeholderRow(employeeID string, date Date) *CalendarDay {
	now := s.now().UTC()
	return &CalendarDay{
		EmployeeID:  employeeID,
		Date:        date,
		Status:      StatusPending,
		IsFutureDay: date.After(s.today()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
