/*
classify.go - Static day attributes independent of punches

PURPOSE:
  Determines what a calendar day IS for an employee before any punch is
  looked at: rest day or not, which shift governs it, whether that shift
  is a temporary swap, and whether it is the employee's birthday.

NO-SHIFT POLICY:
  An employee may legitimately have no shift on a historical date (hired
  later, between assignments). That is not an error: Classify returns
  traits with HasShift == false and the pipeline decides whether an
  exception explains the day or the row is recorded as skipped.

SEE ALSO:
  - sync.go: Calls Classify as the first step of day computation
  - types.go: ShiftAssignment Standing/Swapped variants
*/
package calendar

// DayTraits are the punch-independent attributes of a day.
type DayTraits struct {
	HasShift           bool
	ShiftID            string
	ShiftIsChange      bool
	ShiftCalculateFlag string
	IsRestDay          bool
	IsBirthday         bool
}

// Classify computes the static attributes of a date for an employee.
// assignment may be nil (no shift in effect that day). Pure: the single
// shift-assignment lookup happens in the caller, not here.
func Classify(employee *Employee, date Date, assignment *ShiftAssignment) DayTraits {
	traits := DayTraits{
		IsBirthday: !employee.BirthDate.IsZero() && employee.BirthDate.SameMonthDay(date),
	}

	if assignment == nil {
		return traits
	}

	traits.HasShift = true
	traits.ShiftID = assignment.Shift.ID
	traits.ShiftIsChange = assignment.IsSwap()
	traits.ShiftCalculateFlag = assignment.Shift.CalculateFlag
	traits.IsRestDay = assignment.Shift.IsRestDay(date)
	return traits
}
