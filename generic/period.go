package generic

import "time"

// =============================================================================
// PERIOD - Inclusive window of calendar days
// =============================================================================

// Period is the inclusive window [Start, End] that aggregations run over.
//
// Examples:
//   - Calendar month March 2025: Mar 1 - Mar 31
//   - Rest of the year from today: today - Dec 31
type Period struct {
	Start TimePoint
	End   TimePoint
}

// MonthPeriod returns the period covering a calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// YearPeriod returns the period covering a calendar year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// RestOfYear returns the period from the given day to December 31 of its year.
func RestOfYear(from TimePoint) Period {
	return Period{Start: from, End: EndOfYear(from.Year())}
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// CountDays returns how many days of the period satisfy keep.
func (p Period) CountDays(keep func(TimePoint) bool) int {
	n := 0
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		if keep(current) {
			n++
		}
	}
	return n
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
