package timeoff

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// =============================================================================
// WORKING HOURS - 38h week: Mon-Thu 8h, Fri 6h
// =============================================================================

const (
	fullDayHours  = 8
	fridayHours   = 6
	nonWorkingDay = 0
)

// WorkingHoursForDate returns the hours expected on date: 0 on weekends and
// public holidays, 6 on a working Friday, 8 Monday to Thursday.
func WorkingHoursForDate(date generic.TimePoint) int {
	if !date.IsWorkdayWithHolidays(Calendar{}) {
		return nonWorkingDay
	}
	if date.Weekday() == time.Friday {
		return fridayHours
	}
	return fullDayHours
}

// DailyCapacity is WorkingHoursForDate as a decimal hour quantity.
func DailyCapacity(date generic.TimePoint) decimal.Decimal {
	return generic.HoursFromInt(WorkingHoursForDate(date))
}

// IsWorkingDay reports whether any hours are expected on date.
func IsWorkingDay(date generic.TimePoint) bool {
	return WorkingHoursForDate(date) > 0
}

// WorkingDaysInMonth counts the days of the month with working hours.
// Holidays are irregular, so every day is visited.
func WorkingDaysInMonth(year int, month time.Month) int {
	return generic.MonthPeriod(year, month).CountDays(IsWorkingDay)
}

// RemainingWorkingDaysInYear counts working days from from (inclusive)
// through December 31 of the same year. Build from with generic.FromTime
// to drop the time of day.
func RemainingWorkingDaysInYear(from generic.TimePoint) int {
	return generic.RestOfYear(from).CountDays(IsWorkingDay)
}

// =============================================================================
// MONTH VIEW
// =============================================================================

// DayInfo describes one calendar day for display.
type DayInfo struct {
	Date         generic.TimePoint `json:"date"`
	WorkingHours int               `json:"working_hours"`
	Holiday      string            `json:"holiday,omitempty"`
	Weekend      bool              `json:"weekend"`
}

// MonthDays describes every day of the month in order.
func MonthDays(year int, month time.Month) []DayInfo {
	days := generic.MonthPeriod(year, month).Days()
	infos := make([]DayInfo, len(days))
	for i, day := range days {
		name, _ := HolidayName(day)
		infos[i] = DayInfo{
			Date:         day,
			WorkingHours: WorkingHoursForDate(day),
			Holiday:      name,
			Weekend:      day.IsWeekend(),
		}
	}
	return infos
}
