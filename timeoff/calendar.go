/*
calendar.go - Italian public holidays

PURPOSE:
  Answers "is this day a public holiday, and what is it called?" for any
  date, without tables per year. Three sources are checked in order:

  1. Conditional holidays, active only from a given year onward
     (San Francesco, 4 October, national holiday again from 2026).
  2. The eleven fixed-date national holidays, keyed by MM-DD.
  3. Easter Sunday and Easter Monday, computed per year.

EASTER:
  Gregorian computus (Meeus/Jones/Butcher, after Gauss). Valid for every
  Gregorian year; 2024 -> 31 March, 2025 -> 20 April.

PURITY:
  Every function depends only on the calendar year/month/day of its input.
  TimePoint is already normalised to UTC midnight, so Easter comparisons
  cannot drift with the local timezone.

SEE ALSO:
  - hours.go: Working hours built on top of IsHoliday
  - generic/time.go: HolidayCalendar interface
*/
package timeoff

import (
	"time"

	"github.com/warp/absence-ledger/generic"
)

// =============================================================================
// HOLIDAY TABLES
// =============================================================================

const (
	easterSundayName = "Pasqua"
	easterMondayName = "Lunedì dell'Angelo"
)

var fixedHolidays = map[string]string{
	"01-01": "Capodanno",
	"01-06": "Epifania",
	"04-25": "Festa della Liberazione",
	"05-01": "Festa del Lavoro",
	"06-02": "Festa della Repubblica",
	"06-29": "SS. Pietro e Paolo",
	"08-15": "Ferragosto",
	"11-01": "Ognissanti",
	"12-08": "Immacolata Concezione",
	"12-25": "Natale",
	"12-26": "Santo Stefano",
}

// conditionalHoliday is a fixed-date holiday that only exists from FromYear on.
type conditionalHoliday struct {
	FromYear int
	Month    time.Month
	Day      int
	Name     string
}

var conditionalHolidays = []conditionalHoliday{
	{FromYear: 2026, Month: time.October, Day: 4, Name: "San Francesco"},
}

// =============================================================================
// LOOKUPS
// =============================================================================

// EasterSunday returns the Gregorian Easter Sunday of year.
func EasterSunday(year int) generic.TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

// HolidayName returns the name of the public holiday on date, if any.
func HolidayName(date generic.TimePoint) (string, bool) {
	for _, h := range conditionalHolidays {
		if date.Year() >= h.FromYear && date.Month() == h.Month && date.Day() == h.Day {
			return h.Name, true
		}
	}

	if name, ok := fixedHolidays[date.MonthDay()]; ok {
		return name, true
	}

	easter := EasterSunday(date.Year())
	switch {
	case date.Equal(easter):
		return easterSundayName, true
	case date.Equal(easter.AddDays(1)):
		return easterMondayName, true
	}
	return "", false
}

// IsHoliday reports whether date is a public holiday.
func IsHoliday(date generic.TimePoint) bool {
	_, ok := HolidayName(date)
	return ok
}

// HolidaysInYear lists every public holiday of year in date order,
// including those falling on weekends.
func HolidaysInYear(year int) []generic.Holiday {
	var holidays []generic.Holiday
	for _, day := range generic.YearPeriod(year).Days() {
		if name, ok := HolidayName(day); ok {
			holidays = append(holidays, generic.Holiday{Date: day, Name: name})
		}
	}
	return holidays
}

// =============================================================================
// CALENDAR - generic.HolidayCalendar implementation
// =============================================================================

// Calendar exposes the Italian holidays through generic.HolidayCalendar.
type Calendar struct{}

var _ generic.HolidayCalendar = Calendar{}

func (Calendar) HolidayName(date generic.TimePoint) (string, bool) { return HolidayName(date) }
func (Calendar) Holidays(year int) []generic.Holiday               { return HolidaysInYear(year) }
