package generic_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-ledger/generic"
)

// =============================================================================
// TIME POINT
// =============================================================================

func TestTimePoint_NormalisesToDay(t *testing.T) {
	// GIVEN: The same calendar day seen at different times of day
	rome := time.FixedZone("CET", 3600)
	late := time.Date(2025, time.March, 10, 23, 30, 0, 0, rome)
	early := time.Date(2025, time.March, 10, 0, 5, 0, 0, time.UTC)

	// THEN: Both become the same TimePoint
	assert.True(t, generic.FromTime(late).Equal(generic.FromTime(early)))
	assert.Equal(t, "2025-03-10", generic.FromTime(late).String())
}

func TestParseDate(t *testing.T) {
	tp, err := generic.ParseDate(" 2025-02-28 ")
	require.NoError(t, err)
	assert.Equal(t, generic.NewTimePoint(2025, time.February, 28), tp)

	for _, bad := range []string{"", "2025-02-30", "28/02/2025", "2025-2-28"} {
		_, err := generic.ParseDate(bad)
		assert.ErrorIs(t, err, generic.ErrInvalidDate, bad)
	}

	assert.Panics(t, func() { generic.MustParseDate("nope") })
}

func TestTimePoint_JSON(t *testing.T) {
	var got struct {
		Date generic.TimePoint `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29"}`), &got))
	assert.Equal(t, generic.NewTimePoint(2024, time.February, 29), got.Date)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29"}`, string(raw))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"yesterday"}`), &got))
}

func TestTimePoint_Properties(t *testing.T) {
	sat := generic.NewTimePoint(2025, time.March, 15)
	assert.True(t, sat.IsWeekend())
	assert.False(t, sat.AddDays(2).IsWeekend())
	assert.Equal(t, "03-15", sat.MonthDay())
	assert.True(t, generic.TimePoint{}.IsZero())

	assert.True(t, sat.BeforeOrEqual(sat))
	assert.True(t, sat.AfterOrEqual(sat))
	assert.True(t, sat.Before(sat.AddDays(1)))
	assert.True(t, sat.After(sat.AddDays(-1)))
}

func TestMonthBoundaries(t *testing.T) {
	assert.Equal(t, "2024-02-29", generic.EndOfMonth(2024, time.February).String())
	assert.Equal(t, "2025-02-28", generic.EndOfMonth(2025, time.February).String())
	assert.Equal(t, "2025-12-31", generic.EndOfMonth(2025, time.December).String())

	y, m := generic.PreviousMonth(2025, time.January)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.December, m)

	y, m = generic.PreviousMonth(2025, time.March)
	assert.Equal(t, 2025, y)
	assert.Equal(t, time.February, m)
}

// fixedCalendar treats a single date as a holiday.
type fixedCalendar struct{ day generic.TimePoint }

func (c fixedCalendar) HolidayName(d generic.TimePoint) (string, bool) {
	return "test", d.Equal(c.day)
}

func (c fixedCalendar) Holidays(int) []generic.Holiday {
	return []generic.Holiday{{Date: c.day, Name: "test"}}
}

func TestIsWorkdayWithHolidays(t *testing.T) {
	monday := generic.NewTimePoint(2025, time.March, 10)
	cal := fixedCalendar{day: monday}

	assert.False(t, monday.IsWorkdayWithHolidays(cal))
	assert.True(t, monday.AddDays(1).IsWorkdayWithHolidays(cal))
	assert.False(t, monday.AddDays(5).IsWorkdayWithHolidays(cal), "saturday")
	assert.True(t, monday.IsWorkdayWithHolidays(nil))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestPeriod(t *testing.T) {
	feb := generic.MonthPeriod(2024, time.February)
	assert.Len(t, feb.Days(), 29)
	assert.True(t, feb.Contains(generic.NewTimePoint(2024, time.February, 1)))
	assert.True(t, feb.Contains(generic.NewTimePoint(2024, time.February, 29)))
	assert.False(t, feb.Contains(generic.NewTimePoint(2024, time.March, 1)))
	assert.Equal(t, "[2024-02-01, 2024-02-29]", feb.String())

	weekdays := feb.CountDays(func(d generic.TimePoint) bool { return !d.IsWeekend() })
	assert.Equal(t, 21, weekdays)

	assert.Len(t, generic.YearPeriod(2024).Days(), 366)

	rest := generic.RestOfYear(generic.NewTimePoint(2025, time.December, 31))
	assert.Len(t, rest.Days(), 1, "inclusive of the start day")
}

// =============================================================================
// ACCRUAL / HOURS
// =============================================================================

func TestAccrualRule(t *testing.T) {
	upfront := generic.AccrualRule{AnnualHours: generic.HoursFromInt(176), Frequency: generic.FreqUpfront}
	monthly := generic.AccrualRule{AnnualHours: generic.HoursFromInt(120), Frequency: generic.FreqMonthly}

	for m := time.January; m <= time.December; m++ {
		assert.True(t, generic.HoursFromInt(176).Equal(upfront.AccruedThrough(m)), m.String())
	}
	assert.True(t, generic.HoursFromInt(30).Equal(monthly.AccruedThrough(time.March)))
	assert.True(t, generic.HoursFromInt(120).Equal(monthly.AccruedThrough(time.December)))
}

func TestSum_IsExact(t *testing.T) {
	tenths := make([]string, 20)
	for i := range tenths {
		tenths[i] = "0.1"
	}
	total := generic.Sum(tenths, decimal.RequireFromString)
	assert.True(t, generic.HoursFromInt(2).Equal(total), total.String())
}

// =============================================================================
// ERRORS
// =============================================================================

func TestCapacityError(t *testing.T) {
	err := fmt.Errorf("add: %w", &generic.CapacityError{
		Date:      generic.NewTimePoint(2025, time.March, 14),
		Capacity:  6,
		Recorded:  generic.HoursFromInt(4),
		Requested: generic.HoursFromInt(3),
	})

	assert.ErrorIs(t, err, generic.ErrDailyCapacityExceeded)
	assert.True(t, generic.IsClientError(err))
	assert.False(t, generic.IsNotFound(err))
	assert.Contains(t, err.Error(), "2025-03-14")

	var capErr *generic.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 6, capErr.Capacity)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, generic.IsNotFound(fmt.Errorf("x: %w", generic.ErrAbsenceNotFound)))
	assert.True(t, generic.IsNotFound(generic.ErrKeyNotFound))
	assert.True(t, generic.IsClientError(generic.ErrNonWorkingDay))
	assert.False(t, generic.IsClientError(errors.New("disk full")))
}
