package timeoff

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// MonthlyTotals sums the hours of each type recorded in the given month.
// Types without absences report zero.
func MonthlyTotals(absences []Absence, year int, month time.Month) PerType[decimal.Decimal] {
	period := generic.MonthPeriod(year, month)

	var totals PerType[decimal.Decimal]
	for _, a := range absences {
		if a.Type.Valid() && period.Contains(a.Date) {
			totals[a.Type] = totals[a.Type].Add(a.Hours)
		}
	}
	return totals
}

// MonthlyReport is the read-only summary of one month.
type MonthlyReport struct {
	Year        int                      `json:"year"`
	Month       time.Month               `json:"month"`
	WorkingDays int                      `json:"working_days"`
	MealTickets MealTickets              `json:"meal_tickets"`
	Totals      PerType[decimal.Decimal] `json:"totals"`
	TotalHours  decimal.Decimal          `json:"total_hours"`
}

// BuildMonthlyReport combines working days, meal tickets and per-type totals.
// Meal tickets are those paid in the reported month, i.e. earned the month before.
func BuildMonthlyReport(absences []Absence, year int, month time.Month) MonthlyReport {
	totals := MonthlyTotals(absences, year, month)
	return MonthlyReport{
		Year:        year,
		Month:       month,
		WorkingDays: WorkingDaysInMonth(year, month),
		MealTickets: ComputeMealTickets(generic.StartOfMonth(year, month), absences),
		Totals:      totals,
		TotalHours:  generic.Sum(totals[:], func(d decimal.Decimal) decimal.Decimal { return d }),
	}
}
