package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// MealTickets is the meal-ticket entitlement paid in a month, earned by the
// attendance of the month before it.
type MealTickets struct {
	Eligible   int `json:"eligible"`
	Deductions int `json:"deductions"`
	Total      int `json:"total"`
}

// ComputeMealTickets counts the tickets due in ref's month.
//
// Every working day of the previous month earns one ticket, except days whose
// FERIE + RU + VISITA MEDICA hours exceed MealTicketThresholdHours. Total is
// not clamped at zero.
func ComputeMealTickets(ref generic.TimePoint, absences []Absence) MealTickets {
	year, month := generic.PreviousMonth(ref.Year(), ref.Month())
	period := generic.MonthPeriod(year, month)

	qualifying := make(map[string]decimal.Decimal)
	for _, a := range absences {
		if a.Type.CountsAgainstMealTicket() && period.Contains(a.Date) {
			qualifying[a.Date.String()] = qualifying[a.Date.String()].Add(a.Hours)
		}
	}

	var mt MealTickets
	for _, day := range period.Days() {
		if !IsWorkingDay(day) {
			continue
		}
		mt.Eligible++
		if qualifying[day.String()].GreaterThan(MealTicketThresholdHours) {
			mt.Deductions++
		}
	}
	mt.Total = mt.Eligible - mt.Deductions
	return mt
}
