/*
stats.go - Per-type hour statistics

PURPOSE:
  Turns the absence list and the hour bank into one AbsenceStats per type.
  Recomputed from scratch on every call: there is no cache to invalidate
  when the ledger or the bank changes.

REFERENCE DATES:
  Two dates drive the computation and they have different roles:

    Today:  absences dated on or before it are consumed, later ones planned
    Viewed: the month on screen; its month number drives pro-rata accrual

  Callers that only have one date use ReferenceAt(day) for both.

FORMULAS (per type):
  Display-only (PRESENZA UFFICIO, SMART WORKING MANAGER):
    consumed and planned only, everything else zero

  Accruing (FERIE, RU):
    carriedOver    = bank[type]
    accrued        = rule.AccruedThrough(Viewed.Month())
    totalAvailable = carriedOver + accrued

  Bank-only (SMART WORKING, VISITA MEDICA):
    totalAvailable = bank[type]

  All non display-only:
    residual = totalAvailable - consumed
    balance  = totalAvailable - consumed - planned    (may be negative)

EXAMPLE:
  Bank FERIE = 20h, 16h taken in March, 8h planned in August, today = April 1:
    carriedOver 20, accrued 176, totalAvailable 196
    residual 180, balance 172, BalanceDays 22.63...

SEE ALSO:
  - accrual.go: Annual rates
  - types.go: PerType, HourBank
*/
package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// Reference carries the two dates the statistics depend on.
type Reference struct {
	Today  generic.TimePoint
	Viewed generic.TimePoint
}

// ReferenceAt uses day both as today and as the viewed month.
func ReferenceAt(day generic.TimePoint) Reference {
	return Reference{Today: day, Viewed: day}
}

// AbsenceStats is the derived hour summary of one absence type.
type AbsenceStats struct {
	Consumed       decimal.Decimal `json:"consumed"`
	Planned        decimal.Decimal `json:"planned"`
	CarriedOver    decimal.Decimal `json:"carried_over"`
	Accrued        decimal.Decimal `json:"accrued"`
	TotalAvailable decimal.Decimal `json:"total_available"`
	Residual       decimal.Decimal `json:"residual"`
	Balance        decimal.Decimal `json:"balance"`
	IsAccruing     bool            `json:"is_accruing"`
}

// BalanceDays converts the balance to days of AverageWorkHoursPerDay.
func (s AbsenceStats) BalanceDays() decimal.Decimal {
	return s.Balance.Div(AverageWorkHoursPerDay)
}

// IsOverdrawn reports a negative balance. Overdraft is allowed, only flagged.
func (s AbsenceStats) IsOverdrawn() bool {
	return s.Balance.IsNegative()
}

// Stats holds the statistics of every absence type.
type Stats = PerType[AbsenceStats]

// ComputeStats derives the statistics of every type from a ledger snapshot.
func ComputeStats(absences []Absence, bank HourBank, ref Reference) Stats {
	var consumed, planned PerType[decimal.Decimal]
	for _, a := range absences {
		if !a.Type.Valid() {
			continue
		}
		if a.Date.After(ref.Today) {
			planned[a.Type] = planned[a.Type].Add(a.Hours)
		} else {
			consumed[a.Type] = consumed[a.Type].Add(a.Hours)
		}
	}

	var stats Stats
	for _, t := range AllTypes() {
		s := AbsenceStats{Consumed: consumed[t], Planned: planned[t]}

		if t.IsDisplayOnly() {
			stats[t] = s
			continue
		}

		if rule, ok := AccrualRuleFor(t); ok {
			s.CarriedOver = bank[t]
			s.Accrued = rule.AccruedThrough(ref.Viewed.Month())
			s.TotalAvailable = s.CarriedOver.Add(s.Accrued)
			s.IsAccruing = true
		} else {
			s.TotalAvailable = bank[t]
		}

		s.Residual = s.TotalAvailable.Sub(s.Consumed)
		s.Balance = s.Residual.Sub(s.Planned)
		stats[t] = s
	}
	return stats
}
