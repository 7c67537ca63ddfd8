package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCRUAL RULE - How an annual entitlement becomes available
// =============================================================================

type AccrualFrequency string

const (
	// FreqUpfront grants the whole annual amount at the start of the year.
	FreqUpfront AccrualFrequency = "upfront"
	// FreqMonthly grants one twelfth of the annual amount per elapsed month.
	FreqMonthly AccrualFrequency = "monthly"
)

var monthsPerYear = decimal.NewFromInt(12)

// AccrualRule describes an annual entitlement expressed in hours.
type AccrualRule struct {
	AnnualHours decimal.Decimal
	Frequency   AccrualFrequency
}

// AccruedThrough returns the hours granted by the end of the given month.
// Month is 1-based (January = 1): in March a monthly rule has granted 3/12.
func (r AccrualRule) AccruedThrough(month time.Month) decimal.Decimal {
	switch r.Frequency {
	case FreqUpfront:
		return r.AnnualHours
	case FreqMonthly:
		return r.AnnualHours.Div(monthsPerYear).Mul(decimal.NewFromInt(int64(month)))
	default:
		return r.AnnualHours
	}
}
