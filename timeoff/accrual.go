/*
accrual.go - Annual hour entitlements per absence type

PURPOSE:
  Declares which absence types earn hours every year and how.
  Only two do, and both are granted in full on January 1:

    FERIE (vacation):       176h / year, upfront
    RU (hour reduction):    104h / year, upfront

  A type without a rule draws only from the hour bank the user enters.

MONTHLY RULES:
  generic.FreqMonthly is supported by the engine (rate / 12 x month of the
  viewed date) so a pro-rata type can be added by one line here. None is
  configured today.

SEE ALSO:
  - generic/accrual.go: AccrualRule
  - stats.go: Consumes AccrualRuleFor
*/
package timeoff

import (
	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

var accrualRules = map[AbsenceType]generic.AccrualRule{
	Ferie: {AnnualHours: decimal.NewFromInt(176), Frequency: generic.FreqUpfront},
	RU:    {AnnualHours: decimal.NewFromInt(104), Frequency: generic.FreqUpfront},
}

// AccrualRuleFor returns the annual entitlement of t, if it has one.
func AccrualRuleFor(t AbsenceType) (generic.AccrualRule, bool) {
	rule, ok := accrualRules[t]
	return rule, ok
}

// IsAccruing reports whether t earns hours every year.
func IsAccruing(t AbsenceType) bool {
	_, ok := accrualRules[t]
	return ok
}
