/*
Package generic provides the domain-agnostic building blocks of the absence engine.

PURPOSE:
  Calendar days, periods, accrual rules, error types and the key-value
  persistence boundary. Nothing in here knows about absence types, Italian
  holidays or meal tickets: those live in the timeoff package.

KEY CONCEPTS IN THIS FILE (types.go):
  - Hours: decimal quantities (e.g., 7.5h) with exact arithmetic
  - Sum: fold a slice of quantities

DESIGN PRINCIPLES:
  1. Precision: hours use decimal.Decimal to avoid floating-point drift
     (0.1 + 0.2 must equal 0.3 when summing a month of half hours)
  2. Purity: everything here is a value type; no hidden state
  3. Day granularity: TimePoint has no time-of-day

SEE ALSO:
  - time.go: TimePoint and HolidayCalendar
  - period.go: Inclusive day windows
  - accrual.go: Annual entitlement rules
  - store.go: Persistence interface
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// HOURS - Decimal quantities
// =============================================================================

// Hours builds a decimal hour quantity from a float literal.
func Hours(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}

// HoursFromInt builds a decimal hour quantity from an integer.
func HoursFromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}

// Sum adds every value produced by pick over items.
func Sum[T any](items []T, pick func(T) decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(pick(item))
	}
	return total
}
