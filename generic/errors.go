/*
errors.go - Centralized error types for the absence engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Store errors - Key-value persistence failures
  2. Validation errors - Ledger rule violations (user input)
  3. Lookup errors - Missing records

The calculation core (calendar, stats, meal tickets, reports) never returns
errors: it is total over its inputs. Everything here belongs to the layers
around it.

USAGE:
    if errors.Is(err, generic.ErrDailyCapacityExceeded) {
        var capErr *generic.CapacityError
        errors.As(err, &capErr)
        ...
    }

SEE ALSO:
  - store.go: Uses ErrKeyNotFound
  - timeoff/ledger.go: Returns the validation errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrKeyNotFound is returned by a Store when the key has never been set.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidDate is returned when a date is not a valid YYYY-MM-DD day.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidHours is returned when an hour quantity is zero, negative
	// or not a number.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrUnknownAbsenceType is returned when a label is outside the closed set.
	ErrUnknownAbsenceType = errors.New("unknown absence type")

	// ErrNonWorkingDay is returned when recording an absence on a weekend
	// or public holiday.
	ErrNonWorkingDay = errors.New("absences cannot be recorded on non-working days")

	// ErrDailyCapacityExceeded is returned when the hours recorded for a day
	// would exceed that day's working hours.
	ErrDailyCapacityExceeded = errors.New("daily working hours exceeded")

	// ErrAbsenceNotFound is returned when removing an unknown absence id.
	ErrAbsenceNotFound = errors.New("absence not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CapacityError provides details about a day whose hours would overflow.
type CapacityError struct {
	Date      TimePoint
	Capacity  int
	Recorded  decimal.Decimal
	Requested decimal.Decimal
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("daily working hours exceeded on %s: capacity %dh, recorded %sh, requested %sh",
		e.Date, e.Capacity, e.Recorded, e.Requested)
}

func (e *CapacityError) Unwrap() error {
	return ErrDailyCapacityExceeded
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrUnknownAbsenceType) ||
		errors.Is(err, ErrNonWorkingDay) ||
		errors.Is(err, ErrDailyCapacityExceeded)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound) ||
		errors.Is(err, ErrAbsenceNotFound)
}
