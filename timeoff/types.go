// Package timeoff implements the absence domain: Italian working calendar,
// hour-bank statistics, meal tickets and monthly reports, plus the ledger
// rules that guard what gets recorded.
package timeoff

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// =============================================================================
// ABSENCE TYPE - Closed enumeration
// =============================================================================

// AbsenceType is one of the six fixed absence categories.
// The numeric order is the display order.
type AbsenceType int

const (
	SmartWorking AbsenceType = iota
	RU
	PresenzaUfficio
	Ferie
	SmartWorkingManager
	VisitaMedica

	numAbsenceTypes
)

var absenceTypeLabels = [numAbsenceTypes]string{
	SmartWorking:        "SMART WORKING",
	RU:                  "RU",
	PresenzaUfficio:     "PRESENZA UFFICIO",
	Ferie:               "FERIE",
	SmartWorkingManager: "SMART WORKING MANAGER",
	VisitaMedica:        "VISITA MEDICA",
}

// AllTypes returns every absence type in display order.
func AllTypes() []AbsenceType {
	types := make([]AbsenceType, numAbsenceTypes)
	for i := range types {
		types[i] = AbsenceType(i)
	}
	return types
}

// ParseAbsenceType maps a label such as "FERIE" back to its type.
func ParseAbsenceType(label string) (AbsenceType, error) {
	for i, l := range absenceTypeLabels {
		if l == label {
			return AbsenceType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", generic.ErrUnknownAbsenceType, label)
}

func (t AbsenceType) Valid() bool { return t >= 0 && t < numAbsenceTypes }

func (t AbsenceType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("AbsenceType(%d)", int(t))
	}
	return absenceTypeLabels[t]
}

// IsDisplayOnly reports types that are tracked but never draw from a bank.
func (t AbsenceType) IsDisplayOnly() bool {
	return t == PresenzaUfficio || t == SmartWorkingManager
}

// CountsAgainstMealTicket reports types whose hours can forfeit a meal ticket.
func (t AbsenceType) CountsAgainstMealTicket() bool {
	return t == Ferie || t == RU || t == VisitaMedica
}

func (t AbsenceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", generic.ErrUnknownAbsenceType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *AbsenceType) UnmarshalText(b []byte) error {
	parsed, err := ParseAbsenceType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// PER TYPE - Fixed-arity record keyed by absence type
// =============================================================================

// PerType holds exactly one value for each absence type.
// It is an array, so every type is always present and copies are deep
// for value element types.
type PerType[T any] [numAbsenceTypes]T

func (p PerType[T]) Get(t AbsenceType) T { return p[t] }

func (p *PerType[T]) Set(t AbsenceType, v T) { (*p)[t] = v }

// MarshalJSON encodes an object keyed by label, in display order.
func (p PerType[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(absenceTypeLabels[i])
		val, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", absenceTypeLabels[i], err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by label. Missing labels keep their
// zero value; unknown labels are rejected.
func (p *PerType[T]) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out PerType[T]
	for label, msg := range raw {
		t, err := ParseAbsenceType(label)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(msg, &out[t]); err != nil {
			return fmt.Errorf("decode %s: %w", label, err)
		}
	}
	*p = out
	return nil
}

// HourBank is the carried-over hour balance per absence type.
type HourBank = PerType[decimal.Decimal]

// =============================================================================
// RECORDS
// =============================================================================

// Absence is one dated, typed, hour-quantified entry. Invariant: Hours > 0.
type Absence struct {
	ID    string            `json:"id"`
	Date  generic.TimePoint `json:"date"`
	Type  AbsenceType       `json:"type"`
	Hours decimal.Decimal   `json:"hours"`
}

// DayNote is a free-text note attached to a day. Calculations ignore notes.
type DayNote struct {
	Date generic.TimePoint `json:"date"`
	Text string            `json:"text"`
}

var (
	// AverageWorkHoursPerDay blends four 8h days and one 6h Friday.
	AverageWorkHoursPerDay = decimal.RequireFromString("7.6")

	// MealTicketThresholdHours is the qualifying absence above which a
	// day's meal ticket is forfeited.
	MealTicketThresholdHours = decimal.NewFromInt(4)
)
