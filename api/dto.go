/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain records
  (timeoff.Absence, timeoff.DayNote, timeoff.MonthlyReport) already carry
  their own JSON shape and are returned as they are; the types here cover
  request bodies and the responses that combine several domain values.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

HOURS:
  Hours are decimals. Responses encode them as JSON strings ("7.5");
  requests accept either a string or a number. Hour bank values also take
  the draft forms the form field allows ("20,5", "-", "").

VALIDATION:
  Validation is done in handlers and the ledger, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/timeoff"
)

// =============================================================================
// AUTH
// =============================================================================

// AuthStatusDTO tells the client whether to show the set-password form.
type AuthStatusDTO struct {
	PasswordSet bool `json:"password_set"`
}

// PasswordRequest is the body of the set-password and login calls.
type PasswordRequest struct {
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of the change-password call.
type ChangePasswordRequest struct {
	Current string `json:"current"`
	New     string `json:"new"`
}

// =============================================================================
// ABSENCES
// =============================================================================

// CreateAbsenceRequest records one absence.
type CreateAbsenceRequest struct {
	Date  string          `json:"date"`
	Type  string          `json:"type"`
	Hours decimal.Decimal `json:"hours"`
}

// BatchAbsenceRequest records several absences at once. Either Entries
// lists explicit inputs, or Dates and Type book full working days.
type BatchAbsenceRequest struct {
	Entries []CreateAbsenceRequest `json:"entries,omitempty"`
	Dates   []string               `json:"dates,omitempty"`
	Type    string                 `json:"type,omitempty"`
}

// BatchResultDTO reports the outcome of a batch insert.
type BatchResultDTO struct {
	Added        []timeoff.Absence `json:"added"`
	AddedCount   int               `json:"added_count"`
	SkippedCount int               `json:"skipped_count"`
}

// =============================================================================
// HOUR BANK / NOTES
// =============================================================================

// HourBankRequest maps type labels to hours as typed by the user.
// "" and "-" mean zero; labels left out keep their stored value.
type HourBankRequest map[string]BankValue

// BankValue is one hour bank field. It decodes from a JSON string, a JSON
// number or null (empty).
type BankValue string

func (v *BankValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = BankValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("hour bank value must be a string or a number: %w", err)
	}
	*v = BankValue(n.String())
	return nil
}

// NoteRequest is the body of the update-note call.
type NoteRequest struct {
	Text string `json:"text"`
}

// ImportNotesRequest carries several notes to merge or to replace with.
type ImportNotesRequest struct {
	Notes []timeoff.DayNote `json:"notes"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// MonthDTO is the calendar view of one month.
type MonthDTO struct {
	Year        int               `json:"year"`
	Month       time.Month        `json:"month"`
	WorkingDays int               `json:"working_days"`
	Days        []timeoff.DayInfo `json:"days"`
}

// =============================================================================
// STATS
// =============================================================================

// TypeStatsDTO is the statistics of one absence type.
type TypeStatsDTO struct {
	Type string `json:"type"`
	timeoff.AbsenceStats
	BalanceDays decimal.Decimal `json:"balance_days"`
	IsOverdrawn bool            `json:"is_overdrawn"`
	DisplayOnly bool            `json:"display_only"`
}

// StatsDTO is the statistics of every type in display order.
type StatsDTO struct {
	Today                string         `json:"today"`
	Viewed               string         `json:"viewed"`
	RemainingWorkingDays int            `json:"remaining_working_days"`
	Types                []TypeStatsDTO `json:"types"`
}

// =============================================================================
// BACKUP
// =============================================================================

// BackupDTO summarizes a saved or restored backup.
type BackupDTO struct {
	LastUpdated time.Time `json:"last_updated"`
	Absences    int       `json:"absences,omitempty"`
	Notes       int       `json:"notes,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
