/*
handlers.go - HTTP API handlers for the absence ledger

PURPOSE:
  Exposes the ledger and the calculation core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth (public):
    GET    /api/auth/status              Is a password set?
    POST   /api/auth/password            Set the first password, returns a session
    POST   /api/auth/login               Log in, returns a session
    PUT    /api/auth/password            Change password (authenticated)

  Calendar (public):
    GET    /api/calendar/holidays?year=  Holidays of a year
    GET    /api/calendar/{year}/{month}  Working hours of every day

  Absences:
    GET    /api/absences                 List
    POST   /api/absences                 Add one
    POST   /api/absences/batch           Add many, invalid entries skipped
    DELETE /api/absences/{id}            Remove one
    DELETE /api/absences                 Remove all

  Hour bank / notes:
    GET    /api/hour-bank                Stored bank
    PUT    /api/hour-bank                Merge a draft
    GET    /api/notes                    List
    PUT    /api/notes                    Replace all notes
    PUT    /api/notes/{date}             Set or delete (blank text) one note
    POST   /api/notes/import             Merge many

  Derived:
    GET    /api/stats?view=YYYY-MM-DD    Per-type statistics
    GET    /api/reports/{year}/{month}   Monthly report
    GET    /api/reports/{year}/{month}/xlsx  Monthly report spreadsheet

  Backup:
    POST   /api/backup/save              Upload the ledger
    POST   /api/backup/load              Replace the ledger with the backup

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the ledger (validation) or the core (derivation)
  3. Serialize response
  4. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Wrong or missing password / session
  - 404: Resource not found
  - 409: Conflict (password already set, nothing to back up)
  - 503: Backup not configured
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/warp/absence-ledger/auth"
	"github.com/warp/absence-ledger/backup"
	"github.com/warp/absence-ledger/export"
	"github.com/warp/absence-ledger/generic"
	"github.com/warp/absence-ledger/timeoff"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody     = errors.New("invalid request body")
	errInvalidParam    = errors.New("invalid parameter")
	errBackupDisabled  = errors.New("backup is not configured")
	errEmptyBatch      = errors.New("batch needs entries or dates")
	errBatchMissesType = errors.New("batch dates need a type")
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *timeoff.Ledger
	Gate   *auth.Gate
	Backup *backup.Service // nil when no remote is configured
	Log    logrus.FieldLogger

	now func() time.Time
}

// NewHandler creates a new handler. backupSvc may be nil.
func NewHandler(ledger *timeoff.Ledger, gate *auth.Gate, backupSvc *backup.Service, log logrus.FieldLogger) *Handler {
	return &Handler{
		Ledger: ledger,
		Gate:   gate,
		Backup: backupSvc,
		Log:    log,
		now:    time.Now,
	}
}

func (h *Handler) today() generic.TimePoint {
	return generic.FromTime(h.now())
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// AuthStatus reports whether a password has been set.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	set, err := h.Gate.IsPasswordSet(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthStatusDTO{PasswordSet: set})
}

// SetPassword sets the first password and opens a session.
func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	session, err := h.Gate.SetPassword(r.Context(), req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Login opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	session, err := h.Gate.Login(r.Context(), req.Password)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ChangePassword replaces the password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Gate.ChangePassword(r.Context(), req.Current, req.New); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns the holidays of ?year=, defaulting to this year.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := parseYear(raw)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		year = y
	}
	writeJSON(w, http.StatusOK, timeoff.HolidaysInYear(year))
}

// GetMonth returns every day of a month with its working hours.
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MonthDTO{
		Year:        year,
		Month:       month,
		WorkingDays: timeoff.WorkingDaysInMonth(year, month),
		Days:        timeoff.MonthDays(year, month),
	})
}

// =============================================================================
// ABSENCE HANDLERS
// =============================================================================

// ListAbsences returns every absence in date order.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	absences, err := h.Ledger.Absences(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	slices.SortStableFunc(absences, func(a, b timeoff.Absence) int {
		return a.Date.Time.Compare(b.Date.Time)
	})
	if absences == nil {
		absences = []timeoff.Absence{}
	}
	writeJSON(w, http.StatusOK, absences)
}

// CreateAbsence records one absence.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	var req CreateAbsenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	a, err := h.Ledger.Add(r.Context(), in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// CreateAbsenceBatch records many absences, skipping invalid ones.
func (h *Handler) CreateAbsenceBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchAbsenceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	inputs, rejected, err := req.toInputs()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	result, err := h.Ledger.AddBatch(r.Context(), inputs)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	added := result.Added
	if added == nil {
		added = []timeoff.Absence{}
	}
	writeJSON(w, http.StatusCreated, BatchResultDTO{
		Added:        added,
		AddedCount:   len(added),
		SkippedCount: result.Skipped + rejected,
	})
}

// DeleteAbsence removes one absence.
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAbsences removes every absence.
func (h *Handler) ClearAbsences(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Clear(r.Context()); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req CreateAbsenceRequest) toInput() (timeoff.AbsenceInput, error) {
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		return timeoff.AbsenceInput{}, err
	}
	t, err := timeoff.ParseAbsenceType(req.Type)
	if err != nil {
		return timeoff.AbsenceInput{}, err
	}
	return timeoff.AbsenceInput{Date: date, Type: t, Hours: req.Hours}, nil
}

// toInputs converts the batch into ledger inputs. Entries with a malformed
// date or type, and dates that fall on non-working days, are counted in
// rejected instead of failing the whole batch.
func (req BatchAbsenceRequest) toInputs() (inputs []timeoff.AbsenceInput, rejected int, err error) {
	if len(req.Entries) == 0 && len(req.Dates) == 0 {
		return nil, 0, errEmptyBatch
	}
	if len(req.Dates) > 0 && req.Type == "" {
		return nil, 0, errBatchMissesType
	}

	for _, e := range req.Entries {
		in, err := e.toInput()
		if err != nil {
			rejected++
			continue
		}
		inputs = append(inputs, in)
	}

	if len(req.Dates) == 0 {
		return inputs, rejected, nil
	}
	t, err := timeoff.ParseAbsenceType(req.Type)
	if err != nil {
		return inputs, rejected + len(req.Dates), nil
	}
	var dates []generic.TimePoint
	for _, raw := range req.Dates {
		d, err := generic.ParseDate(raw)
		if err != nil {
			rejected++
			continue
		}
		dates = append(dates, d)
	}
	days := timeoff.FullDays(dates, t)
	return append(inputs, days...), rejected + len(dates) - len(days), nil
}

// =============================================================================
// HOUR BANK HANDLERS
// =============================================================================

// GetHourBank returns the stored hour bank.
func (h *Handler) GetHourBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.Ledger.HourBank(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// UpdateHourBank merges a draft into the hour bank.
func (h *Handler) UpdateHourBank(w http.ResponseWriter, r *http.Request) {
	var req HourBankRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	draft := make(timeoff.BankDraft, len(req))
	for label, raw := range req {
		t, err := timeoff.ParseAbsenceType(label)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		draft[t] = string(raw)
	}

	bank, err := h.Ledger.UpdateHourBank(r.Context(), draft)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// =============================================================================
// NOTE HANDLERS
// =============================================================================

// ListNotes returns every note in date order.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Ledger.Notes(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if notes == nil {
		notes = []timeoff.DayNote{}
	}
	writeJSON(w, http.StatusOK, notes)
}

// UpdateNote sets the note of one day; blank text deletes it.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	var req NoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Ledger.UpdateNote(r.Context(), date, req.Text); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportNotes merges many notes.
func (h *Handler) ImportNotes(w http.ResponseWriter, r *http.Request) {
	var req ImportNotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Ledger.ImportNotes(r.Context(), req.Notes); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceNotes overwrites every note with the request's.
func (h *Handler) ReplaceNotes(w http.ResponseWriter, r *http.Request) {
	var req ImportNotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}
	if err := h.Ledger.ReplaceAllNotes(r.Context(), req.Notes); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATS / REPORT HANDLERS
// =============================================================================

// GetStats returns per-type statistics. ?view= selects the viewed month,
// defaulting to today.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	ref := timeoff.ReferenceAt(h.today())
	if raw := r.URL.Query().Get("view"); raw != "" {
		viewed, err := generic.ParseDate(raw)
		if err != nil {
			h.handleError(w, r, err)
			return
		}
		ref.Viewed = viewed
	}

	snap, err := h.Ledger.Snapshot(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	stats := timeoff.ComputeStats(snap.Absences, snap.HourBank, ref)

	dto := StatsDTO{
		Today:                ref.Today.String(),
		Viewed:               ref.Viewed.String(),
		RemainingWorkingDays: timeoff.RemainingWorkingDaysInYear(ref.Today),
		Types:                make([]TypeStatsDTO, 0, len(stats)),
	}
	for _, t := range timeoff.AllTypes() {
		s := stats.Get(t)
		dto.Types = append(dto.Types, TypeStatsDTO{
			Type:         t.String(),
			AbsenceStats: s,
			BalanceDays:  s.BalanceDays().Round(2),
			IsOverdrawn:  s.IsOverdrawn(),
			DisplayOnly:  t.IsDisplayOnly(),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetMonthlyReport returns the report of one month.
func (h *Handler) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, _, err := h.buildReport(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportMonthlyReport returns the report of one month as a spreadsheet.
func (h *Handler) ExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	report, absences, err := h.buildReport(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("report-%d-%02d.xlsx", report.Year, int(report.Month))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := export.WriteMonthlyReport(w, report, absences); err != nil {
		// Headers are gone; all we can do is log.
		h.Log.WithError(err).Error("xlsx export failed")
	}
}

func (h *Handler) buildReport(r *http.Request) (timeoff.MonthlyReport, []timeoff.Absence, error) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		return timeoff.MonthlyReport{}, nil, err
	}
	absences, err := h.Ledger.Absences(r.Context())
	if err != nil {
		return timeoff.MonthlyReport{}, nil, err
	}
	return timeoff.BuildMonthlyReport(absences, year, month), absences, nil
}

// =============================================================================
// BACKUP HANDLERS
// =============================================================================

// SaveBackup uploads the ledger.
func (h *Handler) SaveBackup(w http.ResponseWriter, r *http.Request) {
	if h.Backup == nil {
		h.handleError(w, r, errBackupDisabled)
		return
	}
	lastUpdated, err := h.Backup.Save(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupDTO{LastUpdated: lastUpdated})
}

// LoadBackup replaces the ledger with the backup.
func (h *Handler) LoadBackup(w http.ResponseWriter, r *http.Request) {
	if h.Backup == nil {
		h.handleError(w, r, errBackupDisabled)
		return
	}
	doc, err := h.Backup.Load(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupDTO{
		LastUpdated: doc.LastUpdated,
		Absences:    len(doc.Absences),
		Notes:       len(doc.Notes),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps domain errors to HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var capErr *generic.CapacityError
	switch {
	case errors.As(err, &capErr):
		writeError(w, http.StatusBadRequest, "Daily working hours exceeded", err)
	case generic.IsClientError(err),
		errors.Is(err, errInvalidBody),
		errors.Is(err, errInvalidParam),
		errors.Is(err, errEmptyBatch),
		errors.Is(err, errBatchMissesType),
		errors.Is(err, auth.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrPasswordNotSet):
		writeError(w, http.StatusUnauthorized, "Authentication failed", err)
	case generic.IsNotFound(err), errors.Is(err, backup.ErrNoSnapshot):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, auth.ErrPasswordAlreadySet),
		errors.Is(err, backup.ErrNothingToSave):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, errBackupDisabled):
		writeError(w, http.StatusServiceUnavailable, "Backup unavailable", err)
	default:
		h.Log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return nil
}

func parseYear(raw string) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: year %q", errInvalidParam, raw)
	}
	return year, nil
}

func parseYearMonth(r *http.Request) (int, time.Month, error) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, err
	}
	raw := chi.URLParam(r, "month")
	m, err := strconv.Atoi(raw)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("%w: month %q", errInvalidParam, raw)
	}
	return year, time.Month(m), nil
}
