/*
handlers_test.go - Tests for API handlers

Tests for:
- Password setup, login and the session gate
- Absence create / batch / delete with ledger validation
- Hour bank, notes, stats and reports
- Backup save / load and the disabled case
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/absence-ledger/auth"
	"github.com/warp/absence-ledger/backup"
	"github.com/warp/absence-ledger/generic"
	"github.com/warp/absence-ledger/store/sqlite"
	"github.com/warp/absence-ledger/timeoff"
)

const testPassword = "letmein"

// fixedNow is a Thursday; 2025-03-10 (Monday) is already in the past.
var fixedNow = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)

type testServer struct {
	router *chi.Mux
	ledger *timeoff.Ledger
	remote *backup.MemoryRemote
	token  string
}

// newTestServer wires a handler on an in-memory SQLite store. With
// withBackup the handler gets a memory remote, otherwise backup is disabled.
func newTestServer(t *testing.T, withBackup bool) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger, _ := logtest.NewNullLogger()
	ledger := timeoff.NewLedger(store, logger)
	gate := auth.NewGate(store, "test-secret", time.Hour, logger)

	ts := &testServer{ledger: ledger}
	var svc *backup.Service
	if withBackup {
		ts.remote = backup.NewMemoryRemote()
		svc = backup.NewService(ledger, ts.remote, logger)
	}

	h := NewHandler(ledger, gate, svc, logger)
	h.now = func() time.Time { return fixedNow }
	ts.router = NewRouter(h, RouterOptions{CORSOrigins: []string{"*"}})
	return ts
}

// login sets the first password and keeps the session token.
func (ts *testServer) login(t *testing.T) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/password", PasswordRequest{Password: testPassword})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var session auth.Session
	decode(t, rec, &session)
	require.NotEmpty(t, session.Token)
	ts.token = session.Token
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// =============================================================================
// AUTH
// =============================================================================

func TestAuth_PasswordLifecycle(t *testing.T) {
	// GIVEN: A fresh server
	ts := newTestServer(t, false)

	var status AuthStatusDTO
	decode(t, ts.do(t, http.MethodGet, "/api/auth/status", nil), &status)
	assert.False(t, status.PasswordSet)

	// WHEN: Protected routes are called before login
	// THEN: They are rejected
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/api/absences", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/login", PasswordRequest{Password: testPassword}).Code,
		"login before any password is set")

	// WHEN: The first password is set
	ts.login(t)
	decode(t, ts.do(t, http.MethodGet, "/api/auth/status", nil), &status)
	assert.True(t, status.PasswordSet)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/absences", nil).Code)

	// THEN: It cannot be set again, and login checks it
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/auth/password", PasswordRequest{Password: "another"}).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/login", PasswordRequest{Password: "wrong"}).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/auth/login", PasswordRequest{Password: testPassword}).Code)
}

func TestAuth_ChangePassword(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	rec := ts.do(t, http.MethodPut, "/api/auth/password", ChangePasswordRequest{Current: "wrong", New: "newpass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/auth/password", ChangePasswordRequest{Current: testPassword, New: "ab"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "too short")

	rec = ts.do(t, http.MethodPut, "/api/auth/password", ChangePasswordRequest{Current: testPassword, New: "newpass"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/api/auth/login", PasswordRequest{Password: "newpass"}).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/auth/login", PasswordRequest{Password: testPassword}).Code)
}

// =============================================================================
// CALENDAR
// =============================================================================

func TestCalendar_Public(t *testing.T) {
	ts := newTestServer(t, false)

	var holidays []generic.Holiday
	rec := ts.do(t, http.MethodGet, "/api/calendar/holidays?year=2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &holidays)
	assert.Len(t, holidays, 14)

	rec = ts.do(t, http.MethodGet, "/api/calendar/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &holidays)
	assert.Len(t, holidays, 13, "defaults to the current year, 2025")

	var month MonthDTO
	rec = ts.do(t, http.MethodGet, "/api/calendar/2025/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &month)
	assert.Equal(t, 20, month.WorkingDays)
	assert.Len(t, month.Days, 28)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/calendar/holidays?year=abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/calendar/2025/13", nil).Code)
}

// =============================================================================
// ABSENCES
// =============================================================================

func TestAbsences_CreateListDelete(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	// GIVEN: A full Monday of FERIE
	rec := ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-10","type":"FERIE","hours":8}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created timeoff.Absence
	decode(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, timeoff.Ferie, created.Type)

	// WHEN: More hours are added to the same day
	// THEN: The capacity check rejects them
	rec = ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-10","type":"RU","hours":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, "Daily working hours exceeded", errResp.Error)

	// Weekend, unknown type, bad date and malformed body
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-15","type":"FERIE","hours":8}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-11","type":"HOLIDAY","hours":8}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences", `{"date":"11/03/2025","type":"FERIE","hours":8}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences", `{"date":`).Code)

	var absences []timeoff.Absence
	decode(t, ts.do(t, http.MethodGet, "/api/absences", nil), &absences)
	require.Len(t, absences, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/absences/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/absences/"+created.ID, nil).Code)

	decode(t, ts.do(t, http.MethodGet, "/api/absences", nil), &absences)
	assert.Empty(t, absences)
}

func TestAbsences_Batch(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	// GIVEN: Monday, Friday and Saturday booked as full days, plus one entry
	// WHEN: The batch is posted
	// THEN: Saturday is skipped, Friday gets 6 hours
	rec := ts.do(t, http.MethodPost, "/api/absences/batch", BatchAbsenceRequest{
		Dates:   []string{"2025-03-10", "2025-03-14", "2025-03-15"},
		Type:    "FERIE",
		Entries: []CreateAbsenceRequest{{Date: "2025-03-11", Type: "RU", Hours: generic.Hours(2)}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result BatchResultDTO
	decode(t, rec, &result)
	assert.Equal(t, 3, result.AddedCount)
	assert.Equal(t, 1, result.SkippedCount)

	var friday timeoff.Absence
	for _, a := range result.Added {
		if a.Date.Equal(generic.NewTimePoint(2025, time.March, 14)) {
			friday = a
		}
	}
	assert.True(t, generic.Hours(6).Equal(friday.Hours))

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences/batch", BatchAbsenceRequest{}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/api/absences/batch", BatchAbsenceRequest{Dates: []string{"2025-03-12"}}).Code)

	// GIVEN: A batch mixing valid items with a bad date and an unknown type
	// WHEN: It is posted
	// THEN: Only the malformed items are skipped
	rec = ts.do(t, http.MethodPost, "/api/absences/batch", BatchAbsenceRequest{
		Dates: []string{"2025-03-12", "2025-02-30"},
		Type:  "RU",
		Entries: []CreateAbsenceRequest{
			{Date: "2025-03-13", Type: "PERMESSO", Hours: generic.Hours(1)},
			{Date: "not-a-date", Type: "RU", Hours: generic.Hours(1)},
			{Date: "2025-03-13", Type: "RU", Hours: generic.Hours(1)},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &result)
	assert.Equal(t, 2, result.AddedCount)
	assert.Equal(t, 3, result.SkippedCount)

	// An unknown type for the dates skips every date
	rec = ts.do(t, http.MethodPost, "/api/absences/batch", BatchAbsenceRequest{Dates: []string{"2025-03-17", "2025-03-18"}, Type: "PERMESSO"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(t, rec, &result)
	assert.Equal(t, 0, result.AddedCount)
	assert.Equal(t, 2, result.SkippedCount)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/absences", nil).Code)
	absences, err := ts.ledger.Absences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, absences)
}

// =============================================================================
// HOUR BANK / NOTES
// =============================================================================

func TestHourBank_Update(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	rec := ts.do(t, http.MethodPut, "/api/hour-bank", HourBankRequest{"FERIE": "20,5", "RU": "-"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	bank, err := ts.ledger.HourBank(context.Background())
	require.NoError(t, err)
	assert.True(t, generic.Hours(20.5).Equal(bank.Get(timeoff.Ferie)))
	assert.True(t, bank.Get(timeoff.RU).IsZero())

	// JSON numbers and null are accepted as well as strings
	rec = ts.do(t, http.MethodPut, "/api/hour-bank", `{"FERIE": 20, "RU": 4.5, "VISITA MEDICA": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bank, err = ts.ledger.HourBank(context.Background())
	require.NoError(t, err)
	assert.True(t, generic.HoursFromInt(20).Equal(bank.Get(timeoff.Ferie)))
	assert.True(t, generic.Hours(4.5).Equal(bank.Get(timeoff.RU)))
	assert.True(t, bank.Get(timeoff.VisitaMedica).IsZero())
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/hour-bank", `{"FERIE": true}`).Code)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/hour-bank", HourBankRequest{"FERIE": "lots"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/hour-bank", HourBankRequest{"PERMESSO": "1"}).Code)
}

func TestNotes_UpdateImportDelete(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPut, "/api/notes/2025-03-10", NoteRequest{Text: "dentist"}).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, "/api/notes/tomorrow", NoteRequest{Text: "x"}).Code)

	rec := ts.do(t, http.MethodPost, "/api/notes/import", `{"notes":[{"date":"2025-03-01","text":"trip"},{"date":"2025-03-10","text":"dentist 9:00"}]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var notes []timeoff.DayNote
	decode(t, ts.do(t, http.MethodGet, "/api/notes", nil), &notes)
	require.Len(t, notes, 2)
	assert.Equal(t, "2025-03-01", notes[0].Date.String())
	assert.Equal(t, "dentist 9:00", notes[1].Text)

	// Blank text deletes
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPut, "/api/notes/2025-03-01", NoteRequest{Text: "  "}).Code)
	decode(t, ts.do(t, http.MethodGet, "/api/notes", nil), &notes)
	assert.Len(t, notes, 1)

	// Replace drops everything not in the request
	rec = ts.do(t, http.MethodPut, "/api/notes", `{"notes":[{"date":"2025-04-01","text":"new"},{"date":"2025-04-02","text":""}]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	decode(t, ts.do(t, http.MethodGet, "/api/notes", nil), &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "new", notes[0].Text)
}

// =============================================================================
// STATS / REPORTS
// =============================================================================

func TestStats(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	// GIVEN: 20 carried-over FERIE hours, one past and one future FERIE day
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPut, "/api/hour-bank", HourBankRequest{"FERIE": "20"}).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-10","type":"FERIE","hours":8}`).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-04-07","type":"FERIE","hours":8}`).Code)

	// WHEN: Stats are read for the current month
	rec := ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats StatsDTO
	decode(t, rec, &stats)

	// THEN: Past hours are consumed, future ones planned
	assert.Equal(t, "2025-03-20", stats.Today)
	assert.Equal(t, "2025-03-20", stats.Viewed)
	assert.Positive(t, stats.RemainingWorkingDays)
	require.Len(t, stats.Types, len(timeoff.AllTypes()))

	ferie := stats.Types[timeoff.Ferie]
	assert.Equal(t, "FERIE", ferie.Type)
	assert.True(t, generic.Hours(8).Equal(ferie.Consumed))
	assert.True(t, generic.Hours(8).Equal(ferie.Planned))
	assert.True(t, generic.Hours(20).Equal(ferie.CarriedOver))
	assert.False(t, ferie.DisplayOnly)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/stats?view=2025-06-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/stats?view=june", nil).Code)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	// GIVEN: A full day off in February, so March pays one ticket fewer
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-02-10","type":"FERIE","hours":8}`).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-10","type":"RU","hours":2}`).Code)

	rec := ts.do(t, http.MethodGet, "/api/reports/2025/3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report timeoff.MonthlyReport
	decode(t, rec, &report)
	assert.Equal(t, 21, report.WorkingDays)
	assert.Equal(t, 20, report.MealTickets.Eligible)
	assert.Equal(t, 1, report.MealTickets.Deductions)
	assert.Equal(t, 19, report.MealTickets.Total)
	assert.True(t, generic.Hours(2).Equal(report.TotalHours))

	rec = ts.do(t, http.MethodGet, "/api/reports/2025/3/xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-2025-03.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/reports/2025/0", nil).Code)
}

// =============================================================================
// BACKUP
// =============================================================================

func TestBackup_Disabled(t *testing.T) {
	ts := newTestServer(t, false)
	ts.login(t)

	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/backup/save", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, ts.do(t, http.MethodPost, "/api/backup/load", nil).Code)
}

func TestBackup_SaveLoad(t *testing.T) {
	ts := newTestServer(t, true)
	ts.login(t)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/api/backup/load", nil).Code, "nothing uploaded yet")
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/backup/save", nil).Code, "empty ledger")

	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPost, "/api/absences", `{"date":"2025-03-10","type":"FERIE","hours":8}`).Code)
	rec := ts.do(t, http.MethodPost, "/api/backup/save", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved BackupDTO
	decode(t, rec, &saved)
	assert.False(t, saved.LastUpdated.IsZero())

	// Local edits are replaced by the backup on load.
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodDelete, "/api/absences", nil).Code)

	rec = ts.do(t, http.MethodPost, "/api/backup/load", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var loaded BackupDTO
	decode(t, rec, &loaded)
	assert.Equal(t, 1, loaded.Absences)

	absences, err := ts.ledger.Absences(context.Background())
	require.NoError(t, err)
	assert.Len(t, absences, 1)
}
