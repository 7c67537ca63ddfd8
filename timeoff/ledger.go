/*
ledger.go - Absence ledger with daily-capacity enforcement

PURPOSE:
  Typed access to the raw collections kept in a generic.Store, plus the
  input rules that keep the calculation core's assumptions true.

INVARIANT:
  For every day, the hours recorded across all types never exceed
  WorkingHoursForDate(day). The stats engine reports residual hours
  assuming this holds; it does not re-check it.

WHAT IT CHECKS:
  1. Add: hours > 0, the day is a working day, and the day's total stays
     within capacity. Violations are returned as errors.
  2. AddBatch: the same rules per entry, including hours added earlier in
     the same batch. Violating entries are skipped and counted, the rest
     are stored in one write.

STORAGE LAYOUT:
  work-calendar-absences   JSON array of Absence
  work-calendar-hour-bank  JSON object label -> hours   (bank.go)
  work-calendar-notes      JSON array of DayNote         (notes.go)

  A key that was never written reads as its empty default. A value that
  cannot be decoded is logged and also read as the default, so one corrupt
  key never locks the user out of the others.

EXAMPLE:
  ledger := timeoff.NewLedger(store, logger)

  _, err := ledger.Add(ctx, timeoff.AbsenceInput{
      Date:  generic.MustParseDate("2025-03-10"),
      Type:  timeoff.Ferie,
      Hours: generic.Hours(8),
  })
  var capErr *generic.CapacityError
  if errors.As(err, &capErr) {
      fmt.Printf("only %dh available on %s\n", capErr.Capacity, capErr.Date)
  }

SEE ALSO:
  - generic/store.go: Store interface
  - bank.go, notes.go: The other two collections
  - backup/backup.go: Atomic replacement of all three
*/
package timeoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/absence-ledger/generic"
)

// Storage keys of the three collections.
const (
	KeyAbsences = "work-calendar-absences"
	KeyHourBank = "work-calendar-hour-bank"
	KeyNotes    = "work-calendar-notes"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger guards the absence, hour-bank and note collections of one user.
// Writes are serialised so read-modify-write cycles never lose an update.
type Ledger struct {
	store generic.Store
	log   logrus.FieldLogger
	newID func() string

	mu sync.Mutex
}

// NewLedger creates a ledger over store.
func NewLedger(store generic.Store, log logrus.FieldLogger) *Ledger {
	return &Ledger{
		store: store,
		log:   log,
		newID: func() string { return uuid.NewString() },
	}
}

// Snapshot is a consistent copy of the three collections.
type Snapshot struct {
	Absences []Absence `json:"absences"`
	Notes    []DayNote `json:"notes"`
	HourBank HourBank  `json:"hourBank"`
}

// IsEmpty reports a snapshot with no absences, no notes and an all-zero bank.
func (s Snapshot) IsEmpty() bool {
	if len(s.Absences) > 0 || len(s.Notes) > 0 {
		return false
	}
	for _, v := range s.HourBank {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Snapshot loads all three collections.
func (l *Ledger) Snapshot(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ReadSnapshot(ctx, l.store, l.log)
}

// ReplaceAll overwrites all three collections with snap.
// When the store is a generic.TxStore the three writes are atomic.
func (l *Ledger) ReplaceAll(ctx context.Context, snap Snapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tx, ok := l.store.(generic.TxStore); ok {
		return tx.WithTx(ctx, func(s generic.Store) error {
			return WriteSnapshot(ctx, s, snap)
		})
	}
	return WriteSnapshot(ctx, l.store, snap)
}

// ReadSnapshot loads the three collections from store.
func ReadSnapshot(ctx context.Context, store generic.Store, log logrus.FieldLogger) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Absences, err = loadJSON[[]Absence](ctx, store, KeyAbsences, log); err != nil {
		return Snapshot{}, err
	}
	if snap.Notes, err = loadJSON[[]DayNote](ctx, store, KeyNotes, log); err != nil {
		return Snapshot{}, err
	}
	if snap.HourBank, err = loadJSON[HourBank](ctx, store, KeyHourBank, log); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// WriteSnapshot stores the three collections of snap.
func WriteSnapshot(ctx context.Context, store generic.Store, snap Snapshot) error {
	absences := snap.Absences
	if absences == nil {
		absences = []Absence{}
	}
	notes := snap.Notes
	if notes == nil {
		notes = []DayNote{}
	}
	if err := saveJSON(ctx, store, KeyAbsences, absences); err != nil {
		return err
	}
	if err := saveJSON(ctx, store, KeyNotes, notes); err != nil {
		return err
	}
	return saveJSON(ctx, store, KeyHourBank, snap.HourBank)
}

// =============================================================================
// ABSENCES
// =============================================================================

// AbsenceInput is a request to record hours of one type on one day.
type AbsenceInput struct {
	Date  generic.TimePoint
	Type  AbsenceType
	Hours decimal.Decimal
}

// BatchResult reports the outcome of AddBatch.
type BatchResult struct {
	Added   []Absence
	Skipped int
}

// FullDays builds one input per working day in dates, each for the day's
// full working hours. Non-working days are dropped.
func FullDays(dates []generic.TimePoint, t AbsenceType) []AbsenceInput {
	var inputs []AbsenceInput
	for _, d := range dates {
		if hours := WorkingHoursForDate(d); hours > 0 {
			inputs = append(inputs, AbsenceInput{Date: d, Type: t, Hours: generic.HoursFromInt(hours)})
		}
	}
	return inputs
}

// Absences returns every recorded absence.
func (l *Ledger) Absences(ctx context.Context) ([]Absence, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadAbsences(ctx)
}

// Add records one absence after checking the ledger rules.
func (l *Ledger) Add(ctx context.Context, in AbsenceInput) (Absence, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	absences, err := l.loadAbsences(ctx)
	if err != nil {
		return Absence{}, err
	}
	if err := validateInput(in, hoursOn(absences, in.Date)); err != nil {
		return Absence{}, err
	}

	a := Absence{ID: l.newID(), Date: in.Date, Type: in.Type, Hours: in.Hours}
	if err := saveJSON(ctx, l.store, KeyAbsences, append(absences, a)); err != nil {
		return Absence{}, err
	}
	return a, nil
}

// AddBatch records every valid input and skips the others.
func (l *Ledger) AddBatch(ctx context.Context, inputs []AbsenceInput) (BatchResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	absences, err := l.loadAbsences(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	recorded := make(map[string]decimal.Decimal)
	for _, a := range absences {
		recorded[a.Date.String()] = recorded[a.Date.String()].Add(a.Hours)
	}

	var result BatchResult
	for _, in := range inputs {
		key := in.Date.String()
		if err := validateInput(in, recorded[key]); err != nil {
			l.log.WithError(err).WithField("date", key).Debug("skipping batch absence")
			result.Skipped++
			continue
		}
		a := Absence{ID: l.newID(), Date: in.Date, Type: in.Type, Hours: in.Hours}
		result.Added = append(result.Added, a)
		recorded[key] = recorded[key].Add(in.Hours)
	}

	if len(result.Added) == 0 {
		return result, nil
	}
	if err := saveJSON(ctx, l.store, KeyAbsences, append(absences, result.Added...)); err != nil {
		return BatchResult{}, err
	}
	return result, nil
}

// Remove deletes the absence with the given id.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	absences, err := l.loadAbsences(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(absences, func(a Absence) bool { return a.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", generic.ErrAbsenceNotFound, id)
	}
	return saveJSON(ctx, l.store, KeyAbsences, slices.Delete(absences, i, i+1))
}

// Clear deletes every absence. Notes and the hour bank are kept.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Delete(ctx, KeyAbsences); err != nil {
		return fmt.Errorf("clear absences: %w", err)
	}
	return nil
}

func (l *Ledger) loadAbsences(ctx context.Context) ([]Absence, error) {
	return loadJSON[[]Absence](ctx, l.store, KeyAbsences, l.log)
}

func hoursOn(absences []Absence, day generic.TimePoint) decimal.Decimal {
	total := decimal.Zero
	for _, a := range absences {
		if a.Date.Equal(day) {
			total = total.Add(a.Hours)
		}
	}
	return total
}

func validateInput(in AbsenceInput, recorded decimal.Decimal) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %d", generic.ErrUnknownAbsenceType, int(in.Type))
	}
	if in.Date.IsZero() {
		return generic.ErrInvalidDate
	}
	if !in.Hours.IsPositive() {
		return fmt.Errorf("%w: %s", generic.ErrInvalidHours, in.Hours)
	}

	capacity := DailyCapacity(in.Date)
	if capacity.IsZero() {
		return fmt.Errorf("%w: %s", generic.ErrNonWorkingDay, in.Date)
	}
	if recorded.Add(in.Hours).GreaterThan(capacity) {
		return &generic.CapacityError{
			Date:      in.Date,
			Capacity:  int(capacity.IntPart()),
			Recorded:  recorded,
			Requested: in.Hours,
		}
	}
	return nil
}

// =============================================================================
// JSON HELPERS
// =============================================================================

func loadJSON[T any](ctx context.Context, store generic.Store, key string, log logrus.FieldLogger) (T, error) {
	var zero T
	raw, err := store.Get(ctx, key)
	if errors.Is(err, generic.ErrKeyNotFound) {
		return zero, nil
	}
	if err != nil {
		return zero, fmt.Errorf("load %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		log.WithError(err).WithField("key", key).Warn("discarding malformed stored value")
		return zero, nil
	}
	return v, nil
}

func saveJSON(ctx context.Context, store generic.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
