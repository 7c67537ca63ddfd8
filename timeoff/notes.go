package timeoff

import (
	"context"
	"slices"
	"strings"

	"github.com/warp/absence-ledger/generic"
)

// Notes returns every day note, ordered by date.
func (l *Ledger) Notes(ctx context.Context) ([]DayNote, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	notes, err := loadJSON[[]DayNote](ctx, l.store, KeyNotes, l.log)
	if err != nil {
		return nil, err
	}
	sortNotes(notes)
	return notes, nil
}

// UpdateNote sets the note of one day. Text that is blank once trimmed
// deletes the note.
func (l *Ledger) UpdateNote(ctx context.Context, date generic.TimePoint, text string) error {
	return l.ImportNotes(ctx, []DayNote{{Date: date, Text: text}})
}

// ImportNotes merges notes into the stored ones, last write per day wins.
// Blank notes delete the stored note for their day.
func (l *Ledger) ImportNotes(ctx context.Context, notes []DayNote) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := loadJSON[[]DayNote](ctx, l.store, KeyNotes, l.log)
	if err != nil {
		return err
	}

	byDate := make(map[string]DayNote, len(stored)+len(notes))
	for _, n := range stored {
		byDate[n.Date.String()] = n
	}
	for _, n := range notes {
		if n.Date.IsZero() {
			return generic.ErrInvalidDate
		}
		key := n.Date.String()
		text := strings.TrimSpace(n.Text)
		if text == "" {
			delete(byDate, key)
			continue
		}
		byDate[key] = DayNote{Date: n.Date, Text: text}
	}

	merged := make([]DayNote, 0, len(byDate))
	for _, n := range byDate {
		merged = append(merged, n)
	}
	sortNotes(merged)
	return saveJSON(ctx, l.store, KeyNotes, merged)
}

// ReplaceAllNotes overwrites the stored notes. Blank notes are dropped.
func (l *Ledger) ReplaceAllNotes(ctx context.Context, notes []DayNote) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]DayNote, 0, len(notes))
	for _, n := range notes {
		if text := strings.TrimSpace(n.Text); text != "" {
			kept = append(kept, DayNote{Date: n.Date, Text: text})
		}
	}
	sortNotes(kept)
	return saveJSON(ctx, l.store, KeyNotes, kept)
}

func sortNotes(notes []DayNote) {
	slices.SortFunc(notes, func(a, b DayNote) int { return a.Date.Time.Compare(b.Date.Time) })
}
