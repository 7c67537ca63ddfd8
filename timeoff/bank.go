package timeoff

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/absence-ledger/generic"
)

// BankDraft is hour-bank input as the user typed it, keyed by type.
// Types left out of the draft keep their stored value.
type BankDraft map[AbsenceType]string

// Normalize parses every entry. Blank input and a lone "-" read as zero,
// which is what a half-edited numeric field looks like.
func (d BankDraft) Normalize() (map[AbsenceType]decimal.Decimal, error) {
	out := make(map[AbsenceType]decimal.Decimal, len(d))
	for t, raw := range d {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %d", generic.ErrUnknownAbsenceType, int(t))
		}
		v, err := parseBankHours(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		out[t] = v
	}
	return out, nil
}

// Apply merges the normalized draft into bank.
func (d BankDraft) Apply(bank HourBank) (HourBank, error) {
	values, err := d.Normalize()
	if err != nil {
		return bank, err
	}
	for t, v := range values {
		bank[t] = v
	}
	return bank, nil
}

func parseBankHours(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", generic.ErrInvalidHours, raw)
	}
	return v, nil
}

// HourBank returns the stored bank, all zero when never set.
func (l *Ledger) HourBank(ctx context.Context) (HourBank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return loadJSON[HourBank](ctx, l.store, KeyHourBank, l.log)
}

// UpdateHourBank merges draft into the stored bank and returns the result.
// Negative values are accepted: a carried-over overdraft is legitimate.
func (l *Ledger) UpdateHourBank(ctx context.Context, draft BankDraft) (HourBank, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bank, err := loadJSON[HourBank](ctx, l.store, KeyHourBank, l.log)
	if err != nil {
		return HourBank{}, err
	}
	bank, err = draft.Apply(bank)
	if err != nil {
		return HourBank{}, err
	}
	if err := saveJSON(ctx, l.store, KeyHourBank, bank); err != nil {
		return HourBank{}, err
	}
	return bank, nil
}

// ReplaceHourBank overwrites the stored bank.
func (l *Ledger) ReplaceHourBank(ctx context.Context, bank HourBank) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return saveJSON(ctx, l.store, KeyHourBank, bank)
}
