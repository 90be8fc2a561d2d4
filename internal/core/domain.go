package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalCurrency is the unit every stored amount is normalized into.
const CanonicalCurrency = "EUR"

// DefaultCategory is assigned when a transaction carries no category.
const DefaultCategory = "Uncategorized"

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

type (
	// Kind splits transactions into the two sign classes: expenses reduce
	// the net balance, incomes increase it.
	Kind string

	// Transaction is one income or expense record. Amount is kept in the
	// original currency; AmountCanonical is the same value in
	// CanonicalCurrency, fixed at entry time and never recomputed when
	// exchange rates move.
	Transaction struct {
		ID              int64
		Date            time.Time
		Amount          decimal.Decimal
		Currency        string
		AmountCanonical decimal.Decimal
		Category        string
		Kind            Kind
		Description     string
	}

	// Filter narrows a listing by date range, category and kind.
	// Zero values leave the corresponding predicate open.
	Filter struct {
		From     time.Time
		To       time.Time
		Category string
		Kind     Kind
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrDescriptionTooLong = errors.New("description too long (max 256 characters)")
)

// NewDate builds a calendar date at UTC midnight. Transactions carry dates,
// not instants, so everything is normalized to this form.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// dateLayouts are the accepted textual date forms, tried in order.
var dateLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "2006/01/02"}

// ParseDate reads a calendar date in one of a few common formats, falling
// back to RFC 3339 timestamps whose time part is discarded.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return NewDate(d.Year(), int(d.Month()), d.Day()), nil
		}
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(d.Year(), int(d.Month()), d.Day()), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Normalized returns a copy with the free-form fields brought into canonical
// shape: currency upper-cased, kind lower-cased, empty category defaulted,
// date truncated to its calendar day.
func (t Transaction) Normalized() Transaction {
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.Kind = Kind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	t.Description = strings.TrimSpace(t.Description)
	if !t.Date.IsZero() {
		t.Date = NewDate(t.Date.Year(), int(t.Date.Month()), t.Date.Day())
	}
	return t
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if !validCurrencyCode(t.Currency) {
		return ErrInvalidCurrency
	}
	if t.Kind != Expense && t.Kind != Income {
		return ErrInvalidKind
	}
	if len(t.Description) > 256 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Signed returns the canonical amount with the sign implied by the kind:
// positive for income, negative for expense.
func (t Transaction) Signed() decimal.Decimal {
	if t.Kind == Expense {
		return t.AmountCanonical.Neg()
	}
	return t.AmountCanonical
}

// SignedOriginal is Signed over the original-currency amount.
func (t Transaction) SignedOriginal() decimal.Decimal {
	if t.Kind == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Match reports whether the transaction satisfies every set predicate.
// Date bounds are inclusive.
func (f Filter) Match(t Transaction) bool {
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To) {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	return true
}

func validCurrencyCode(code string) bool {
	if len(code) < 3 || len(code) > 8 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
