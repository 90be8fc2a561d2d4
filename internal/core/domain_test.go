package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tx(kind Kind, amount string) Transaction {
	a, _ := decimal.NewFromString(amount)
	return Transaction{
		Date:            NewDate(2024, 1, 5),
		Amount:          a,
		Currency:        "EUR",
		AmountCanonical: a,
		Category:        "Food",
		Kind:            kind,
	}
}

func TestTransactionValidate(t *testing.T) {
	good := tx(Expense, "10")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		func() Transaction { b := tx(Expense, "10"); b.Date = time.Time{}; return b }(),
		tx(Expense, "0"),
		func() Transaction { b := tx(Expense, "10"); b.Currency = "eu"; return b }(),
		func() Transaction { b := tx(Expense, "10"); b.Currency = "EURODOLLAR"; return b }(),
		func() Transaction { b := tx("transfer", "10"); return b }(),
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestNormalized(t *testing.T) {
	raw := Transaction{
		Date:     time.Date(2024, 3, 9, 17, 45, 2, 0, time.UTC),
		Amount:   decimal.NewFromInt(5),
		Currency: " usd ",
		Kind:     "EXPENSE",
	}
	got := raw.Normalized()
	if got.Currency != "USD" {
		t.Fatalf("currency not normalized: %q", got.Currency)
	}
	if got.Kind != Expense {
		t.Fatalf("kind not normalized: %q", got.Kind)
	}
	if got.Category != DefaultCategory {
		t.Fatalf("empty category not defaulted: %q", got.Category)
	}
	if !got.Date.Equal(NewDate(2024, 3, 9)) {
		t.Fatalf("date not truncated to day: %v", got.Date)
	}
}

func TestFilterMatch(t *testing.T) {
	sample := tx(Expense, "10")
	cases := []struct {
		f    Filter
		want bool
	}{
		{Filter{}, true},
		{Filter{From: NewDate(2024, 1, 5)}, true}, // inclusive
		{Filter{From: NewDate(2024, 1, 6)}, false},
		{Filter{To: NewDate(2024, 1, 5)}, true}, // inclusive
		{Filter{To: NewDate(2024, 1, 4)}, false},
		{Filter{Category: "Food"}, true},
		{Filter{Category: "Rent"}, false},
		{Filter{Kind: Expense}, true},
		{Filter{Kind: Income}, false},
	}
	for i, tc := range cases {
		if got := tc.f.Match(sample); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}

func TestSigned(t *testing.T) {
	exp := tx(Expense, "10")
	if !exp.Signed().Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expense should be negative, got %s", exp.Signed())
	}
	inc := tx(Income, "10")
	if !inc.Signed().Equal(decimal.NewFromInt(10)) {
		t.Fatalf("income should be positive, got %s", inc.Signed())
	}
}
