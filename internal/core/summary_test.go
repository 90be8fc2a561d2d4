package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func canonical(kind Kind, date time.Time, category, amount string) Transaction {
	a, _ := decimal.NewFromString(amount)
	return Transaction{
		Date:            date,
		Amount:          a,
		Currency:        CanonicalCurrency,
		AmountCanonical: a,
		Category:        category,
		Kind:            kind,
	}
}

func TestCategoryTotalsEmpty(t *testing.T) {
	if got := CategoryTotals(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}

func TestCategoryTotalsSingleExpense(t *testing.T) {
	txs := []Transaction{canonical(Expense, NewDate(2024, 1, 5), "Food", "10")}
	got := CategoryTotals(txs)
	if len(got) != 1 || got[0].Category != "Food" || !got[0].Total.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected {Food: 10}, got %v", got)
	}
}

func TestCategoryTotalsIgnoresIncome(t *testing.T) {
	txs := []Transaction{
		canonical(Expense, NewDate(2024, 1, 5), "Food", "10"),
		canonical(Expense, NewDate(2024, 2, 1), "Food", "5"),
		canonical(Expense, NewDate(2024, 2, 1), "Rent", "40"),
		canonical(Income, NewDate(2024, 1, 10), "Salary", "100"),
	}
	got := CategoryTotals(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %v", got)
	}
	// Ordered by descending total.
	if got[0].Category != "Rent" || !got[0].Total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected Rent 40 first, got %v", got[0])
	}
	if got[1].Category != "Food" || !got[1].Total.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected Food 15 second, got %v", got[1])
	}
}

func TestMonthlyBalances(t *testing.T) {
	txs := []Transaction{
		canonical(Income, NewDate(2024, 1, 5), "Salary", "100"),
		canonical(Expense, NewDate(2024, 1, 20), "Food", "30"),
	}
	got := MonthlyBalances(txs)
	if len(got) != 1 {
		t.Fatalf("expected one month, got %v", got)
	}
	if got[0].Year != 2024 || got[0].Month != time.January || !got[0].Net.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("expected (2024, January): 70, got %v", got[0])
	}
}

func TestMonthlyBalancesChronological(t *testing.T) {
	txs := []Transaction{
		canonical(Expense, NewDate(2024, 3, 1), "Food", "1"),
		canonical(Income, NewDate(2023, 12, 1), "Salary", "2"),
		canonical(Income, NewDate(2024, 1, 1), "Salary", "3"),
	}
	got := MonthlyBalances(txs)
	if len(got) != 3 {
		t.Fatalf("expected 3 months, got %v", got)
	}
	if got[0].Year != 2023 || got[1].Month != time.January || got[2].Month != time.March {
		t.Fatalf("months not chronological: %v", got)
	}
}

func TestSummarize(t *testing.T) {
	usd, _ := decimal.NewFromString("20")
	txs := []Transaction{
		canonical(Income, NewDate(2024, 1, 5), "Salary", "100"),
		canonical(Expense, NewDate(2024, 1, 20), "Food", "30"),
		{
			Date:            NewDate(2024, 1, 21),
			Amount:          usd,
			Currency:        "USD",
			AmountCanonical: decimal.NewFromInt(18),
			Category:        "Travel",
			Kind:            Expense,
		},
	}
	s := Summarize(txs)
	if !s.Net.Equal(decimal.NewFromInt(52)) {
		t.Fatalf("net expected 52, got %s", s.Net)
	}
	if !s.Income.Equal(decimal.NewFromInt(100)) || !s.Expense.Equal(decimal.NewFromInt(48)) {
		t.Fatalf("income/expense wrong: %s / %s", s.Income, s.Expense)
	}
	if len(s.ByCurrency) != 2 || s.ByCurrency[0].Currency != "EUR" || s.ByCurrency[1].Currency != "USD" {
		t.Fatalf("by-currency breakdown wrong: %v", s.ByCurrency)
	}
	if !s.ByCurrency[1].Total.Equal(decimal.NewFromInt(-20)) {
		t.Fatalf("USD signed total expected -20, got %s", s.ByCurrency[1].Total)
	}
}
