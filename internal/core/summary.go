package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// CategoryTotal is an expense sum for one category, in canonical units.
	CategoryTotal struct {
		Category string
		Total    decimal.Decimal
	}

	// MonthlyBalance is the net balance (income minus expense) of one
	// calendar month, in canonical units.
	MonthlyBalance struct {
		Year  int
		Month time.Month
		Net   decimal.Decimal
	}

	// CurrencyTotal is a signed total in one original currency.
	CurrencyTotal struct {
		Currency string
		Total    decimal.Decimal
	}

	// Summary is the compact roll-up shown next to the reports: canonical
	// net/income/expense totals plus the signed per-original-currency
	// breakdown.
	Summary struct {
		Net        decimal.Decimal
		Income     decimal.Decimal
		Expense    decimal.Decimal
		ByCurrency []CurrencyTotal
	}
)

// CategoryTotals sums canonical amounts of expense-kind transactions per
// category. An empty input yields an empty slice, never an error. The result
// is ordered by descending total, ties broken by category name.
func CategoryTotals(txs []Transaction) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, t := range txs {
		if t.Kind != Expense {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.AmountCanonical)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		out = append(out, CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlyBalances sums signed canonical amounts per calendar month,
// chronologically ordered. Incomes count positive, expenses negative.
func MonthlyBalances(txs []Transaction) []MonthlyBalance {
	type key struct {
		year  int
		month time.Month
	}
	sums := make(map[key]decimal.Decimal)
	for _, t := range txs {
		k := key{year: t.Date.Year(), month: t.Date.Month()}
		sums[k] = sums[k].Add(t.Signed())
	}
	out := make([]MonthlyBalance, 0, len(sums))
	for k, net := range sums {
		out = append(out, MonthlyBalance{Year: k.year, Month: k.month, Net: net})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Summarize computes the canonical totals and the per-currency signed
// breakdown over the original amounts.
func Summarize(txs []Transaction) Summary {
	s := Summary{}
	byCurrency := make(map[string]decimal.Decimal)
	for _, t := range txs {
		s.Net = s.Net.Add(t.Signed())
		switch t.Kind {
		case Income:
			s.Income = s.Income.Add(t.AmountCanonical)
		case Expense:
			s.Expense = s.Expense.Add(t.AmountCanonical)
		}
		byCurrency[t.Currency] = byCurrency[t.Currency].Add(t.SignedOriginal())
	}
	s.ByCurrency = make([]CurrencyTotal, 0, len(byCurrency))
	for code, total := range byCurrency {
		s.ByCurrency = append(s.ByCurrency, CurrencyTotal{Currency: code, Total: total})
	}
	sort.Slice(s.ByCurrency, func(i, j int) bool {
		return s.ByCurrency[i].Currency < s.ByCurrency[j].Currency
	})
	return s
}
