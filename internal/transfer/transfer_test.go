package transfer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"moneta/internal/core"
)

func fixture() []core.Transaction {
	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		if err != nil {
			panic(err)
		}
		return d
	}
	return []core.Transaction{
		{
			ID:              1,
			Date:            core.NewDate(2024, 1, 5),
			Amount:          dec("100"),
			Currency:        "EUR",
			AmountCanonical: dec("100"),
			Category:        "Salary",
			Kind:            core.Income,
			Description:     "January salary",
		},
		{
			ID:              2,
			Date:            core.NewDate(2024, 1, 20),
			Amount:          dec("33.30"),
			Currency:        "USD",
			AmountCanonical: dec("30.80"),
			Category:        "Food",
			Kind:            core.Expense,
			Description:     "groceries, \"fancy\" ones",
		},
		{
			ID:              3,
			Date:            core.NewDate(2024, 2, 1),
			Amount:          dec("-12.5"),
			Currency:        "GBP",
			AmountCanonical: dec("-14.40"),
			Category:        "Refunds",
			Kind:            core.Expense,
			Description:     "",
		},
	}
}

func requireEqualModuloID(t *testing.T, want, got []core.Transaction) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		require.True(t, g.Date.Equal(w.Date), "row %d date", i)
		require.True(t, g.Amount.Equal(w.Amount), "row %d amount", i)
		require.Equal(t, w.Currency, g.Currency, "row %d currency", i)
		require.True(t, g.AmountCanonical.Equal(w.AmountCanonical), "row %d canonical", i)
		require.Equal(t, w.Category, g.Category, "row %d category", i)
		require.Equal(t, w.Kind, g.Kind, "row %d kind", i)
		require.Equal(t, w.Description, g.Description, "row %d description", i)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	want := fixture()
	data, err := ExportCSV(want)
	require.NoError(t, err)

	rows, rowErrs := ImportCSV(data)
	require.Empty(t, rowErrs)
	got := make([]core.Transaction, len(rows))
	for i, r := range rows {
		got[i] = r.Tx
	}
	requireEqualModuloID(t, want, got)
}

func TestJSONRoundTrip(t *testing.T) {
	want := fixture()
	data, err := ExportJSON(want)
	require.NoError(t, err)

	rows, rowErrs := ImportJSON(data)
	require.Empty(t, rowErrs)
	got := make([]core.Transaction, len(rows))
	for i, r := range rows {
		got[i] = r.Tx
	}
	requireEqualModuloID(t, want, got)
}

func TestCSVHeaderMirrorsColumns(t *testing.T) {
	data, err := ExportCSV(nil)
	require.NoError(t, err)
	require.Equal(t, strings.Join(Columns, ","), strings.TrimSpace(string(data)))
}

func TestImportCSVPartialFailure(t *testing.T) {
	csvData := strings.Join([]string{
		"date,amount,currency,category,kind,description",
		"2024-01-05,100,EUR,Salary,income,jan",
		"not-a-date,100,EUR,Salary,income,bad row",
		"2024-01-20,30,USD,Food,expense,groceries",
	}, "\n")

	rows, rowErrs := ImportCSV([]byte(csvData))
	require.Len(t, rows, 2)
	require.Len(t, rowErrs, 1)
	require.Equal(t, 2, rowErrs[0].Row)
}

func TestImportCSVCollectsDistinctRowErrors(t *testing.T) {
	csvData := strings.Join([]string{
		"date,amount,currency,category,kind,description",
		"2024-01-05,zero,EUR,Salary,income,bad amount",
		"2024-01-06,10,E,Food,expense,bad currency",
		"2024-01-07,10,EUR,Food,transfer,bad kind",
		"2024-01-08,10,EUR,Food,expense,fine",
	}, "\n")

	rows, rowErrs := ImportCSV([]byte(csvData))
	require.Len(t, rows, 1)
	require.Len(t, rowErrs, 3)
	require.ErrorIs(t, rowErrs[0], core.ErrInvalidAmount)
	require.ErrorIs(t, rowErrs[1], core.ErrInvalidCurrency)
	require.ErrorIs(t, rowErrs[2], core.ErrInvalidKind)
}

func TestImportCSVMissingColumns(t *testing.T) {
	rows, rowErrs := ImportCSV([]byte("date,amount\n2024-01-05,100\n"))
	require.Empty(t, rows)
	require.Len(t, rowErrs, 1)
	require.Equal(t, 0, rowErrs[0].Row)
	require.Contains(t, rowErrs[0].Error(), "currency")
}

func TestImportCSVWithoutCanonicalColumn(t *testing.T) {
	csvData := "date,amount,currency,category,kind,description\n2024-01-05,100,USD,Food,expense,x\n"
	rows, rowErrs := ImportCSV([]byte(csvData))
	require.Empty(t, rowErrs)
	require.Len(t, rows, 1)
	require.True(t, rows[0].Tx.AmountCanonical.IsZero(), "canonical amount awaits backfill")
}

func TestImportJSONPartialFailure(t *testing.T) {
	jsonData := `[
		{"date":"2024-01-05","amount":"100","currency":"EUR","category":"Salary","kind":"income","description":"jan"},
		{"date":"2024-01-06","amount":"0","currency":"EUR","category":"Food","kind":"expense","description":"zero amount"},
		{"date":"2024-01-20","amount":30,"currency":"USD","category":"Food","kind":"expense","description":"bare number"}
	]`
	rows, rowErrs := ImportJSON([]byte(jsonData))
	require.Len(t, rows, 2)
	require.Len(t, rowErrs, 1)
	require.Equal(t, 2, rowErrs[0].Row)
}

func TestImportJSONBrokenDocument(t *testing.T) {
	rows, rowErrs := ImportJSON([]byte(`{"not":"an array"}`))
	require.Empty(t, rows)
	require.Len(t, rowErrs, 1)
	require.Equal(t, 0, rowErrs[0].Row)
}
