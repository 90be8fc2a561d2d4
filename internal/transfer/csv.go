package transfer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"moneta/internal/core"
)

// ExportCSV renders transactions as CSV with a header row mirroring Columns.
func ExportCSV(txs []core.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		r := toRecord(t)
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.Amount.String(),
			r.Currency,
			r.AmountCanonical.String(),
			r.Category,
			r.Kind,
			r.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportCSV decodes a CSV document. The header names the columns, so column
// order is free; id and amount_canonical are optional. Each malformed data
// row becomes one RowError and the remaining rows still import.
func ImportCSV(data []byte) ([]Row, []RowError) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, []RowError{{Err: fmt.Errorf("read csv header: %w", err)}}
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, required := range []string{"date", "amount", "currency", "category", "kind", "description"} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, []RowError{{Err: fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))}}
	}

	var (
		rows    []Row
		rowErrs []RowError
	)
	for n := 1; ; n++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: n, Err: err})
			continue
		}
		tx, err := csvRecord(fields, index)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: n, Err: err})
			continue
		}
		rows = append(rows, Row{N: n, Tx: tx})
	}
	return rows, rowErrs
}

func csvRecord(fields []string, index map[string]int) (core.Transaction, error) {
	get := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	rec := record{
		Date:        get("date"),
		Currency:    get("currency"),
		Category:    get("category"),
		Kind:        get("kind"),
		Description: get("description"),
	}
	if v := get("id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid id %q", v)
		}
		rec.ID = id
	}
	amount, err := core.ParseAmount(get("amount"))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", err, get("amount"))
	}
	rec.Amount = amount
	if v := get("amount_canonical"); v != "" {
		canonical, err := core.ParseAmount(v)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid canonical amount %q", v)
		}
		rec.AmountCanonical = &canonical
	}
	return fromRecord(rec)
}
