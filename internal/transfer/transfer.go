// Package transfer transcodes transactions to and from flat files. Both
// formats carry the full field set and round-trip losslessly, identifiers
// aside; malformed rows are collected as per-row errors instead of failing
// the whole batch.
package transfer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Columns is the stable field set, in wire order.
var Columns = []string{"id", "date", "amount", "currency", "amount_canonical", "category", "kind", "description"}

const dateLayout = "2006-01-02"

type (
	Format string

	// RowError records one malformed input row. Row is the 1-based data row
	// number; 0 marks a failure of the document itself.
	RowError struct {
		Row int
		Err error
	}

	// Row is one successfully decoded input row. N keeps the source row
	// number so later processing stages can still attribute failures.
	Row struct {
		N  int
		Tx core.Transaction
	}

	// record is the wire form shared by both formats. Amounts use decimal
	// so JSON accepts quoted and bare numbers alike; a nil canonical amount
	// means the source did not carry one and it must be backfilled.
	record struct {
		ID              int64            `json:"id,omitempty"`
		Date            string           `json:"date"`
		Amount          decimal.Decimal  `json:"amount"`
		Currency        string           `json:"currency"`
		AmountCanonical *decimal.Decimal `json:"amount_canonical,omitempty"`
		Category        string           `json:"category"`
		Kind            string           `json:"kind"`
		Description     string           `json:"description"`
	}
)

func (e RowError) Error() string {
	if e.Row == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// Export renders transactions in the requested format.
func Export(txs []core.Transaction, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportCSV(txs)
	case FormatJSON:
		return ExportJSON(txs)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Import decodes transactions in the requested format, collecting per-row
// errors.
func Import(data []byte, format Format) ([]Row, []RowError) {
	switch format {
	case FormatCSV:
		return ImportCSV(data)
	case FormatJSON:
		return ImportJSON(data)
	default:
		return nil, []RowError{{Err: fmt.Errorf("unsupported format %q", format)}}
	}
}

func toRecord(t core.Transaction) record {
	canonical := t.AmountCanonical
	return record{
		ID:              t.ID,
		Date:            t.Date.Format(dateLayout),
		Amount:          t.Amount,
		Currency:        t.Currency,
		AmountCanonical: &canonical,
		Category:        t.Category,
		Kind:            string(t.Kind),
		Description:     t.Description,
	}
}

func fromRecord(r record) (core.Transaction, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:          r.ID,
		Date:        date,
		Amount:      r.Amount,
		Currency:    r.Currency,
		Category:    r.Category,
		Kind:        core.Kind(r.Kind),
		Description: r.Description,
	}
	if r.AmountCanonical != nil {
		t.AmountCanonical = *r.AmountCanonical
	}
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}
