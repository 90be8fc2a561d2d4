package transfer

import (
	"encoding/json"
	"fmt"

	"moneta/internal/core"
)

// ExportJSON renders transactions as a JSON array of objects carrying the
// same field set as the CSV form. Amounts marshal as strings to stay exact.
func ExportJSON(txs []core.Transaction) ([]byte, error) {
	records := make([]record, len(txs))
	for i, t := range txs {
		records[i] = toRecord(t)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal transactions: %w", err)
	}
	return data, nil
}

// ImportJSON decodes a JSON array of transaction objects. Elements decode
// independently so one malformed object costs one RowError, not the batch.
func ImportJSON(data []byte) ([]Row, []RowError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, []RowError{{Err: fmt.Errorf("parse json document: %w", err)}}
	}

	var (
		rows    []Row
		rowErrs []RowError
	)
	for i, msg := range raw {
		n := i + 1
		var rec record
		if err := json.Unmarshal(msg, &rec); err != nil {
			rowErrs = append(rowErrs, RowError{Row: n, Err: err})
			continue
		}
		tx, err := fromRecord(rec)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: n, Err: err})
			continue
		}
		rows = append(rows, Row{N: n, Tx: tx})
	}
	return rows, rowErrs
}
