// Package core holds the transaction domain: entities, validation and the
// pure aggregation logic reports are built from.
//
// This file contains amount parsing. Amounts are decimal values; float math
// is never used for money.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into an exact amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Zero is rejected: a transaction without a value is
// meaningless.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if d.IsZero() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}
