package fx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

// Static is a fixed rate table mapping currency code to its EUR value per
// unit. It backs tests and offline runs; dates are ignored because the table
// has no history.
type Static map[string]decimal.Decimal

func (s Static) Rate(_ context.Context, code string, _ time.Time) (decimal.Decimal, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == core.CanonicalCurrency {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := s[code]
	if !ok || rate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("no rate for %s: %w", code, ErrRateUnavailable)
	}
	return rate, nil
}

// SeedTable is the emergency fallback table used when every provider and
// cache layer fails. Values are EUR per unit, inverted from the coarse
// seedRates snapshot; good enough to keep a session usable offline.
func SeedTable() Static {
	out := make(Static, len(seedRates))
	for code, per := range seedRates {
		if code == core.CanonicalCurrency {
			continue
		}
		d, _ := decimal.NewFromString(per)
		out[code] = decimal.NewFromInt(1).Div(d)
	}
	return out
}
