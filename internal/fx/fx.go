// Package fx resolves exchange rates and converts amounts between the
// canonical currency and arbitrary display or entry currencies.
package fx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
)

// ErrRateUnavailable signals that no exchange rate could be resolved for a
// currency/date pair. Callers decide whether to block the operation or fall
// back; the add-transaction path always blocks.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Source is the injected rate-lookup capability. Rate returns the value of
// one unit of code expressed in the canonical currency (EUR), for the given
// date. Implementations wrap ErrRateUnavailable when the code or date cannot
// be resolved.
type Source interface {
	Rate(ctx context.Context, code string, on time.Time) (decimal.Decimal, error)
}

// ToCanonical converts amount from currency into the canonical unit:
// amount * rate(currency). The canonical currency converts identically, so
// EUR amounts pass through exactly.
func ToCanonical(ctx context.Context, src Source, amount decimal.Decimal, currency string, on time.Time) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == core.CanonicalCurrency {
		return amount, nil
	}
	rate, err := src.Rate(ctx, code, on)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("normalize %s: %w", code, err)
	}
	return amount.Mul(rate), nil
}

// FromCanonical converts a canonical amount into the display currency:
// amount / rate(display). Identity for the canonical currency itself.
func FromCanonical(ctx context.Context, src Source, amount decimal.Decimal, display string, on time.Time) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(display))
	if code == core.CanonicalCurrency {
		return amount, nil
	}
	rate, err := src.Rate(ctx, code, on)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("display %s: %w", code, err)
	}
	if rate.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("display %s: zero rate: %w", code, ErrRateUnavailable)
	}
	return amount.Div(rate), nil
}
