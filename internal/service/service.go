// Package service orchestrates the transaction flows: normalize on entry,
// persist, aggregate on demand, transcode for import/export.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/fx"
	"moneta/internal/log"
	"moneta/internal/transfer"
)

type (
	// Store is the persistence port the service writes through.
	Store interface {
		Add(ctx context.Context, t core.Transaction) (int64, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		ListAll(ctx context.Context, f core.Filter) ([]core.Transaction, error)
		Update(ctx context.Context, id int64, t core.Transaction) error
		Delete(ctx context.Context, id int64) error
	}

	Service struct {
		store  Store
		rates  fx.Source
		echo   *Echo
		logger *log.Logger
	}

	// Report is the response object handed to the presentation layer: both
	// report shapes plus the filtered transaction list. Aggregates are in
	// the display currency, converted at report-generation time; Summary
	// stays canonical with its display-leg net alongside.
	Report struct {
		DisplayCurrency string
		CategoryTotals  []core.CategoryTotal
		MonthlyBalances []core.MonthlyBalance
		Summary         core.Summary
		NetDisplay      decimal.Decimal
		Transactions    []core.Transaction
	}

	// ImportResult reports the partial-failure outcome of one batch.
	ImportResult struct {
		Imported  []core.Transaction
		Skipped   int
		RowErrors []transfer.RowError
	}
)

func New(store Store, rates fx.Source, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		rates:  rates,
		echo:   NewEcho(),
		logger: logger,
	}
}

// Add validates and normalizes the transaction, then persists it. The
// canonical amount is computed with the rate at entry time; if no rate is
// available nothing is stored and the whole operation fails.
func (s *Service) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	canonical, err := fx.ToCanonical(ctx, s.rates, t.Amount, t.Currency, t.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	t.AmountCanonical = canonical

	token := s.echo.Begin(t)
	id, err := s.store.Add(ctx, t)
	if err != nil {
		s.echo.Reject(token, err)
		s.logger.ErrorContext(ctx, "Transaction write failed",
			log.FieldError, err, log.FieldCurrency, t.Currency, log.FieldAmount, t.Amount.String())
		return core.Transaction{}, err
	}
	s.echo.Confirm(token, id)
	t.ID = id

	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldTxID, id, log.FieldKind, string(t.Kind),
		log.FieldCategory, t.Category, log.FieldCurrency, t.Currency)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	return s.store.ListAll(ctx, f)
}

// Update replaces a transaction. The canonical amount is kept from the
// stored row when amount and currency are unchanged; otherwise it is
// recomputed with the rate at edit time.
func (s *Service) Update(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	t = t.Normalized()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if t.Amount.Equal(existing.Amount) && t.Currency == existing.Currency {
		t.AmountCanonical = existing.AmountCanonical
	} else {
		canonical, err := fx.ToCanonical(ctx, s.rates, t.Amount, t.Currency, t.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		t.AmountCanonical = canonical
	}

	if err := s.store.Update(ctx, id, t); err != nil {
		return core.Transaction{}, err
	}
	t.ID = id
	s.logger.InfoContext(ctx, "Transaction updated", log.FieldTxID, id)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

// Pending lists optimistic echo entries still awaiting confirmation or
// acknowledgment.
func (s *Service) Pending() []EchoEntry {
	return s.echo.Entries()
}

// Acknowledge retracts a rejected echo entry.
func (s *Service) Acknowledge(token string) bool {
	return s.echo.Acknowledge(token)
}

// Report aggregates the filtered transactions into category totals and
// monthly net balances, converting canonical amounts into the display
// currency with the rate in force now. Stored data stays currency-agnostic;
// two reports over the same rows may differ when rates have moved.
func (s *Service) Report(ctx context.Context, f core.Filter, displayCurrency string) (Report, error) {
	display := strings.ToUpper(strings.TrimSpace(displayCurrency))
	if display == "" {
		display = core.CanonicalCurrency
	}

	// Resolve the display leg first so an unknown currency fails the same
	// way on an empty set as on a populated one.
	displayRate := decimal.NewFromInt(1)
	if display != core.CanonicalCurrency {
		rate, err := s.rates.Rate(ctx, display, time.Now())
		if err != nil {
			return Report{}, err
		}
		if rate.IsZero() {
			return Report{}, fmt.Errorf("display %s: zero rate: %w", display, fx.ErrRateUnavailable)
		}
		displayRate = rate
	}

	txs, err := s.store.ListAll(ctx, f)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		DisplayCurrency: display,
		CategoryTotals:  core.CategoryTotals(txs),
		MonthlyBalances: core.MonthlyBalances(txs),
		Summary:         core.Summarize(txs),
		Transactions:    txs,
	}
	for i := range report.CategoryTotals {
		report.CategoryTotals[i].Total = report.CategoryTotals[i].Total.Div(displayRate)
	}
	for i := range report.MonthlyBalances {
		report.MonthlyBalances[i].Net = report.MonthlyBalances[i].Net.Div(displayRate)
	}
	report.NetDisplay = report.Summary.Net.Div(displayRate)

	s.logger.DebugContext(ctx, "Report generated",
		log.FieldCurrency, display, log.FieldRows, len(txs))
	return report, nil
}

// Export renders the filtered transactions in the requested format.
func (s *Service) Export(ctx context.Context, f core.Filter, format transfer.Format) ([]byte, error) {
	txs, err := s.store.ListAll(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := transfer.Export(txs, format)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		log.FieldFormat, string(format), log.FieldRows, len(txs))
	return data, nil
}

// Import decodes a batch and persists the valid rows. Rows already present
// in the store (same date, amount, currency, category, kind and description)
// are skipped; rows without a canonical amount get one backfilled with the
// current rate. Row-level failures are collected, not fatal.
func (s *Service) Import(ctx context.Context, data []byte, format transfer.Format) (ImportResult, error) {
	rows, rowErrs := transfer.Import(data, format)
	result := ImportResult{RowErrors: rowErrs}

	existing, err := s.store.ListAll(ctx, core.Filter{})
	if err != nil {
		return ImportResult{}, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[importSignature(t)] = struct{}{}
	}

	for _, row := range rows {
		t := row.Tx
		sig := importSignature(t)
		if _, dup := seen[sig]; dup {
			result.Skipped++
			continue
		}
		if t.AmountCanonical.IsZero() {
			canonical, err := fx.ToCanonical(ctx, s.rates, t.Amount, t.Currency, t.Date)
			if err != nil {
				result.RowErrors = append(result.RowErrors, transfer.RowError{Row: row.N, Err: err})
				continue
			}
			t.AmountCanonical = canonical
		}
		t.ID = 0
		id, err := s.store.Add(ctx, t)
		if err != nil {
			result.RowErrors = append(result.RowErrors, transfer.RowError{Row: row.N, Err: err})
			continue
		}
		t.ID = id
		seen[sig] = struct{}{}
		result.Imported = append(result.Imported, t)
	}

	s.logger.InfoContext(ctx, "Import finished",
		log.FieldFormat, string(format),
		"imported", len(result.Imported),
		"skipped", result.Skipped,
		"row_errors", len(result.RowErrors))
	return result, nil
}

func importSignature(t core.Transaction) string {
	return strings.Join([]string{
		t.Date.Format("2006-01-02"),
		t.Amount.String(),
		t.Currency,
		t.Category,
		string(t.Kind),
		t.Description,
	}, "|")
}
