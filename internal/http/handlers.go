package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"moneta/internal/core"
	"moneta/internal/fx"
	"moneta/internal/log"
	"moneta/internal/storage"
	"moneta/internal/transfer"
)

// Amounts travel as strings so no precision is lost in float decoding.
type transactionPayload struct {
	ID              int64  `json:"id,omitempty"`
	Date            string `json:"date"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	AmountCanonical string `json:"amount_canonical,omitempty"`
	Category        string `json:"category,omitempty"`
	Kind            string `json:"kind"`
	Description     string `json:"description,omitempty"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type categoryTotalPayload struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type monthlyBalancePayload struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Net   string `json:"net"`
}

type currencyTotalPayload struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
}

// summaryPayload stays in canonical units regardless of display currency.
type summaryPayload struct {
	Net        string                 `json:"net"`
	Income     string                 `json:"income"`
	Expense    string                 `json:"expense"`
	ByCurrency []currencyTotalPayload `json:"by_currency"`
}

type reportPayload struct {
	DisplayCurrency string                  `json:"display_currency"`
	Net             string                  `json:"net"`
	Summary         summaryPayload          `json:"summary"`
	CategoryTotals  []categoryTotalPayload  `json:"category_totals"`
	MonthlyBalances []monthlyBalancePayload `json:"monthly_balances"`
	Transactions    []transactionPayload    `json:"transactions"`
}

type echoEntryPayload struct {
	Token       string             `json:"token"`
	State       string             `json:"state"`
	Reason      string             `json:"reason,omitempty"`
	Started     time.Time          `json:"started"`
	Transaction transactionPayload `json:"transaction"`
}

type importResultPayload struct {
	Imported  []transactionPayload `json:"imported"`
	Skipped   int                  `json:"skipped"`
	RowErrors []rowErrorPayload    `json:"row_errors"`
}

type rowErrorPayload struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

func toPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:              t.ID,
		Date:            t.Date.Format("2006-01-02"),
		Amount:          t.Amount.String(),
		Currency:        t.Currency,
		AmountCanonical: t.AmountCanonical.String(),
		Category:        t.Category,
		Kind:            string(t.Kind),
		Description:     t.Description,
	}
}

func fromPayload(p transactionPayload) (core.Transaction, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          p.ID,
		Date:        date,
		Amount:      amount,
		Currency:    p.Currency,
		Category:    p.Category,
		Kind:        core.Kind(p.Kind),
		Description: p.Description,
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fx.ErrRateUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrDescriptionTooLong):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorPayload{Error: err.Error()})
}

func parseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter
	if v := q.Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.From = d
	}
	if v := q.Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Filter{}, err
		}
		f.To = d
	}
	f.Category = q.Get("category")
	if v := q.Get("kind"); v != "" {
		k := core.Kind(v)
		if k != core.Expense && k != core.Income {
			return core.Filter{}, core.ErrInvalidKind
		}
		f.Kind = k
	}
	return f, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var p transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	t, err := fromPayload(p)
	if err != nil {
		writeError(w, err)
		return
	}
	created, err := s.svc.Add(r.Context(), t)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed", log.FieldError, err)
		writeError(w, err)
		return
	}
	s.reportCache.Purge()
	writeJSON(w, http.StatusCreated, toPayload(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.svc.List(r.Context(), f)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", log.FieldError, err)
		writeError(w, err)
		return
	}
	out := make([]transactionPayload, 0, len(items))
	for _, t := range items {
		out = append(out, toPayload(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid transaction id"})
		return
	}
	t, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(t))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid transaction id"})
		return
	}
	var p transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid request body"})
		return
	}
	t, err := fromPayload(p)
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.svc.Update(r.Context(), id, t)
	if err != nil {
		writeError(w, err)
		return
	}
	s.reportCache.Purge()
	writeJSON(w, http.StatusOK, toPayload(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: "invalid transaction id"})
		return
	}
	if err := s.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	s.reportCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePendingEntries(w http.ResponseWriter, r *http.Request) {
	entries := s.svc.Pending()
	out := make([]echoEntryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, echoEntryPayload{
			Token:       e.Token,
			State:       string(e.State),
			Reason:      e.Reason,
			Started:     e.Started,
			Transaction: toPayload(e.Tx),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Acknowledge(r.PathValue("token")) {
		writeJSON(w, http.StatusNotFound, errorPayload{Error: "no rejected entry for token"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, err)
		return
	}
	currency := q.Get("currency")
	if currency == "" {
		currency = s.displayCurrency
	}

	key := currency + "|" + q.Encode()
	report, found := s.reportCache.Get(key)
	if !found {
		report, err = s.svc.Report(r.Context(), f, currency)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Report failed", log.FieldError, err, log.FieldCurrency, currency)
			writeError(w, err)
			return
		}
		s.reportCache.Set(key, report)
	} else {
		s.logger.DebugContext(r.Context(), "Report cache hit", log.FieldCurrency, currency)
	}

	out := reportPayload{
		DisplayCurrency: report.DisplayCurrency,
		Net:             report.NetDisplay.String(),
		Summary: summaryPayload{
			Net:        report.Summary.Net.String(),
			Income:     report.Summary.Income.String(),
			Expense:    report.Summary.Expense.String(),
			ByCurrency: make([]currencyTotalPayload, 0, len(report.Summary.ByCurrency)),
		},
		CategoryTotals:  make([]categoryTotalPayload, 0, len(report.CategoryTotals)),
		MonthlyBalances: make([]monthlyBalancePayload, 0, len(report.MonthlyBalances)),
		Transactions:    make([]transactionPayload, 0, len(report.Transactions)),
	}
	for _, ct := range report.Summary.ByCurrency {
		out.Summary.ByCurrency = append(out.Summary.ByCurrency, currencyTotalPayload{Currency: ct.Currency, Total: ct.Total.String()})
	}
	for _, ct := range report.CategoryTotals {
		out.CategoryTotals = append(out.CategoryTotals, categoryTotalPayload{Category: ct.Category, Total: ct.Total.String()})
	}
	for _, mb := range report.MonthlyBalances {
		out.MonthlyBalances = append(out.MonthlyBalances, monthlyBalancePayload{Year: mb.Year, Month: int(mb.Month), Net: mb.Net.String()})
	}
	for _, t := range report.Transactions {
		out.Transactions = append(out.Transactions, toPayload(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorPayload{Error: "request body too large"})
		return
	}
	result, err := s.svc.Import(r.Context(), body, format)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Import failed", log.FieldError, err, log.FieldFormat, string(format))
		writeError(w, err)
		return
	}
	s.reportCache.Purge()

	out := importResultPayload{
		Imported:  make([]transactionPayload, 0, len(result.Imported)),
		Skipped:   result.Skipped,
		RowErrors: make([]rowErrorPayload, 0, len(result.RowErrors)),
	}
	for _, t := range result.Imported {
		out.Imported = append(out.Imported, toPayload(t))
	}
	for _, re := range result.RowErrors {
		out.RowErrors = append(out.RowErrors, rowErrorPayload{Row: re.Row, Error: re.Err.Error()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := transfer.ParseFormat(q.Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error()})
		return
	}
	f, err := parseFilter(q)
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := s.svc.Export(r.Context(), f, format)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Export failed", log.FieldError, err, log.FieldFormat, string(format))
		writeError(w, err)
		return
	}
	switch format {
	case transfer.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	case transfer.FormatJSON:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
