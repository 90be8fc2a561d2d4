// Package storage persists transactions. The SQLite store is the single
// source of truth; writes are synchronous and fast-failing so callers can
// confirm or retract optimistic UI state right away.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"moneta/internal/core"
)

// ErrNotFound is returned when an operation references an id that does not
// exist in the store.
var ErrNotFound = errors.New("transaction not found")

const dateLayout = "2006-01-02"

// SQLiteStore is the durable transaction store. Amounts are persisted as
// decimal strings to keep them exact.
type SQLiteStore struct {
	db *sql.DB
}

func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add persists a transaction whose canonical amount has already been
// computed and returns the assigned identifier.
func (s *SQLiteStore) Add(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (date, amount, currency, amount_canonical, category, kind, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Date.Format(dateLayout),
		t.Amount.String(),
		t.Currency,
		t.AmountCanonical.String(),
		t.Category,
		string(t.Kind),
		t.Description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"date", t.Date.Format(dateLayout),
		"amount", t.Amount.String(),
		"currency", t.Currency,
		"kind", string(t.Kind),
		"category", t.Category)

	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// List returns a lazy, restartable sequence of matching transactions ordered
// by date ascending, insertion order breaking ties. Every range over the
// sequence re-runs the query.
func (s *SQLiteStore) List(ctx context.Context, f core.Filter) iter.Seq2[core.Transaction, error] {
	query, args := buildListQuery(f)
	return func(yield func(core.Transaction, error) bool) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(core.Transaction{}, fmt.Errorf("list transactions: %w", err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			t, err := scanTransaction(rows)
			if !yield(t, err) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.Transaction{}, fmt.Errorf("list transactions: %w", err))
		}
	}
}

// ListAll collects List into a slice.
func (s *SQLiteStore) ListAll(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	var out []core.Transaction
	for t, err := range s.List(ctx, f) {
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Update replaces the stored fields of an existing transaction.
func (s *SQLiteStore) Update(ctx context.Context, id int64, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, amount = ?, currency = ?, amount_canonical = ?, category = ?, kind = ?, description = ?
		WHERE id = ?`,
		t.Date.Format(dateLayout),
		t.Amount.String(),
		t.Currency,
		t.AmountCanonical.String(),
		t.Category,
		string(t.Kind),
		t.Description,
		id,
	)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

const selectColumns = `SELECT id, date, amount, currency, amount_canonical, category, kind, description FROM transactions`

func buildListQuery(f core.Filter) (string, []any) {
	query := selectColumns
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(f.Kind))
	}
	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY date ASC, id ASC"
	return query, args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t                  core.Transaction
		date               string
		amount, canonical  string
		kind               string
	)
	if err := row.Scan(&t.ID, &date, &amount, &t.Currency, &canonical, &t.Category, &kind, &t.Description); err != nil {
		return core.Transaction{}, err
	}
	parsed, err := time.ParseInLocation(dateLayout, date, time.UTC)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsed
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if t.AmountCanonical, err = decimal.NewFromString(canonical); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored canonical amount %q: %w", canonical, err)
	}
	t.Kind = core.Kind(kind)
	return t, nil
}
