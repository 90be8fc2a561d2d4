package storage

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"

	"moneta/internal/core"
)

// MemStore is an in-memory store with the same contract as SQLiteStore.
// It backs tests and the memory data backend.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Transaction
}

func NewMemStore() *MemStore {
	return &MemStore{nextID: 1}
}

func (s *MemStore) Add(_ context.Context, t core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.items = append(s.items, t)
	return t.ID, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.items {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, ErrNotFound)
}

func (s *MemStore) List(ctx context.Context, f core.Filter) iter.Seq2[core.Transaction, error] {
	return func(yield func(core.Transaction, error) bool) {
		matched, _ := s.ListAll(ctx, f)
		for _, t := range matched {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (s *MemStore) ListAll(_ context.Context, f core.Filter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	// Date ascending, insertion order (id) breaking ties.
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) Update(_ context.Context, id int64, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			t.ID = id
			s.items[i] = t
			return nil
		}
	}
	return fmt.Errorf("update transaction %d: %w", id, ErrNotFound)
}

func (s *MemStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete transaction %d: %w", id, ErrNotFound)
}
