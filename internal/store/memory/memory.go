// Package memory provides the in-memory ExpenseStore backend used by tests
// and as the default data backend when no database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tally/internal/core"
)

// Store keeps all records behind a single RWMutex so writers are atomic with
// respect to concurrent readers: a reader observes either the pre-write or
// the post-write state of a record, never a partial update.
type Store struct {
	mu         sync.RWMutex
	categories []core.Category
	expenses   map[int64]core.Expense
	nextID     int64
}

// New returns a store seeded with the given categories. When cats is nil the
// fixed default set is used. The id sequence is owned by the store instance,
// not package state.
func New(cats []core.Category) *Store {
	if cats == nil {
		cats = core.DefaultCategories()
	}
	return &Store{
		categories: append([]core.Category(nil), cats...),
		expenses:   make(map[int64]core.Expense),
		nextID:     1,
	}
}

func (s *Store) ListExpenses(_ context.Context, userID int64, w core.Window) ([]core.ExpenseWithCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ExpenseWithCategory
	for _, e := range s.expenses {
		if e.UserID != userID || !w.Contains(e.Date) {
			continue
		}
		cat, ok := s.categoryByID(e.CategoryID)
		if !ok {
			return nil, fmt.Errorf("expense %d: %w", e.ID, core.ErrCategoryNotFound)
		}
		out = append(out, core.ExpenseWithCategory{Expense: e, Category: cat})
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id int64) (core.ExpenseWithCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.ExpenseWithCategory{}, core.ErrExpenseNotFound
	}
	cat, ok := s.categoryByID(e.CategoryID)
	if !ok {
		return core.ExpenseWithCategory{}, fmt.Errorf("expense %d: %w", id, core.ErrCategoryNotFound)
	}
	return core.ExpenseWithCategory{Expense: e, Category: cat}, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categoryByID(e.CategoryID); !ok {
		return core.Expense{}, fmt.Errorf("category %d: %w", e.CategoryID, core.ErrCategoryNotFound)
	}
	e.ID = s.nextID
	s.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.expenses[e.ID]
	if !ok || prev.UserID != e.UserID {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if _, ok := s.categoryByID(e.CategoryID); !ok {
		return core.Expense{}, fmt.Errorf("category %d: %w", e.CategoryID, core.ErrCategoryNotFound)
	}
	e.CreatedAt = prev.CreatedAt
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) Close() error { return nil }

// caller holds at least a read lock
func (s *Store) categoryByID(id int64) (core.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}
