// Package store defines the storage-capability port the aggregation engine
// and expense service are written against. Two interchangeable backends
// implement it: memory (tests, default) and sqlite (persistent).
package store

import (
	"context"

	"tally/internal/core"
)

// ExpenseStore is the single port for expense persistence. Implementations
// only perform range-filtered reads and atomic writes; all aggregation
// happens in memory over the returned slices.
//
// Update and Delete of a missing id return core.ErrExpenseNotFound so callers
// can distinguish a no-op from a real failure. Every write must uphold the
// category foreign-key invariant and fail with core.ErrCategoryNotFound when
// the referenced category does not exist.
type ExpenseStore interface {
	// ListExpenses returns the user's expenses whose date falls inside the
	// inclusive window, each joined to its category. Order is unspecified;
	// callers sort.
	ListExpenses(ctx context.Context, userID int64, w core.Window) ([]core.ExpenseWithCategory, error)

	// GetExpense returns one expense by id scoped to the user.
	GetExpense(ctx context.Context, userID, id int64) (core.ExpenseWithCategory, error)

	// CreateExpense persists a new expense and returns it with its assigned
	// id and creation timestamp.
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)

	// UpdateExpense replaces the stored expense with the same id and user.
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)

	// DeleteExpense removes an expense permanently. Hard delete, no tombstones.
	DeleteExpense(ctx context.Context, userID, id int64) error

	// ListCategories returns all categories. The set is immutable after
	// initialization.
	ListCategories(ctx context.Context) ([]core.Category, error)

	Close() error
}
