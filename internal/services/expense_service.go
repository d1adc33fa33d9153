package services

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
	"tally/internal/store"
)

// ChangePublisher emits expense change events for downstream consumers.
// *amqp.Client satisfies it; a nil publisher disables eventing.
type ChangePublisher interface {
	PublishExpenseChange(ctx context.Context, action string, id int64) error
	Close() error
}

// ExpenseService orchestrates expense writes: validation, store access and
// change-event publication.
type ExpenseService struct {
	store     store.ExpenseStore
	publisher ChangePublisher
}

func NewExpenseService(st store.ExpenseStore, publisher ChangePublisher) *ExpenseService {
	return &ExpenseService{store: st, publisher: publisher}
}

// CreateExpense persists a new expense and publishes a created event. The
// source tag defaults to "manual" when absent. Publish failures are logged,
// not surfaced: the expense is already durably stored.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publish(ctx, "created", created.ID)
	return created, nil
}

// UpdateExpense replaces an existing expense. Missing ids surface as
// core.ErrExpenseNotFound untouched so callers can map them to a not-found
// response.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.Source == "" {
		e.Source = core.SourceManual
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	s.publish(ctx, "updated", updated.ID)
	return updated, nil
}

// DeleteExpense removes an expense permanently and publishes a deleted event.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.publish(ctx, "deleted", id)
	return nil
}

// GetExpense returns one expense joined to its category.
func (s *ExpenseService) GetExpense(ctx context.Context, userID, id int64) (core.ExpenseWithCategory, error) {
	return s.store.GetExpense(ctx, userID, id)
}

// ListCategories returns the fixed category set.
func (s *ExpenseService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *ExpenseService) publish(ctx context.Context, action string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChange(ctx, action, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense change",
			"action", action, "id", id, "error", err)
	}
}

// Close closes the store and the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
