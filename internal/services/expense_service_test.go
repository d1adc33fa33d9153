package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store/memory"
)

type recordingPublisher struct {
	events []string
	fail   bool
}

func (p *recordingPublisher) PublishExpenseChange(_ context.Context, action string, id int64) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.events = append(p.events, action)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newService(pub ChangePublisher) *ExpenseService {
	return NewExpenseService(memory.New(nil), pub)
}

func draft() core.Expense {
	return core.Expense{
		UserID:     1,
		Amount:     decimal.RequireFromString("10.00"),
		CategoryID: 1,
		Date:       time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateExpenseDefaultsSourceAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)

	created, err := svc.CreateExpense(context.Background(), draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Source != core.SourceManual {
		t.Fatalf("source not defaulted: %q", created.Source)
	}
	if len(pub.events) != 1 || pub.events[0] != "created" {
		t.Fatalf("unexpected events: %v", pub.events)
	}
}

func TestCreateExpensePublishFailureDoesNotFail(t *testing.T) {
	svc := newService(&recordingPublisher{fail: true})

	if _, err := svc.CreateExpense(context.Background(), draft()); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
}

func TestCreateExpenseInvalidArgumentBeforeStore(t *testing.T) {
	svc := newService(nil)

	bad := draft()
	bad.Amount = decimal.Zero
	if _, err := svc.CreateExpense(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestUpdateExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	created.Amount = decimal.RequireFromString("12.50")
	if _, err := svc.UpdateExpense(ctx, created); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(pub.events) != 2 || pub.events[1] != "updated" {
		t.Fatalf("unexpected events: %v", pub.events)
	}
}

func TestUpdateExpenseNotFound(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)

	missing := draft()
	missing.ID = 42
	if _, err := svc.UpdateExpense(context.Background(), missing); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Fatalf("no event should be published for a no-op: %v", pub.events)
	}
}

func TestDeleteExpense(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newService(pub)
	ctx := context.Background()

	created, err := svc.CreateExpense(ctx, draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.DeleteExpense(ctx, 1, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteExpense(ctx, 1, created.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected ErrExpenseNotFound on repeat delete, got %v", err)
	}
	if _, err := svc.GetExpense(ctx, 1, created.ID); !errors.Is(err, core.ErrExpenseNotFound) {
		t.Fatalf("expected hard delete, got %v", err)
	}
}

func TestCloseWithNilPublisher(t *testing.T) {
	svc := newService(nil)
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
