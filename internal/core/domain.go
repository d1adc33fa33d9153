package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SourceManual is the default ingestion tag for expenses entered by hand.
const SourceManual = "manual"

type (
	// Category is an immutable expense category. Categories are created once at
	// store initialization and referenced by id from expenses.
	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	// Expense is a single spending record for a user. Amount carries decimal
	// precision; all arithmetic on amounts goes through decimal.Decimal so
	// currency sums never touch binary floating point.
	Expense struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Amount      decimal.Decimal `json:"amount"`
		CategoryID  int64           `json:"categoryId"`
		Merchant    string          `json:"merchant,omitempty"`
		Description string          `json:"description,omitempty"`
		Date        time.Time       `json:"date"`
		ReceiptURL  string          `json:"receiptUrl,omitempty"`
		Notes       string          `json:"notes,omitempty"`
		Source      string          `json:"source"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	// ExpenseWithCategory is the read-only join projection returned by range
	// queries: an expense with its category embedded by value.
	ExpenseWithCategory struct {
		Expense
		Category Category `json:"category"`
	}
)

var (
	ErrUnknownPeriod    = errors.New("unknown period unit")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidUser      = errors.New("invalid user id")
	ErrExpenseNotFound  = errors.New("expense not found")
	ErrCategoryNotFound = errors.New("category not found")
)

func (e Expense) Validate() error {
	if e.UserID <= 0 {
		return ErrInvalidUser
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if e.CategoryID <= 0 {
		return ErrCategoryNotFound
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(e.Source) == "" {
		return errors.New("empty source tag")
	}
	return nil
}

// DefaultCategories returns the fixed category set seeded at initialization.
// The ids here are authoritative; the sqlite migration seeds the same rows.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: "Food", Icon: "🍔", Color: "#FF6B6B"},
		{ID: 2, Name: "Transport", Icon: "🚗", Color: "#4ECDC4"},
		{ID: 3, Name: "Shopping", Icon: "🛍️", Color: "#45B7D1"},
		{ID: 4, Name: "Business", Icon: "💼", Color: "#96CEB4"},
		{ID: 5, Name: "Entertainment", Icon: "🎬", Color: "#FFEAA7"},
		{ID: 6, Name: "Health", Icon: "🏥", Color: "#DDA0DD"},
		{ID: 7, Name: "Education", Icon: "📚", Color: "#98D8C8"},
		{ID: 8, Name: "Utilities", Icon: "💡", Color: "#F7DC6F"},
	}
}
