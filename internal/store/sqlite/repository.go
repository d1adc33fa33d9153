// Package sqlite provides the persistent ExpenseStore backend on top of
// modernc.org/sqlite, with schema and category seed managed by embedded
// golang-migrate migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"tally/internal/core"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `e.id, e.user_id, e.amount, e.category_id, e.merchant, e.description,
	e.date_ms, e.receipt_url, e.notes, e.source, e.created_ms,
	c.id, c.name, c.icon, c.color`

func (r *Repository) ListExpenses(ctx context.Context, userID int64, w core.Window) ([]core.ExpenseWithCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = ? AND e.date_ms BETWEEN ? AND ?`,
		userID, w.Start.UnixMilli(), w.End.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseWithCategory
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) GetExpense(ctx context.Context, userID, id int64) (core.ExpenseWithCategory, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.id = ? AND e.user_id = ?`, id, userID)

	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseWithCategory{}, core.ErrExpenseNotFound
	}
	return e, err
}

func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := categoryExists(ctx, tx, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (user_id, amount, category_id, merchant, description,
			date_ms, receipt_url, notes, source, created_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.String(), e.CategoryID, e.Merchant, e.Description,
		e.Date.UnixMilli(), e.ReceiptURL, e.Notes, e.Source, e.CreatedAt.UnixMilli())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit: %w", err)
	}

	e.ID = id
	slog.InfoContext(ctx, "Expense saved to sqlite",
		"id", e.ID, "user_id", e.UserID, "amount", e.Amount.String(), "category_id", e.CategoryID)
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := categoryExists(ctx, tx, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	// created_ms is deliberately left untouched.
	res, err := tx.ExecContext(ctx, `
		UPDATE expenses
		SET amount = ?, category_id = ?, merchant = ?, description = ?,
			date_ms = ?, receipt_url = ?, notes = ?, source = ?
		WHERE id = ? AND user_id = ?`,
		e.Amount.String(), e.CategoryID, e.Merchant, e.Description,
		e.Date.UnixMilli(), e.ReceiptURL, e.Notes, e.Source, e.ID, e.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Expense{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Expense{}, core.ErrExpenseNotFound
	}

	var createdMS int64
	if err := tx.QueryRowContext(ctx,
		`SELECT created_ms FROM expenses WHERE id = ?`, e.ID).Scan(&createdMS); err != nil {
		return core.Expense{}, fmt.Errorf("reload created_ms: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit: %w", err)
	}

	e.CreatedAt = time.UnixMilli(createdMS)
	return e, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrExpenseNotFound
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id, "user_id", userID)
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, icon, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func categoryExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("category %d: %w", id, core.ErrCategoryNotFound)
	}
	if err != nil {
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.ExpenseWithCategory, error) {
	var (
		e                  core.ExpenseWithCategory
		amount             string
		dateMS, createdMS  int64
	)
	err := row.Scan(&e.ID, &e.UserID, &amount, &e.CategoryID, &e.Merchant, &e.Description,
		&dateMS, &e.ReceiptURL, &e.Notes, &e.Source, &createdMS,
		&e.Category.ID, &e.Category.Name, &e.Category.Icon, &e.Category.Color)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ExpenseWithCategory{}, err
		}
		return core.ExpenseWithCategory{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return core.ExpenseWithCategory{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	e.Date = time.UnixMilli(dateMS)
	e.CreatedAt = time.UnixMilli(createdMS)
	return e, nil
}
