// Package services provides the aggregation engine and expense orchestration
// on top of the storage port.
package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/store"
)

// Aggregator derives per-category breakdowns and window summaries from
// range-filtered store reads. Every operation is a stateless pure function of
// the store snapshot and its parameters; nothing is cached.
type Aggregator struct {
	store  store.ExpenseStore
	budget float64
}

// NewAggregator wires the engine to a store. budget is the constant placeholder
// attached to every summary; it is configuration, never computed.
func NewAggregator(st store.ExpenseStore, budget float64) *Aggregator {
	return &Aggregator{store: st, budget: budget}
}

// ExpensesForWindow returns the user's expenses inside the window sorted by
// date descending, ties broken by id descending so the order is total. This
// ordering is the public contract consumed by summaries and the listing
// endpoint alike.
func (a *Aggregator) ExpensesForWindow(ctx context.Context, userID int64, w core.Window) ([]core.ExpenseWithCategory, error) {
	items, err := a.store.ListExpenses(ctx, userID, w)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.After(items[j].Date)
		}
		return items[i].ID > items[j].ID
	})
	return items, nil
}

// ExpensesForMonth is the explicit year+month entry mode of ExpensesForWindow.
func (a *Aggregator) ExpensesForMonth(ctx context.Context, userID int64, year, month int) ([]core.ExpenseWithCategory, error) {
	return a.ExpensesForWindow(ctx, userID, core.MonthWindow(year, month, time.Local))
}

// CategoryTotalsForWindow sums amounts per category present in the window and
// returns the breakdown sorted by total descending (name ascending on equal
// totals). Categories with no matching expense are omitted rather than
// returned with a zero total.
func (a *Aggregator) CategoryTotalsForWindow(ctx context.Context, userID int64, w core.Window) ([]core.CategoryTotal, error) {
	items, err := a.ExpensesForWindow(ctx, userID, w)
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]*core.CategoryTotal)
	for _, e := range items {
		t, ok := totals[e.CategoryID]
		if !ok {
			t = &core.CategoryTotal{
				CategoryID:   e.Category.ID,
				CategoryName: e.Category.Name,
				Color:        e.Category.Color,
				Icon:         e.Category.Icon,
			}
			totals[e.CategoryID] = t
		}
		t.Total = t.Total.Add(e.Amount)
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out, nil
}

// CategoryTotalsForMonth is the explicit year+month entry mode of
// CategoryTotalsForWindow.
func (a *Aggregator) CategoryTotalsForMonth(ctx context.Context, userID int64, year, month int) ([]core.CategoryTotal, error) {
	return a.CategoryTotalsForWindow(ctx, userID, core.MonthWindow(year, month, time.Local))
}

// PeriodSummary computes the summary for the window containing ref and the
// period-over-period delta against the immediately preceding window of equal
// length.
func (a *Aggregator) PeriodSummary(ctx context.Context, userID int64, p core.Period, ref time.Time) (core.PeriodSummary, error) {
	current, err := core.ResolveWindow(p, ref)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	previous, err := core.PreviousWindow(p, ref)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	total, count, err := a.windowTotal(ctx, userID, current)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	prevTotal, _, err := a.windowTotal(ctx, userID, previous)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	return core.PeriodSummary{
		Total:         total.InexactFloat64(),
		ExpenseCount:  count,
		ChangePercent: core.ChangePercent(total, prevTotal).InexactFloat64(),
		Budget:        a.budget,
		Period:        p,
		Date:          ref.Format("2006-01-02"),
	}, nil
}

// MonthSummary is the explicit year+month entry mode, comparing against the
// previous calendar month with year rollover (January against December of the
// prior year).
func (a *Aggregator) MonthSummary(ctx context.Context, userID int64, year, month int) (core.PeriodSummary, error) {
	current := core.MonthWindow(year, month, time.Local)
	prevYear, prevMonth := core.PreviousMonth(year, month)
	previous := core.MonthWindow(prevYear, prevMonth, time.Local)

	total, count, err := a.windowTotal(ctx, userID, current)
	if err != nil {
		return core.PeriodSummary{}, err
	}
	prevTotal, _, err := a.windowTotal(ctx, userID, previous)
	if err != nil {
		return core.PeriodSummary{}, err
	}

	return core.PeriodSummary{
		Total:         total.InexactFloat64(),
		ExpenseCount:  count,
		ChangePercent: core.ChangePercent(total, prevTotal).InexactFloat64(),
		Budget:        a.budget,
		Year:          year,
		Month:         month,
	}, nil
}

func (a *Aggregator) windowTotal(ctx context.Context, userID int64, w core.Window) (decimal.Decimal, int, error) {
	items, err := a.ExpensesForWindow(ctx, userID, w)
	if err != nil {
		return decimal.Zero, 0, err
	}
	total := decimal.Zero
	for _, e := range items {
		total = total.Add(e.Amount)
	}
	return total, len(items), nil
}
