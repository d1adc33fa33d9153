package core

import "github.com/shopspring/decimal"

// CategoryTotal is the decimal sum of expense amounts for one category within
// a window, with the category metadata attached for display.
type CategoryTotal struct {
	CategoryID   int64           `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"`
	Color        string          `json:"color"`
	Icon         string          `json:"icon"`
}

// PeriodSummary is a compact summary for one resolved window. Either Period
// and Date are set (period mode) or Year and Month are (explicit month mode).
type PeriodSummary struct {
	Total         float64 `json:"total"`
	ExpenseCount  int     `json:"expenseCount"`
	ChangePercent float64 `json:"changePercent"`
	Budget        float64 `json:"budget"`
	Period        Period  `json:"period,omitempty"`
	Date          string  `json:"date,omitempty"`
	Year          int     `json:"year,omitempty"`
	Month         int     `json:"month,omitempty"`
}

// ChangePercent computes the relative difference between a window's total and
// the preceding window's total, as a percentage rounded half-up to 2 decimal
// places. A zero or negative previous total yields 0, never a division error.
func ChangePercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}
