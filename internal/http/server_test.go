package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	st := memory.New(nil)
	svc := services.NewExpenseService(st, nil)
	agg := services.NewAggregator(st, 2000)
	s := NewServer(":0", svc, agg, 1)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, st
}

func doJSON(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func createExpense(t *testing.T, s *Server, amount, date string, categoryID int64) core.Expense {
	t.Helper()
	body := fmt.Sprintf(`{"amount":%q,"categoryId":%d,"date":%q,"merchant":"ACME"}`, amount, categoryID, date)
	rec := doJSON(t, s, http.MethodPost, "/api/expenses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body)
	}
	var created core.Expense
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created expense: %v", err)
	}
	return created
}

func TestCreateAndListExpenses(t *testing.T) {
	s, _ := newTestServer(t)

	createExpense(t, s, "10.00", "2024-02-05", 1)
	createExpense(t, s, "5.50", "2024-02-20", 1)
	createExpense(t, s, "7.25", "2024-02-10", 2)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses?year=2024&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d: %s", rec.Code, rec.Body)
	}
	var items []core.ExpenseWithCategory
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(items))
	}
	// Most recent first.
	for i := 1; i < len(items); i++ {
		if items[i].Date.After(items[i-1].Date) {
			t.Fatalf("list not sorted date descending")
		}
	}
	if items[0].Category.Name == "" {
		t.Fatalf("category not embedded: %+v", items[0])
	}
}

func TestListExpensesEmptyWindowIsEmptyArray(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/expenses?year=2030&month=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list returned %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestCreateExpenseInvalidArguments(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"bad amount", `{"amount":"zero","categoryId":1}`},
		{"zero amount", `{"amount":"0","categoryId":1}`},
		{"unknown category", `{"amount":"5.00","categoryId":999}`},
		{"bad date", `{"amount":"5.00","categoryId":1,"date":"02/05/2024"}`},
		{"garbage body", `{not json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/expenses", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestUpdateAndDeleteExpense(t *testing.T) {
	s, _ := newTestServer(t)
	created := createExpense(t, s, "10.00", "2024-02-05", 1)

	rec := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/expenses/%d", created.ID),
		`{"amount":"12.50","categoryId":2,"date":"2024-02-06"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete returned %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/expenses/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d", rec.Code)
	}
}

func TestExpenseByIDInvalidID(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/expenses/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestCategoryTotalsMonthMode(t *testing.T) {
	s, _ := newTestServer(t)
	createExpense(t, s, "10.00", "2024-02-05", 1)
	createExpense(t, s, "5.50", "2024-02-20", 1)
	createExpense(t, s, "7.25", "2024-02-10", 2)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses/totals?year=2024&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("totals returned %d: %s", rec.Code, rec.Body)
	}
	var totals []core.CategoryTotal
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("expected 2 totals, got %d", len(totals))
	}
	if totals[0].Total.String() != "15.5" || totals[1].Total.String() != "7.25" {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestCategoryTotalsUnknownPeriod(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/expenses/totals?period=quarter", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown period, got %d: %s", rec.Code, rec.Body)
	}
}

func TestPeriodSummaryMonthMode(t *testing.T) {
	s, _ := newTestServer(t)
	createExpense(t, s, "10.00", "2024-02-05", 1)
	createExpense(t, s, "5.50", "2024-02-20", 1)
	createExpense(t, s, "7.25", "2024-02-10", 2)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses/summary?year=2024&month=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body)
	}
	var sum core.PeriodSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Total != 22.75 || sum.ExpenseCount != 3 || sum.Budget != 2000 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestPeriodSummaryPeriodModeEchoesDate(t *testing.T) {
	s, _ := newTestServer(t)
	day := time.Date(2024, 2, 14, 0, 0, 0, 0, time.Local).Format("2006-01-02")
	createExpense(t, s, "50.00", day, 1)

	rec := doJSON(t, s, http.MethodGet, "/api/expenses/summary?period=day&date="+day, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary returned %d: %s", rec.Code, rec.Body)
	}
	var sum core.PeriodSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.Period != core.PeriodDay || sum.Date != day {
		t.Fatalf("period mode identifiers missing: %+v", sum)
	}
	if sum.Total != 50 || sum.ChangePercent != 0 {
		t.Fatalf("unexpected summary values: %+v", sum)
	}
}

func TestCategoriesServedAndCached(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < 2; i++ {
		rec := doJSON(t, s, http.MethodGet, "/api/categories", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("categories returned %d", rec.Code)
		}
		var cats []core.Category
		if err := json.Unmarshal(rec.Body.Bytes(), &cats); err != nil {
			t.Fatalf("decode categories: %v", err)
		}
		if len(cats) != len(core.DefaultCategories()) {
			t.Fatalf("expected default set, got %d", len(cats))
		}
	}
	if s.categoryCache.Size() != 1 {
		t.Fatalf("category list not cached")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/expenses/summary", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
	}
}
