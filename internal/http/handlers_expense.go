package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"
)

// expenseRequest is the JSON write shape. Amount is a decimal string to keep
// currency values out of float64 on the wire.
type expenseRequest struct {
	Amount      string `json:"amount"`
	CategoryID  int64  `json:"categoryId"`
	Merchant    string `json:"merchant"`
	Description string `json:"description"`
	Date        string `json:"date"`
	ReceiptURL  string `json:"receiptUrl"`
	Notes       string `json:"notes"`
	Source      string `json:"source"`
}

func (req expenseRequest) toExpense(userID int64) (core.Expense, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	date := time.Now()
	if v := strings.TrimSpace(req.Date); v != "" {
		date, err = time.ParseInLocation(time.RFC3339, v, time.Local)
		if err != nil {
			date, err = time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				return core.Expense{}, core.ErrInvalidDate
			}
		}
	}

	return core.Expense{
		UserID:      userID,
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Merchant:    sanitizeInput(req.Merchant),
		Description: sanitizeInput(req.Description),
		Date:        date,
		ReceiptURL:  strings.TrimSpace(req.ReceiptURL),
		Notes:       sanitizeInput(req.Notes),
		Source:      sanitizeInput(req.Source),
	}, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseMonthParams(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	items, err := s.aggregator.ExpensesForMonth(r.Context(), s.userID, year, month)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if items == nil {
		items = []core.ExpenseWithCategory{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	e, err := req.toExpense(s.userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}

	slog.InfoContext(r.Context(), "Expense created",
		"id", created.ID, "amount", created.Amount.String(), "category_id", created.CategoryID)
	writeJSON(w, http.StatusCreated, created)
}

// handleExpenseByID serves GET/PUT/DELETE on /api/expenses/{id}.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		badRequest(w, "invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		item, err := s.expenses.GetExpense(r.Context(), s.userID, id)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, item)

	case http.MethodPut:
		var req expenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		e, err := req.toExpense(s.userID)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		e.ID = id
		updated, err := s.expenses.UpdateExpense(r.Context(), e)
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(r.Context(), s.userID, id); err != nil {
			writeError(r.Context(), w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT, DELETE")
	}
}
