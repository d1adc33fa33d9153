package http

import (
	"net/http"
	"strings"

	"tally/internal/core"
)

// handleCategoryTotals serves the per-category breakdown for a window. Two
// entry modes: period+date when a period parameter is present, explicit
// year+month otherwise.
func (s *Server) handleCategoryTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	query := r.URL.Query()

	var (
		totals []core.CategoryTotal
		err    error
	)
	if periodStr := strings.TrimSpace(query.Get("period")); periodStr != "" {
		period, perr := core.ParsePeriod(periodStr)
		if perr != nil {
			writeError(r.Context(), w, perr)
			return
		}
		ref, perr := parseReferenceDate(query)
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		window, perr := core.ResolveWindow(period, ref)
		if perr != nil {
			writeError(r.Context(), w, perr)
			return
		}
		totals, err = s.aggregator.CategoryTotalsForWindow(r.Context(), s.userID, window)
	} else {
		year, month, perr := parseMonthParams(query)
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		totals, err = s.aggregator.CategoryTotalsForMonth(r.Context(), s.userID, year, month)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if totals == nil {
		totals = []core.CategoryTotal{}
	}
	writeJSON(w, http.StatusOK, totals)
}

// handlePeriodSummary serves the window summary with period-over-period delta.
// Falls back to explicit year+month mode when no period parameter is given.
func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	query := r.URL.Query()

	var (
		summary core.PeriodSummary
		err     error
	)
	if periodStr := strings.TrimSpace(query.Get("period")); periodStr != "" {
		period, perr := core.ParsePeriod(periodStr)
		if perr != nil {
			writeError(r.Context(), w, perr)
			return
		}
		ref, perr := parseReferenceDate(query)
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		summary, err = s.aggregator.PeriodSummary(r.Context(), s.userID, period, ref)
	} else {
		year, month, perr := parseMonthParams(query)
		if perr != nil {
			badRequest(w, perr.Error())
			return
		}
		summary, err = s.aggregator.MonthSummary(r.Context(), s.userID, year, month)
	}
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
