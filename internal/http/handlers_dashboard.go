package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// yearMonth pulls year/month query params, defaulting to the current month.
func yearMonth(r *http.Request) (int, int, error) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1970 || n > 9999 {
			return 0, 0, fmt.Errorf("%w: invalid year %q", core.ErrValidation, v)
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return 0, 0, fmt.Errorf("%w: invalid month %q", core.ErrValidation, v)
		}
		month = n
	}
	return year, month, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	cacheKey := fmt.Sprintf("summary:%s:%04d-%02d", userID, year, month)
	if summary, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toDashboardJSON(summary))
		return
	}

	accounts, err := s.store.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	txns, err := s.store.ListTransactionsByMonth(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	summary := core.Summarize(accounts, txns, year, month)
	s.summaryCache.Set(cacheKey, summary)
	writeJSON(w, http.StatusOK, toDashboardJSON(summary))
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	year, month, err := yearMonth(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txns, err := s.store.ListTransactionsByMonth(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCalendarJSON(core.CalendarMonth(txns, year, month)))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{Name: string(c), Color: c.Color(), Icon: c.Icon()})
	}
	writeJSON(w, http.StatusOK, out)
}
