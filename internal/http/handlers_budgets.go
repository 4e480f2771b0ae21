package http

import (
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type createBudgetRequest struct {
	Category string `json:"category"`
	Limit    string `json:"limit"` // decimal string
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createBudgetRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	limitCents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid limit", core.ErrValidation))
		return
	}

	budget, err := s.engine.SaveBudget(r.Context(), userID, core.Budget{
		Category: core.Category(req.Category),
		Limit:    core.Money{Cents: limitCents},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBudgetStatusJSON(core.BudgetStatus{Budget: budget}))
}

// handleListBudgets returns every budget with its derived spent amount for
// the current month. Spent is recomputed on each read, never stored.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())

	budgets, err := s.store.ListBudgets(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	txns, err := s.store.ListTransactionsByMonth(r.Context(), userID, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]budgetStatusJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetStatusJSON(core.EvaluateBudget(b, txns, year, month)))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.engine.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
