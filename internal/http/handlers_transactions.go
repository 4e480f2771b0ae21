package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type postTransactionRequest struct {
	Amount      string `json:"amount"` // decimal string, e.g. "42.50"
	Type        string `json:"type"`
	Category    string `json:"category"`
	AccountID   string `json:"account_id"`
	ToAccountID string `json:"to_account_id"`
	Date        string `json:"date"` // RFC 3339 or "2006-01-02"
	Description string `json:"description"`
	ServiceFee  string `json:"service_fee"`
}

func (req postTransactionRequest) toIntent() (core.Intent, error) {
	amountCents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Intent{}, err
	}

	var feeCents int64
	if req.ServiceFee != "" {
		feeCents, err = core.ParseDecimalToCents(req.ServiceFee)
		if err != nil {
			return core.Intent{}, fmt.Errorf("%w: invalid service fee", core.ErrValidation)
		}
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return core.Intent{}, err
	}

	return core.Intent{
		Amount:      core.Money{Cents: amountCents},
		Type:        core.TransactionType(req.Type),
		Category:    core.Category(req.Category),
		AccountID:   req.AccountID,
		ToAccountID: req.ToAccountID,
		Date:        date,
		Description: req.Description,
		ServiceFee:  core.Money{Cents: feeCents},
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: date is required", core.ErrValidation)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid date %q", core.ErrValidation, s)
}

func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req postTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	intent, err := req.toIntent()
	if err != nil {
		writeError(w, r, err)
		return
	}

	txn, err := s.engine.PostTransaction(r.Context(), userID, intent)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, toTransactionJSON(txn))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("%w: invalid limit %q", core.ErrValidation, v))
			return
		}
		limit = n
	}

	txns, err := s.store.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionListJSON(txns))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	txn, err := s.store.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(txn))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.engine.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusNoContent, nil)
}
