package http

import (
	"net/http"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

type createAccountRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	BalanceCents int64  `json:"balance_cents"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	accounts, err := s.store.ListAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req createAccountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	account, err := s.engine.CreateAccount(r.Context(), userID, core.Account{
		Name:    req.Name,
		Type:    req.Type,
		Balance: core.Money{Cents: req.BalanceCents},
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, toAccountJSON(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	if err := s.engine.DeleteAccount(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateUser(userID)
	writeJSON(w, http.StatusNoContent, nil)
}
