package http

import (
	"net/http"

	"carteira/internal/core"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		OpeningBalance string `json:"opening_balance,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.ledger.CreateAccount(r.Context(), core.Account{
		Name:           req.Name,
		Kind:           core.AccountKind(req.Kind),
		Active:         true,
		OpeningBalance: core.ParseAmount(req.OpeningBalance),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "1"
	accounts, err := s.ledger.ListAccounts(r.Context(), onlyActive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name           *string `json:"name,omitempty"`
		Active         *bool   `json:"active,omitempty"`
		OpeningBalance *string `json:"opening_balance,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Active != nil {
		account.Active = *req.Active
	}
	if req.OpeningBalance != nil {
		account.OpeningBalance = core.ParseAmount(*req.OpeningBalance)
	}

	if err := s.ledger.UpdateAccount(r.Context(), account); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.ledger.Balance(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{
		AccountID:           b.AccountID,
		Settled:             core.FormatAmount(b.Settled),
		ProjectedReceivable: core.FormatAmount(b.ProjectedReceivable),
		ProjectedPayable:    core.FormatAmount(b.ProjectedPayable),
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	category, err := s.ledger.CreateCategory(r.Context(), core.Category{Name: req.Name, Active: true})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// handleUpdateCategory renames or deactivates a category. There is no delete
// route: deactivation keeps historical transactions pointing at it.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Name   *string `json:"name,omitempty"`
		Active *bool   `json:"active,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	category, err := s.ledger.GetCategory(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.ledger.UpdateCategory(r.Context(), category); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("active") == "1"
	categories, err := s.ledger.ListCategories(r.Context(), onlyActive)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}
