package http

import (
	"context"
	"net/http"
	"time"

	"carteira/internal/core"
	"carteira/internal/services"
)

func (s *Server) handleUpsertStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID    int64  `json:"account_id"`
		BillingMonth string `json:"billing_month"` // "2026-03" or "2026-03-01"
		PeriodStart  string `json:"period_start"`
		PeriodEnd    string `json:"period_end"`
		ClosingDate  string `json:"closing_date"`
		DueDate      string `json:"due_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	billingMonth, err := parseBillingMonth(req.BillingMonth)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	dates := [4]time.Time{}
	for i, raw := range []string{req.PeriodStart, req.PeriodEnd, req.ClosingDate, req.DueDate} {
		if dates[i], err = parseDate(raw); err != nil {
			writeDomainError(w, r, err)
			return
		}
	}

	statement, created, err := s.statements.Upsert(r.Context(), services.UpsertStatementParams{
		AccountID:    req.AccountID,
		BillingMonth: billingMonth,
		PeriodStart:  dates[0],
		PeriodEnd:    dates[1],
		ClosingDate:  dates[2],
		DueDate:      dates[3],
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toStatementResponse(statement))
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	statements, err := s.statements.ListByAccount(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]statementResponse, 0, len(statements))
	for _, st := range statements {
		out = append(out, toStatementResponse(st))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatementTotal(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	total, err := s.statements.Total(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"total": core.FormatAmount(total)})
}

func (s *Server) handleCloseStatement(w http.ResponseWriter, r *http.Request) {
	s.transitionStatement(w, r, s.statements.Close)
}

func (s *Server) handleReopenStatement(w http.ResponseWriter, r *http.Request) {
	s.transitionStatement(w, r, s.statements.Reopen)
}

func (s *Server) transitionStatement(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id int64) (core.Statement, error)) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	statement, err := op(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementResponse(statement))
}

func (s *Server) handlePayStatement(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		PaymentDate      string `json:"payment_date"`
		Amount           string `json:"amount"`
		FundingAccountID int64  `json:"funding_account_id"`
		CategoryID       *int64 `json:"category_id,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res, err := s.statements.Pay(r.Context(), services.PayParams{
		StatementID:      id,
		PaymentDate:      paymentDate,
		AmountPaid:       core.ParseAmount(req.Amount),
		FundingAccountID: req.FundingAccountID,
		CategoryID:       req.CategoryID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusOK, map[string]any{
		"statement":   toStatementResponse(res.Statement),
		"transaction": toTransactionResponse(res.Transaction),
		"amount_paid": core.FormatAmount(res.Settlement.AmountPaid),
	})
}

func (s *Server) handleDeleteStatement(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.statements.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseBillingMonth accepts "2006-01" or a full date and normalizes to the
// first of the month.
func parseBillingMonth(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01", s); err == nil {
		return t, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
}
