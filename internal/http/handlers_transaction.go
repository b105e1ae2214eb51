package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"carteira/internal/core"
	"carteira/internal/services"
)

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	draft, err := req.toDraft()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	t, err := s.ledger.RecordTransaction(r.Context(), draft)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handlePreviewInstallments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind          string `json:"kind"`
		Description   string `json:"description"`
		Amount        string `json:"amount"`
		Count         int    `json:"count"`
		StartDate     string `json:"start_date"`
		Mode          string `json:"mode"` // split_total or repeat_amount
		AccountID     int64  `json:"account_id"`
		StatementID   *int64 `json:"statement_id,omitempty"`
		CategoryID    *int64 `json:"category_id,omitempty"`
		PaymentMethod string `json:"payment_method,omitempty"`
		Status        string `json:"status,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	drafts := core.BuildPreview(core.PreviewParams{
		Description:   req.Description,
		Count:         req.Count,
		StartDate:     startDate,
		Mode:          core.SplitMode(req.Mode),
		Amount:        core.ParseAmount(req.Amount),
		Kind:          core.TransactionKind(req.Kind),
		AccountID:     req.AccountID,
		StatementID:   req.StatementID,
		CategoryID:    req.CategoryID,
		PaymentMethod: req.PaymentMethod,
		Status:        core.ParseStatus(req.Status),
	}, time.Now())

	out := make([]transactionResponse, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, toTransactionResponse(d.Transaction()))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecordBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []transactionDraftRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	drafts := make([]core.TransactionDraft, 0, len(reqs))
	malformed := make([]map[string]any, 0)
	for i, req := range reqs {
		draft, err := req.toDraft()
		if err != nil {
			malformed = append(malformed, map[string]any{"index": i, "error": err.Error()})
			continue
		}
		drafts = append(drafts, draft)
	}

	committed, failures := s.ledger.RecordBatch(r.Context(), drafts)
	if len(committed) > 0 {
		s.reports.Purge()
	}
	for _, f := range failures {
		malformed = append(malformed, map[string]any{"index": f.Index, "error": f.Err.Error()})
	}

	status := http.StatusCreated
	if len(malformed) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{
		"committed": toTransactionResponses(committed),
		"failed":    malformed,
	})
}

func (s *Server) handleSettleTransactions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionIDs []int64 `json:"transaction_ids"`
		SettledAt      string  `json:"settled_at"`
		Status         string  `json:"status,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	settledAt, err := parseDate(req.SettledAt)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	status := core.StatusPaid
	if req.Status != "" {
		status = core.ParseStatus(req.Status)
	}

	n, err := s.ledger.SettleMany(r.Context(), req.TransactionIDs, settledAt, status)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusOK, map[string]int64{"settled": n})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		txs []core.Transaction
		err error
	)
	switch {
	case q.Get("account_id") != "":
		var id int64
		if id, err = strconv.ParseInt(q.Get("account_id"), 10, 64); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid account_id")
			return
		}
		txs, err = s.ledger.ListTransactionsByAccount(r.Context(), id)
	case q.Get("statement_id") != "":
		var id int64
		if id, err = strconv.ParseInt(q.Get("statement_id"), 10, 64); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid statement_id")
			return
		}
		txs, err = s.ledger.ListTransactionsByStatement(r.Context(), id)
	default:
		year, month, perr := parseYearMonth(r)
		if perr != nil {
			writeError(w, r, http.StatusBadRequest, perr.Error())
			return
		}
		txs, err = s.ledger.ListTransactionsByMonth(r.Context(), year, month)
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		Description    *string `json:"description,omitempty"`
		Amount         *string `json:"amount,omitempty"`
		BookingDate    *string `json:"booking_date,omitempty"`
		SettlementDate *string `json:"settlement_date,omitempty"`
		ClearSettled   bool    `json:"clear_settled,omitempty"`
		StatementID    *int64  `json:"statement_id,omitempty"`
		ClearStatement bool    `json:"clear_statement,omitempty"`
		CategoryID     *int64  `json:"category_id,omitempty"`
		PaymentMethod  *string `json:"payment_method,omitempty"`
		Status         *string `json:"status,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patch := core.TransactionPatch{
		Description:    req.Description,
		ClearSettled:   req.ClearSettled,
		StatementID:    req.StatementID,
		ClearStatement: req.ClearStatement,
		CategoryID:     req.CategoryID,
		PaymentMethod:  req.PaymentMethod,
	}
	if req.Amount != nil {
		amt := core.ParseAmount(*req.Amount)
		patch.Amount = &amt
	}
	if req.BookingDate != nil {
		d, err := parseDate(*req.BookingDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		patch.BookingDate = &d
	}
	if req.SettlementDate != nil {
		d, err := parseDate(*req.SettlementDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		patch.SettlementDate = &d
	}
	if req.Status != nil {
		st := core.ParseStatus(*req.Status)
		patch.Status = &st
	}

	t, err := s.ledger.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGroupSlip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionIDs  []int64 `json:"transaction_ids"`
		DueDate         string  `json:"due_date"`
		TargetAccountID int64   `json:"target_account_id"`
		CategoryID      *int64  `json:"category_id,omitempty"`
		Description     string  `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	slip, err := s.ledger.GroupIncomesIntoSlip(r.Context(), services.GroupParams{
		TransactionIDs:  req.TransactionIDs,
		DueDate:         dueDate,
		TargetAccountID: req.TargetAccountID,
		CategoryID:      req.CategoryID,
		Description:     req.Description,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	writeJSON(w, http.StatusCreated, toTransactionResponse(slip))
}

func (s *Server) handleUngroupSlip(w http.ResponseWriter, r *http.Request) {
	id, err := idPathValue(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.ledger.UngroupSlip(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	key := fmt.Sprintf("%04d-%02d", year, month)

	if overview, ok := s.reports.Get(key); ok {
		writeJSON(w, http.StatusOK, toMonthReportResponse(overview))
		return
	}

	overview, err := s.ledger.MonthOverview(r.Context(), year, month)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.reports.Set(key, overview)
	writeJSON(w, http.StatusOK, toMonthReportResponse(overview))
}
