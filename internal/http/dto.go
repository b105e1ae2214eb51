package http

import (
	"time"

	"carteira/internal/core"
)

// Responses carry amounts in the pt-BR display format ("1.630,00") and
// dates as YYYY-MM-DD strings.
type (
	accountResponse struct {
		ID             int64  `json:"id"`
		Name           string `json:"name"`
		Kind           string `json:"kind"`
		Active         bool   `json:"active"`
		OpeningBalance string `json:"opening_balance"`
	}

	categoryResponse struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}

	statementResponse struct {
		ID           int64  `json:"id"`
		AccountID    int64  `json:"account_id"`
		BillingMonth string `json:"billing_month"`
		PeriodStart  string `json:"period_start"`
		PeriodEnd    string `json:"period_end"`
		ClosingDate  string `json:"closing_date"`
		DueDate      string `json:"due_date"`
		Status       string `json:"status"`
	}

	transactionResponse struct {
		ID               int64   `json:"id"`
		Kind             string  `json:"kind"`
		Description      string  `json:"description"`
		Amount           string  `json:"amount"`
		BookingDate      string  `json:"booking_date"`
		SettlementDate   *string `json:"settlement_date,omitempty"`
		AccountID        int64   `json:"account_id"`
		StatementID      *int64  `json:"statement_id,omitempty"`
		CategoryID       *int64  `json:"category_id,omitempty"`
		PaymentMethod    string  `json:"payment_method,omitempty"`
		Status           string  `json:"status"`
		InstallmentLabel string  `json:"installment_label,omitempty"`
	}

	balanceResponse struct {
		AccountID           int64  `json:"account_id"`
		Settled             string `json:"settled"`
		ProjectedReceivable string `json:"projected_receivable"`
		ProjectedPayable    string `json:"projected_payable"`
	}

	monthReportResponse struct {
		Year       int                  `json:"year"`
		Month      int                  `json:"month"`
		Income     string               `json:"income"`
		Expense    string               `json:"expense"`
		Net        string               `json:"net"`
		ByCategory []categoryAmountJSON `json:"by_category"`
	}

	categoryAmountJSON struct {
		Name   string `json:"name"`
		Amount string `json:"amount"`
	}
)

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		Active:         a.Active,
		OpeningBalance: core.FormatAmount(a.OpeningBalance),
	}
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Active: c.Active}
}

func toStatementResponse(s core.Statement) statementResponse {
	return statementResponse{
		ID:           s.ID,
		AccountID:    s.AccountID,
		BillingMonth: s.BillingMonth.Format("2006-01"),
		PeriodStart:  s.PeriodStart.Format(dateLayout),
		PeriodEnd:    s.PeriodEnd.Format(dateLayout),
		ClosingDate:  s.ClosingDate.Format(dateLayout),
		DueDate:      s.DueDate.Format(dateLayout),
		Status:       string(s.Status),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:               t.ID,
		Kind:             string(t.Kind),
		Description:      t.Description,
		Amount:           core.FormatAmount(t.Amount),
		BookingDate:      t.BookingDate.Format(dateLayout),
		AccountID:        t.AccountID,
		StatementID:      t.StatementID,
		CategoryID:       t.CategoryID,
		PaymentMethod:    t.PaymentMethod,
		Status:           string(t.Status),
		InstallmentLabel: t.InstallmentLabel,
	}
	if t.SettlementDate != nil {
		s := t.SettlementDate.Format(dateLayout)
		resp.SettlementDate = &s
	}
	return resp
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

func toMonthReportResponse(o core.MonthOverview) monthReportResponse {
	resp := monthReportResponse{
		Year:       o.Year,
		Month:      o.Month,
		Income:     core.FormatAmount(o.Income),
		Expense:    core.FormatAmount(o.Expense),
		Net:        core.FormatAmount(o.Net),
		ByCategory: []categoryAmountJSON{},
	}
	for _, c := range o.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountJSON{
			Name:   c.Name,
			Amount: core.FormatAmount(c.Amount),
		})
	}
	return resp
}

// transactionDraftRequest is the wire shape of a draft; amounts arrive as
// free text and go through the lenient parser.
type transactionDraftRequest struct {
	Kind             string `json:"kind"`
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	BookingDate      string `json:"booking_date"`
	SettlementDate   string `json:"settlement_date,omitempty"`
	AccountID        int64  `json:"account_id"`
	StatementID      *int64 `json:"statement_id,omitempty"`
	CategoryID       *int64 `json:"category_id,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	Status           string `json:"status,omitempty"`
	InstallmentLabel string `json:"installment_label,omitempty"`
}

func (req transactionDraftRequest) toDraft() (core.TransactionDraft, error) {
	bookingDate, err := parseDate(req.BookingDate)
	if err != nil {
		return core.TransactionDraft{}, err
	}
	var settlementDate *time.Time
	if settlementDate, err = parseOptionalDate(req.SettlementDate); err != nil {
		return core.TransactionDraft{}, err
	}

	return core.TransactionDraft{
		Kind:             core.TransactionKind(req.Kind),
		Description:      req.Description,
		Amount:           core.ParseAmount(req.Amount),
		BookingDate:      bookingDate,
		SettlementDate:   settlementDate,
		AccountID:        req.AccountID,
		StatementID:      req.StatementID,
		CategoryID:       req.CategoryID,
		PaymentMethod:    req.PaymentMethod,
		Status:           core.ParseStatus(req.Status),
		InstallmentLabel: req.InstallmentLabel,
	}, nil
}
