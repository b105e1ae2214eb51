package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind distinguishes funded bank accounts from credit cards.
type AccountKind string

const (
	BankAccount AccountKind = "bank"
	CardAccount AccountKind = "card"
)

// TransactionKind carries the sign of an entry; amounts are always >= 0.
type TransactionKind string

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

// TransactionStatus is the closed set of entry states. Free-text forms
// (Portuguese or English, any case) are confined to ParseStatus at the
// presentation and persistence edges.
type TransactionStatus string

const (
	StatusPaid      TransactionStatus = "paid"
	StatusPending   TransactionStatus = "pending"
	StatusOverdue   TransactionStatus = "overdue"
	StatusCancelled TransactionStatus = "cancelled"
	StatusGrouped   TransactionStatus = "grouped"
)

// StatementStatus tracks the lifecycle of a card billing cycle.
type StatementStatus string

const (
	StatementOpen   StatementStatus = "open"
	StatementClosed StatementStatus = "closed"
	StatementPaid   StatementStatus = "paid"
)

type (
	Account struct {
		ID             int64
		Name           string
		Kind           AccountKind
		Active         bool
		OpeningBalance decimal.Decimal // always zero for cards
	}

	Category struct {
		ID     int64
		Name   string
		Active bool
	}

	// Statement is one credit-card billing cycle ("fatura"). Expense
	// transactions whose booking date falls inside [PeriodStart, PeriodEnd]
	// belong to it.
	Statement struct {
		ID           int64
		AccountID    int64
		BillingMonth time.Time // first day of the billing month
		PeriodStart  time.Time
		PeriodEnd    time.Time
		ClosingDate  time.Time
		DueDate      time.Time
		Status       StatementStatus
	}

	Transaction struct {
		ID               int64
		Kind             TransactionKind
		Description      string
		Amount           decimal.Decimal
		BookingDate      time.Time
		SettlementDate   *time.Time
		AccountID        int64
		StatementID      *int64
		CategoryID       *int64
		PaymentMethod    string
		Status           TransactionStatus
		InstallmentLabel string // "2/6" style, empty for single entries
	}

	// StatementSettlement links a paid statement to the debit transaction
	// created in the funding account. At most one per statement.
	StatementSettlement struct {
		ID                      int64
		StatementID             int64
		SettlementTransactionID int64
		PaymentDate             time.Time
		AmountPaid              decimal.Decimal
	}

	// TransactionDraft is the statically-shaped input for recording entries,
	// produced either by a form submission or by the installment preview.
	TransactionDraft struct {
		Kind             TransactionKind
		Description      string
		Amount           decimal.Decimal
		BookingDate      time.Time
		SettlementDate   *time.Time
		AccountID        int64
		StatementID      *int64
		CategoryID       *int64
		PaymentMethod    string
		Status           TransactionStatus
		InstallmentLabel string
	}

	// TransactionPatch carries the editable fields of an entry; nil means
	// "leave untouched".
	TransactionPatch struct {
		Description    *string
		Amount         *decimal.Decimal
		BookingDate    *time.Time
		SettlementDate *time.Time
		ClearSettled   bool // reset SettlementDate to null
		StatementID    *int64
		ClearStatement bool
		CategoryID     *int64
		PaymentMethod  *string
		Status         *TransactionStatus
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyName          = errors.New("empty name")
	ErrInvalidKind        = errors.New("invalid kind")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPeriod      = errors.New("period start after period end")
	ErrInvalidDate        = errors.New("invalid date")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateName      = errors.New("name already in use")
	ErrDuplicateStatement = errors.New("statement already exists for this card and month")
	ErrAlreadyPaid        = errors.New("statement already paid")
	ErrStatementInUse     = errors.New("statement still has linked transactions")
	ErrNotCardAccount     = errors.New("account is not a card")
	ErrEmptySelection     = errors.New("no transactions selected")
	ErrNonPositiveTotal   = errors.New("selected transactions sum to zero or less")
	ErrNotSlip            = errors.New("transaction is not a collection slip")
)

// statusForms maps the textual status forms seen in imported data to the
// closed variant. Income settlements arrive as "recebido"/"received" and
// expense settlements as "pago"/"paid"; both collapse onto StatusPaid.
var statusForms = map[string]TransactionStatus{
	"pago":      StatusPaid,
	"paga":      StatusPaid,
	"paid":      StatusPaid,
	"recebido":  StatusPaid,
	"recebida":  StatusPaid,
	"received":  StatusPaid,
	"pendente":  StatusPending,
	"pending":   StatusPending,
	"vencido":   StatusOverdue,
	"vencida":   StatusOverdue,
	"atrasado":  StatusOverdue,
	"overdue":   StatusOverdue,
	"cancelado": StatusCancelled,
	"cancelada": StatusCancelled,
	"cancelled": StatusCancelled,
	"canceled":  StatusCancelled,
	"agrupado":  StatusGrouped,
	"agrupada":  StatusGrouped,
	"grouped":   StatusGrouped,
}

// ParseStatus converts free text to a TransactionStatus. Empty or unknown
// text means the entry has not been settled yet and defaults to pending.
func ParseStatus(s string) TransactionStatus {
	if st, ok := statusForms[strings.ToLower(strings.TrimSpace(s))]; ok {
		return st
	}
	return StatusPending
}

// ValidStatus reports whether s is one of the closed variant values.
func ValidStatus(s TransactionStatus) bool {
	switch s {
	case StatusPaid, StatusPending, StatusOverdue, StatusCancelled, StatusGrouped:
		return true
	}
	return false
}

func (k AccountKind) Valid() bool {
	return k == BankAccount || k == CardAccount
}

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (s Statement) Validate() error {
	if s.PeriodStart.After(s.PeriodEnd) {
		return ErrInvalidPeriod
	}
	if s.BillingMonth.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the rules applied at commit time: a positive amount, a
// non-empty description, a known kind and a usable booking date. The
// allocator is deliberately more permissive (see BuildPreview).
func (d TransactionDraft) Validate() error {
	if !d.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if d.BookingDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Transaction builds the persisted form of a draft, normalizing status and
// rounding the amount to cents.
func (d TransactionDraft) Transaction() Transaction {
	status := d.Status
	if !ValidStatus(status) {
		status = StatusPending
	}
	return Transaction{
		Kind:             d.Kind,
		Description:      strings.TrimSpace(d.Description),
		Amount:           d.Amount.Round(2),
		BookingDate:      d.BookingDate,
		SettlementDate:   d.SettlementDate,
		AccountID:        d.AccountID,
		StatementID:      d.StatementID,
		CategoryID:       d.CategoryID,
		PaymentMethod:    d.PaymentMethod,
		Status:           status,
		InstallmentLabel: d.InstallmentLabel,
	}
}

// Settled reports whether funds actually moved: either the status reached
// the terminal word or a settlement date was stamped. Either alone suffices.
func (t Transaction) Settled() bool {
	return t.Status == StatusPaid || t.SettlementDate != nil
}

// Pending reports whether the entry still counts toward projected balances.
func (t Transaction) Pending() bool {
	return t.Status == StatusPending
}
