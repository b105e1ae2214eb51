// Package services orchestrates ledger operations over storage and events.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage"
)

// StatementService owns the lifecycle of credit-card statements: upsert,
// the open/closed/paid state machine, coverage matching and the atomic pay
// operation.
type StatementService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

func NewStatementService(storage *storage.SQLiteRepository, events *amqp.Client) *StatementService {
	return &StatementService{
		storage: storage,
		events:  events,
	}
}

// UpsertStatementParams identifies a statement by (card, billing month) and
// carries its four date fields.
type UpsertStatementParams struct {
	AccountID    int64
	BillingMonth time.Time
	PeriodStart  time.Time
	PeriodEnd    time.Time
	ClosingDate  time.Time
	DueDate      time.Time
}

// Upsert creates the statement for (card, billing month) or, when it already
// exists, rewrites only its date fields. Status, id and billing month are
// never touched on update. The second return reports whether a new statement
// was inserted.
func (s *StatementService) Upsert(ctx context.Context, p UpsertStatementParams) (core.Statement, bool, error) {
	if p.PeriodStart.After(p.PeriodEnd) {
		return core.Statement{}, false, core.ErrInvalidPeriod
	}

	account, err := s.storage.GetAccount(ctx, p.AccountID)
	if err != nil {
		return core.Statement{}, false, err
	}
	if account.Kind != core.CardAccount {
		return core.Statement{}, false, fmt.Errorf("account %q: %w", account.Name, core.ErrNotCardAccount)
	}

	billingMonth := time.Date(p.BillingMonth.Year(), p.BillingMonth.Month(), 1, 0, 0, 0, 0, time.UTC)

	existing, err := s.storage.GetStatementByMonth(ctx, p.AccountID, billingMonth)
	switch {
	case err == nil:
		if err := s.storage.UpdateStatementPeriod(ctx, existing.ID,
			p.PeriodStart, p.PeriodEnd, p.ClosingDate, p.DueDate); err != nil {
			return core.Statement{}, false, err
		}
		existing.PeriodStart = p.PeriodStart
		existing.PeriodEnd = p.PeriodEnd
		existing.ClosingDate = p.ClosingDate
		existing.DueDate = p.DueDate
		return *existing, false, nil
	case errors.Is(err, core.ErrNotFound):
		st, err := s.storage.InsertStatement(ctx, core.Statement{
			AccountID:    p.AccountID,
			BillingMonth: billingMonth,
			PeriodStart:  p.PeriodStart,
			PeriodEnd:    p.PeriodEnd,
			ClosingDate:  p.ClosingDate,
			DueDate:      p.DueDate,
			Status:       core.StatementOpen,
		})
		if err != nil {
			return core.Statement{}, false, err
		}
		return st, true, nil
	default:
		return core.Statement{}, false, err
	}
}

// Close moves an open statement to closed. Paid is terminal.
func (s *StatementService) Close(ctx context.Context, id int64) (core.Statement, error) {
	return s.transition(ctx, id, core.StatementClosed)
}

// Reopen moves a closed statement back to open. Paid is terminal.
func (s *StatementService) Reopen(ctx context.Context, id int64) (core.Statement, error) {
	return s.transition(ctx, id, core.StatementOpen)
}

func (s *StatementService) transition(ctx context.Context, id int64, to core.StatementStatus) (core.Statement, error) {
	st, err := s.storage.GetStatement(ctx, id)
	if err != nil {
		return core.Statement{}, err
	}
	if st.Status == core.StatementPaid {
		return core.Statement{}, fmt.Errorf("statement %d: %w", id, core.ErrAlreadyPaid)
	}
	if err := s.storage.UpdateStatementStatus(ctx, id, to); err != nil {
		return core.Statement{}, err
	}
	st.Status = to
	return *st, nil
}

// ListByAccount returns every statement of a card, newest billing month
// first.
func (s *StatementService) ListByAccount(ctx context.Context, accountID int64) ([]core.Statement, error) {
	if _, err := s.storage.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.storage.ListStatementsByAccount(ctx, accountID)
}

// FindCovering returns the card's statement whose period contains the date,
// or nil when no period covers it.
func (s *StatementService) FindCovering(ctx context.Context, accountID int64, date time.Time) (*core.Statement, error) {
	return s.storage.FindCoveringStatement(ctx, accountID, date)
}

// Total sums the expense entries linked to the statement.
func (s *StatementService) Total(ctx context.Context, id int64) (decimal.Decimal, error) {
	if _, err := s.storage.GetStatement(ctx, id); err != nil {
		return decimal.Zero, err
	}
	return s.storage.SumStatementExpenses(ctx, id)
}

// PayParams carries the pay operation inputs.
type PayParams struct {
	StatementID      int64
	PaymentDate      time.Time
	AmountPaid       decimal.Decimal
	FundingAccountID int64
	CategoryID       *int64
}

// SettlementResult reports the three effects of a successful pay.
type SettlementResult struct {
	Statement   core.Statement
	Transaction core.Transaction
	Settlement  core.StatementSettlement
}

// Pay settles a statement: one debit entry in the funding account, one
// settlement row, and the paid flip, all inside a single database
// transaction. Paying is allowed straight from open, closing first is not
// required, but a paid statement rejects any further pay.
func (s *StatementService) Pay(ctx context.Context, p PayParams) (SettlementResult, error) {
	st, err := s.storage.GetStatement(ctx, p.StatementID)
	if err != nil {
		return SettlementResult{}, err
	}
	if st.Status == core.StatementPaid {
		return SettlementResult{}, fmt.Errorf("statement %d: %w", p.StatementID, core.ErrAlreadyPaid)
	}
	if !p.AmountPaid.IsPositive() {
		return SettlementResult{}, core.ErrInvalidAmount
	}

	card, err := s.storage.GetAccount(ctx, st.AccountID)
	if err != nil {
		return SettlementResult{}, err
	}
	if _, err := s.storage.GetAccount(ctx, p.FundingAccountID); err != nil {
		return SettlementResult{}, err
	}
	if p.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, *p.CategoryID); err != nil {
			return SettlementResult{}, err
		}
	}

	description := fmt.Sprintf("Fatura %s %s", card.Name, st.BillingMonth.Format("01/2006"))
	debit, settlement, err := s.storage.PayStatement(ctx, storage.PayStatementParams{
		StatementID:      p.StatementID,
		FundingAccountID: p.FundingAccountID,
		CategoryID:       p.CategoryID,
		Description:      description,
		PaymentDate:      p.PaymentDate,
		AmountPaid:       p.AmountPaid,
	})
	if err != nil {
		return SettlementResult{}, err
	}

	s.publish(ctx, amqp.EventStatementPaid, p.StatementID)

	st.Status = core.StatementPaid
	return SettlementResult{
		Statement:   *st,
		Transaction: debit,
		Settlement:  settlement,
	}, nil
}

// Delete removes a statement only when no transaction references it.
func (s *StatementService) Delete(ctx context.Context, id int64) error {
	if _, err := s.storage.GetStatement(ctx, id); err != nil {
		return err
	}
	n, err := s.storage.CountTransactionsByStatement(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("statement %d has %d linked transactions: %w", id, n, core.ErrStatementInUse)
	}
	return s.storage.DeleteStatement(ctx, id)
}

func (s *StatementService) publish(ctx context.Context, kind string, entityID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, kind, entityID); err != nil {
		// The local write already committed; event loss is tolerable.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}
