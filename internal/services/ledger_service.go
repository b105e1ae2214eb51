package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/storage"
)

// LedgerService owns accounts, categories and transactions: recording (single
// and batch), balances, bulk settlement and collection-slip grouping.
type LedgerService struct {
	storage *storage.SQLiteRepository
	events  *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, events *amqp.Client) *LedgerService {
	return &LedgerService{
		storage: storage,
		events:  events,
	}
}

// SlipTag is the payment-method reference that links a grouped income back
// to its collection slip.
func SlipTag(slipID int64) string {
	return fmt.Sprintf("boleto:%d", slipID)
}

// CreateAccount registers a bank account or card. Names must be unique;
// cards always start with a zero opening balance.
func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	a, err := s.storage.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	return *a, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context, onlyActive bool) ([]core.Account, error) {
	return s.storage.ListAccounts(ctx, onlyActive)
}

// UpdateAccount rewrites name, active flag and opening balance. Deactivating
// an account hides it from active listings; its history stays put.
func (s *LedgerService) UpdateAccount(ctx context.Context, a core.Account) error {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateAccount(ctx, a)
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.storage.CreateCategory(ctx, c)
}

func (s *LedgerService) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	c, err := s.storage.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	return *c, nil
}

func (s *LedgerService) ListCategories(ctx context.Context, onlyActive bool) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, onlyActive)
}

// UpdateCategory renames or deactivates a category. Deactivation is the only
// removal: transactions keep their category reference either way.
func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateCategory(ctx, c)
}

// ListTransactions queries entries by account, statement or month.
func (s *LedgerService) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByAccount(ctx, accountID)
}

func (s *LedgerService) ListTransactionsByStatement(ctx context.Context, statementID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByStatement(ctx, statementID)
}

func (s *LedgerService) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return s.storage.ListTransactionsByMonth(ctx, year, month)
}

// RecordTransaction validates a draft and persists it. Card expenses without
// an explicit statement are matched to the statement whose period covers the
// booking date, when one exists.
func (s *LedgerService) RecordTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	account, err := s.storage.GetAccount(ctx, d.AccountID)
	if err != nil {
		return core.Transaction{}, err
	}
	if d.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, *d.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	if account.Kind == core.CardAccount && d.Kind == core.Expense && d.StatementID == nil {
		st, err := s.storage.FindCoveringStatement(ctx, account.ID, d.BookingDate)
		if err != nil {
			return core.Transaction{}, err
		}
		if st != nil {
			d.StatementID = &st.ID
		}
	}
	if d.StatementID != nil {
		if _, err := s.storage.GetStatement(ctx, *d.StatementID); err != nil {
			return core.Transaction{}, err
		}
	}

	t, err := s.storage.InsertTransaction(ctx, d.Transaction())
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.EventTransactionRecorded, t.ID)
	return t, nil
}

// RowError reports one failed row of a batch by its input index.
type RowError struct {
	Index int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// RecordBatch commits the valid drafts and reports the invalid ones
// individually. The batch is not all-or-nothing: a bad row never blocks its
// neighbours, but each committed row is persisted atomically on its own.
func (s *LedgerService) RecordBatch(ctx context.Context, drafts []core.TransactionDraft) ([]core.Transaction, []RowError) {
	var (
		committed []core.Transaction
		failures  []RowError
	)
	for i, d := range drafts {
		t, err := s.RecordTransaction(ctx, d)
		if err != nil {
			failures = append(failures, RowError{Index: i, Err: err})
			continue
		}
		committed = append(committed, t)
	}

	if len(failures) > 0 {
		slog.WarnContext(ctx, "Batch recorded with failures",
			"committed", len(committed), "failed", len(failures))
	}
	return committed, failures
}

// UpdateTransaction applies a patch to an existing entry. The creation rules
// apply to the edited result as well.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, patch core.TransactionPatch) (core.Transaction, error) {
	t, err := s.storage.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Amount != nil {
		t.Amount = patch.Amount.Round(2)
	}
	if patch.BookingDate != nil {
		t.BookingDate = *patch.BookingDate
	}
	if patch.ClearSettled {
		t.SettlementDate = nil
	} else if patch.SettlementDate != nil {
		t.SettlementDate = patch.SettlementDate
	}
	if patch.ClearStatement {
		t.StatementID = nil
	} else if patch.StatementID != nil {
		if _, err := s.storage.GetStatement(ctx, *patch.StatementID); err != nil {
			return core.Transaction{}, err
		}
		t.StatementID = patch.StatementID
	}
	if patch.CategoryID != nil {
		if _, err := s.storage.GetCategory(ctx, *patch.CategoryID); err != nil {
			return core.Transaction{}, err
		}
		t.CategoryID = patch.CategoryID
	}
	if patch.PaymentMethod != nil {
		t.PaymentMethod = *patch.PaymentMethod
	}
	if patch.Status != nil {
		if !core.ValidStatus(*patch.Status) {
			return core.Transaction{}, fmt.Errorf("%q: %w", *patch.Status, core.ErrInvalidStatus)
		}
		t.Status = *patch.Status
	}

	if t.Description == "" {
		return core.Transaction{}, core.ErrEmptyDescription
	}
	if !t.Amount.IsPositive() {
		return core.Transaction{}, core.ErrInvalidAmount
	}

	if err := s.storage.UpdateTransaction(ctx, *t); err != nil {
		return core.Transaction{}, err
	}
	return *t, nil
}

// DeleteTransaction removes an entry permanently.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.storage.GetTransaction(ctx, id); err != nil {
		return err
	}
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.EventTransactionDeleted, id)
	return nil
}

// SettleMany stamps a settlement date and status on a set of entries
// ("liquidar").
func (s *LedgerService) SettleMany(ctx context.Context, ids []int64, settledAt time.Time, status core.TransactionStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, core.ErrEmptySelection
	}
	if !core.ValidStatus(status) {
		return 0, fmt.Errorf("%q: %w", status, core.ErrInvalidStatus)
	}
	return s.storage.SettleTransactions(ctx, ids, settledAt, status)
}

// Balance computes the settled balance and both projected totals of one
// account in a single pass. For bank accounts the settled balance is
// opening balance plus settled income minus settled expense; cards keep a
// zero opening balance so the same formula degenerates harmlessly (card
// views live on the statement side).
func (s *LedgerService) Balance(ctx context.Context, accountID int64) (core.AccountBalance, error) {
	account, err := s.storage.GetAccount(ctx, accountID)
	if err != nil {
		return core.AccountBalance{}, err
	}
	txs, err := s.storage.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return core.AccountBalance{}, err
	}

	b := core.AccountBalance{
		AccountID:           accountID,
		Settled:             account.OpeningBalance,
		ProjectedReceivable: decimal.Zero,
		ProjectedPayable:    decimal.Zero,
	}
	for _, t := range txs {
		switch {
		case t.Settled():
			if t.Kind == core.Income {
				b.Settled = b.Settled.Add(t.Amount)
			} else {
				b.Settled = b.Settled.Sub(t.Amount)
			}
		case t.Pending():
			if t.Kind == core.Income {
				b.ProjectedReceivable = b.ProjectedReceivable.Add(t.Amount)
			} else {
				b.ProjectedPayable = b.ProjectedPayable.Add(t.Amount)
			}
		}
	}
	return b, nil
}

// SettledBalance is the real balance: funds that actually moved.
func (s *LedgerService) SettledBalance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Settled, nil
}

// ProjectedReceivable sums the pending income of an account.
func (s *LedgerService) ProjectedReceivable(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.ProjectedReceivable, nil
}

// ProjectedPayable sums the pending expense of an account.
func (s *LedgerService) ProjectedPayable(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	b, err := s.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return b.ProjectedPayable, nil
}

// GroupParams describes a collection slip ("boleto") to build from pending
// income entries.
type GroupParams struct {
	TransactionIDs  []int64
	DueDate         time.Time
	TargetAccountID int64
	CategoryID      *int64
	Description     string
}

// GroupIncomesIntoSlip aggregates the selected income entries into one new
// pending income transaction. The sources survive as children: status
// grouped, payment method tagged with the slip id, ready to be unwound.
func (s *LedgerService) GroupIncomesIntoSlip(ctx context.Context, p GroupParams) (core.Transaction, error) {
	if len(p.TransactionIDs) == 0 {
		return core.Transaction{}, core.ErrEmptySelection
	}
	if strings.TrimSpace(p.Description) == "" {
		return core.Transaction{}, core.ErrEmptyDescription
	}
	if _, err := s.storage.GetAccount(ctx, p.TargetAccountID); err != nil {
		return core.Transaction{}, err
	}

	total := decimal.Zero
	for _, id := range p.TransactionIDs {
		t, err := s.storage.GetTransaction(ctx, id)
		if err != nil {
			return core.Transaction{}, err
		}
		if t.Kind != core.Income {
			return core.Transaction{}, fmt.Errorf("transaction %d is not income: %w", id, core.ErrInvalidKind)
		}
		total = total.Add(t.Amount)
	}
	if !total.IsPositive() {
		return core.Transaction{}, core.ErrNonPositiveTotal
	}

	slip := core.Transaction{
		Kind:        core.Income,
		Description: strings.TrimSpace(p.Description),
		Amount:      total.Round(2),
		BookingDate: p.DueDate,
		AccountID:   p.TargetAccountID,
		CategoryID:  p.CategoryID,
		Status:      core.StatusPending,
	}
	slip, err := s.storage.GroupIncomes(ctx, slip, p.TransactionIDs, SlipTag)
	if err != nil {
		return core.Transaction{}, err
	}

	s.publish(ctx, amqp.EventSlipGrouped, slip.ID)
	return slip, nil
}

// UngroupSlip dissolves a collection slip: children return to pending with
// their reference tag cleared, and the aggregate entry is deleted. Net state
// equals the pre-grouping state.
func (s *LedgerService) UngroupSlip(ctx context.Context, slipID int64) error {
	if _, err := s.storage.GetTransaction(ctx, slipID); err != nil {
		return err
	}

	tag := SlipTag(slipID)
	children, err := s.storage.ListTransactionsByPaymentMethod(ctx, tag)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return fmt.Errorf("transaction %d: %w", slipID, core.ErrNotSlip)
	}

	if _, err := s.storage.UngroupSlip(ctx, slipID, tag); err != nil {
		return err
	}

	s.publish(ctx, amqp.EventSlipUngrouped, slipID)
	return nil
}

// MonthOverview aggregates one calendar month for reporting: income and
// expense totals plus expense by category. Cancelled entries and grouped
// children are left out, the latter so a slip and its sources never count
// twice.
func (s *LedgerService) MonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	overview := core.MonthOverview{
		Year:    year,
		Month:   month,
		Income:  decimal.Zero,
		Expense: decimal.Zero,
		Net:     decimal.Zero,
	}

	txs, err := s.storage.ListTransactionsByMonth(ctx, year, month)
	if err != nil {
		return overview, err
	}
	categories, err := s.storage.ListCategories(ctx, false)
	if err != nil {
		return overview, err
	}
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	byCategory := make(map[string]decimal.Decimal)
	var order []string
	for _, t := range txs {
		if t.Status == core.StatusCancelled || t.Status == core.StatusGrouped {
			continue
		}
		if t.Kind == core.Income {
			overview.Income = overview.Income.Add(t.Amount)
			continue
		}
		overview.Expense = overview.Expense.Add(t.Amount)

		name := "Sem categoria"
		if t.CategoryID != nil {
			if n, ok := names[*t.CategoryID]; ok {
				name = n
			}
		}
		if _, ok := byCategory[name]; !ok {
			order = append(order, name)
		}
		byCategory[name] = byCategory[name].Add(t.Amount)
	}

	overview.Net = overview.Income.Sub(overview.Expense)
	for _, name := range order {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: byCategory[name],
		})
	}
	return overview, nil
}

// Close releases the storage and event connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind string, entityID int64) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, kind, entityID); err != nil {
		// The local write already committed; event loss is tolerable.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind, "entity_id", entityID, "error", err)
	}
}
