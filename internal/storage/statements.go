package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

const statementColumns = `id, account_id, billing_month, period_start, period_end,
	closing_date, due_date, status`

func scanStatement(row interface{ Scan(...any) error }) (core.Statement, error) {
	var (
		s                                      core.Statement
		billing, start, end, closing, due, sts string
	)
	err := row.Scan(&s.ID, &s.AccountID, &billing, &start, &end, &closing, &due, &sts)
	if err != nil {
		return core.Statement{}, err
	}

	s.Status = core.StatementStatus(sts)
	for _, field := range []struct {
		dst *time.Time
		src string
	}{
		{&s.BillingMonth, billing},
		{&s.PeriodStart, start},
		{&s.PeriodEnd, end},
		{&s.ClosingDate, closing},
		{&s.DueDate, due},
	} {
		if *field.dst, err = parseDate(field.src); err != nil {
			return core.Statement{}, fmt.Errorf("decode statement date: %w", err)
		}
	}
	return s, nil
}

func (r *SQLiteRepository) InsertStatement(ctx context.Context, s core.Statement) (core.Statement, error) {
	if err := s.Validate(); err != nil {
		return core.Statement{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO statements (account_id, billing_month, period_start, period_end,
			closing_date, due_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.AccountID, dateString(s.BillingMonth), dateString(s.PeriodStart),
		dateString(s.PeriodEnd), dateString(s.ClosingDate), dateString(s.DueDate),
		string(s.Status))
	if isUniqueViolation(err) {
		return core.Statement{}, fmt.Errorf("card %d month %s: %w",
			s.AccountID, s.BillingMonth.Format("2006-01"), core.ErrDuplicateStatement)
	}
	if err != nil {
		return core.Statement{}, fmt.Errorf("insert statement: %w", err)
	}

	s.ID, err = res.LastInsertId()
	if err != nil {
		return core.Statement{}, fmt.Errorf("statement id: %w", err)
	}

	slog.InfoContext(ctx, "Statement created",
		"id", s.ID,
		"account_id", s.AccountID,
		"billing_month", s.BillingMonth.Format("2006-01"))
	return s, nil
}

func (r *SQLiteRepository) GetStatement(ctx context.Context, id int64) (*core.Statement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE id = ?`, id)
	s, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("statement %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get statement: %w", err)
	}
	return &s, nil
}

// GetStatementByMonth resolves the upsert key (card, billing month).
func (r *SQLiteRepository) GetStatementByMonth(ctx context.Context, accountID int64, billingMonth time.Time) (*core.Statement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE account_id = ? AND billing_month = ?`,
		accountID, dateString(billingMonth))
	s, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("statement for card %d month %s: %w",
			accountID, billingMonth.Format("2006-01"), core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get statement by month: %w", err)
	}
	return &s, nil
}

func (r *SQLiteRepository) ListStatementsByAccount(ctx context.Context, accountID int64) ([]core.Statement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+statementColumns+` FROM statements WHERE account_id = ? ORDER BY billing_month`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []core.Statement
	for rows.Next() {
		s, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindCoveringStatement returns the statement of a card whose period contains
// the date. Overlapping periods are forbidden by construction but tolerated:
// the latest period end wins.
func (r *SQLiteRepository) FindCoveringStatement(ctx context.Context, accountID int64, date time.Time) (*core.Statement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+statementColumns+` FROM statements
		 WHERE account_id = ? AND period_start <= ? AND period_end >= ?
		 ORDER BY period_end DESC LIMIT 1`,
		accountID, dateString(date), dateString(date))
	s, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find covering statement: %w", err)
	}
	return &s, nil
}

// UpdateStatementPeriod rewrites the four date fields of an existing
// statement. Status, id and billing month stay untouched.
func (r *SQLiteRepository) UpdateStatementPeriod(ctx context.Context, id int64, periodStart, periodEnd, closingDate, dueDate time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statements SET period_start = ?, period_end = ?, closing_date = ?, due_date = ?
		 WHERE id = ?`,
		dateString(periodStart), dateString(periodEnd), dateString(closingDate),
		dateString(dueDate), id)
	if err != nil {
		return fmt.Errorf("update statement period: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update statement period: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("statement %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) UpdateStatementStatus(ctx context.Context, id int64, status core.StatementStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE statements SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update statement status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update statement status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("statement %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteStatement(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete statement: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("statement %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetSettlementByStatement(ctx context.Context, statementID int64) (*core.StatementSettlement, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, statement_id, settlement_transaction_id, payment_date, amount_paid
		 FROM statement_settlements WHERE statement_id = ?`, statementID)

	var (
		s            core.StatementSettlement
		date, amount string
	)
	err := row.Scan(&s.ID, &s.StatementID, &s.SettlementTransactionID, &date, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settlement for statement %d: %w", statementID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get settlement: %w", err)
	}
	if s.PaymentDate, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("decode payment date: %w", err)
	}
	if s.AmountPaid, err = scanDecimal(amount); err != nil {
		return nil, err
	}
	return &s, nil
}

// PayStatementParams carries everything the atomic pay operation writes.
type PayStatementParams struct {
	StatementID      int64
	FundingAccountID int64
	CategoryID       *int64
	Description      string
	PaymentDate      time.Time
	AmountPaid       decimal.Decimal
}

// PayStatement performs the three pay writes in one database transaction:
// the debit entry in the funding account, the settlement row linking it to
// the statement, and the status flip to paid. A crash or constraint failure
// between any two of them rolls all three back, so a paid statement always
// has exactly one settlement record.
func (r *SQLiteRepository) PayStatement(ctx context.Context, p PayStatementParams) (core.Transaction, core.StatementSettlement, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, core.StatementSettlement{}, fmt.Errorf("begin pay: %w", err)
	}
	defer tx.Rollback()

	paymentDate := p.PaymentDate
	debit := core.Transaction{
		Kind:           core.Expense,
		Description:    p.Description,
		Amount:         p.AmountPaid.Round(2),
		BookingDate:    paymentDate,
		SettlementDate: &paymentDate,
		AccountID:      p.FundingAccountID,
		CategoryID:     p.CategoryID,
		PaymentMethod:  "fatura",
		Status:         core.StatusPaid,
	}
	debit, err = insertTransaction(ctx, tx, debit)
	if err != nil {
		return core.Transaction{}, core.StatementSettlement{}, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO statement_settlements (statement_id, settlement_transaction_id, payment_date, amount_paid)
		 VALUES (?, ?, ?, ?)`,
		p.StatementID, debit.ID, dateString(p.PaymentDate), debit.Amount.String())
	if err != nil {
		return core.Transaction{}, core.StatementSettlement{}, fmt.Errorf("insert settlement: %w", err)
	}
	settlement := core.StatementSettlement{
		StatementID:             p.StatementID,
		SettlementTransactionID: debit.ID,
		PaymentDate:             p.PaymentDate,
		AmountPaid:              debit.Amount,
	}
	settlement.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, core.StatementSettlement{}, fmt.Errorf("settlement id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE statements SET status = ? WHERE id = ?`,
		string(core.StatementPaid), p.StatementID); err != nil {
		return core.Transaction{}, core.StatementSettlement{}, fmt.Errorf("mark statement paid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, core.StatementSettlement{}, fmt.Errorf("commit pay: %w", err)
	}

	slog.InfoContext(ctx, "Statement paid",
		"statement_id", p.StatementID,
		"transaction_id", debit.ID,
		"amount", debit.Amount.String())
	return debit, settlement, nil
}

// GroupIncomes inserts the aggregate slip and re-tags the children in one
// transaction. The children keep their rows; their status becomes grouped
// and their payment method points back at the slip.
func (r *SQLiteRepository) GroupIncomes(ctx context.Context, slip core.Transaction, childIDs []int64, tagFor func(slipID int64) string) (core.Transaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin group: %w", err)
	}
	defer tx.Rollback()

	slip, err = insertTransaction(ctx, tx, slip)
	if err != nil {
		return core.Transaction{}, err
	}

	tag := tagFor(slip.ID)
	for _, id := range childIDs {
		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET status = ?, payment_method = ? WHERE id = ?`,
			string(core.StatusGrouped), tag, id)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("tag child %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return core.Transaction{}, fmt.Errorf("tag child %d: %w", id, err)
		}
		if n == 0 {
			return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit group: %w", err)
	}

	slog.InfoContext(ctx, "Collection slip created",
		"slip_id", slip.ID,
		"children", len(childIDs),
		"amount", slip.Amount.String())
	return slip, nil
}

// UngroupSlip reverses GroupIncomes: children go back to pending with the
// reference tag cleared, then the aggregate row is removed.
func (r *SQLiteRepository) UngroupSlip(ctx context.Context, slipID int64, tag string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ungroup: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET status = ?, payment_method = '' WHERE payment_method = ?`,
		string(core.StatusPending), tag)
	if err != nil {
		return 0, fmt.Errorf("release children: %w", err)
	}
	released, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release children: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, slipID); err != nil {
		return 0, fmt.Errorf("delete slip: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ungroup: %w", err)
	}

	slog.InfoContext(ctx, "Collection slip dissolved", "slip_id", slipID, "released", released)
	return released, nil
}
