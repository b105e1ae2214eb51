package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

const transactionColumns = `id, kind, description, amount, booking_date, settlement_date,
	account_id, statement_id, category_id, payment_method, status, installment_label`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		kind       string
		amount     string
		booking    string
		settlement sql.NullString
		stmtID     sql.NullInt64
		catID      sql.NullInt64
		status     string
	)
	err := row.Scan(&t.ID, &kind, &t.Description, &amount, &booking, &settlement,
		&t.AccountID, &stmtID, &catID, &t.PaymentMethod, &status, &t.InstallmentLabel)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Kind = core.TransactionKind(kind)
	t.Status = core.TransactionStatus(status)
	if t.Amount, err = scanDecimal(amount); err != nil {
		return core.Transaction{}, err
	}
	if t.BookingDate, err = parseDate(booking); err != nil {
		return core.Transaction{}, fmt.Errorf("decode booking date: %w", err)
	}
	if settlement.Valid {
		d, err := parseDate(settlement.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("decode settlement date: %w", err)
		}
		t.SettlementDate = &d
	}
	if stmtID.Valid {
		id := stmtID.Int64
		t.StatementID = &id
	}
	if catID.Valid {
		id := catID.Int64
		t.CategoryID = &id
	}
	return t, nil
}

func insertTransaction(ctx context.Context, q querier, t core.Transaction) (core.Transaction, error) {
	res, err := q.ExecContext(ctx,
		`INSERT INTO transactions (kind, description, amount, booking_date, settlement_date,
			account_id, statement_id, category_id, payment_method, status, installment_label)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(t.Kind), t.Description, t.Amount.String(), dateString(t.BookingDate),
		nullableDate(t.SettlementDate), t.AccountID, nullableID(t.StatementID),
		nullableID(t.CategoryID), t.PaymentMethod, string(t.Status), t.InstallmentLabel)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t, err := insertTransaction(ctx, r.db, t)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", t.Kind,
		"description", t.Description,
		"amount", t.Amount.String(),
		"account_id", t.AccountID)
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]core.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE account_id = ? ORDER BY booking_date, id`, accountID)
}

func (r *SQLiteRepository) ListTransactionsByStatement(ctx context.Context, statementID int64) ([]core.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE statement_id = ? ORDER BY booking_date, id`, statementID)
}

func (r *SQLiteRepository) ListTransactionsByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE booking_date BETWEEN ? AND ? ORDER BY booking_date, id`,
		dateString(start), dateString(end))
}

// ListTransactionsByPaymentMethod finds entries tagged with a reference,
// which is how collection-slip children point at their aggregate.
func (r *SQLiteRepository) ListTransactionsByPaymentMethod(ctx context.Context, method string) ([]core.Transaction, error) {
	return r.listTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE payment_method = ? ORDER BY booking_date, id`, method)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET kind = ?, description = ?, amount = ?, booking_date = ?,
			settlement_date = ?, account_id = ?, statement_id = ?, category_id = ?,
			payment_method = ?, status = ?, installment_label = ?
		 WHERE id = ?`,
		string(t.Kind), t.Description, t.Amount.String(), dateString(t.BookingDate),
		nullableDate(t.SettlementDate), t.AccountID, nullableID(t.StatementID),
		nullableID(t.CategoryID), t.PaymentMethod, string(t.Status), t.InstallmentLabel, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes an entry permanently. There is no soft delete.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, core.ErrNotFound)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// SettleTransactions stamps a settlement date and status on a set of ids in
// one statement ("liquidar").
func (r *SQLiteRepository) SettleTransactions(ctx context.Context, ids []int64, settledAt time.Time, status core.TransactionStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, 0, len(ids)+2)
	args = append(args, dateString(settledAt), string(status))
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET settlement_date = ?, status = ? WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("settle transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("settle transactions: %w", err)
	}
	slog.InfoContext(ctx, "Transactions settled", "requested", len(ids), "updated", n)
	return n, nil
}

func (r *SQLiteRepository) CountTransactionsByStatement(ctx context.Context, statementID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE statement_id = ?`, statementID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count statement transactions: %w", err)
	}
	return n, nil
}

// SumStatementExpenses totals the expense entries linked to a statement.
// Amounts are TEXT decimals, so the sum happens here rather than in SQL.
func (r *SQLiteRepository) SumStatementExpenses(ctx context.Context, statementID int64) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT amount FROM transactions WHERE statement_id = ? AND kind = ?`,
		statementID, string(core.Expense))
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum statement expenses: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		v, err := scanDecimal(amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(v)
	}
	return total, rows.Err()
}
