// Package storage persists the ledger in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// querier lets the row scanners run against either the pool or an open Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func dateString(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func nullableDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func scanDecimal(s string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode amount %q: %w", s, err)
	}
	return v, nil
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	if a.Kind == core.CardAccount {
		// Cards carry no funds of their own.
		a.OpeningBalance = decimal.Zero
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, kind, active, opening_balance) VALUES (?, ?, ?, ?)`,
		strings.TrimSpace(a.Name), string(a.Kind), a.Active, a.OpeningBalance.String())
	if isUniqueViolation(err) {
		return core.Account{}, fmt.Errorf("account %q: %w", a.Name, core.ErrDuplicateName)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	a.Name = strings.TrimSpace(a.Name)

	slog.InfoContext(ctx, "Account created", "id", a.ID, "name", a.Name, "kind", a.Kind)
	return a, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	return getAccount(ctx, r.db, id)
}

func getAccount(ctx context.Context, q querier, id int64) (*core.Account, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, kind, active, opening_balance FROM accounts WHERE id = ?`, id)

	var a core.Account
	var kind, balance string
	err := row.Scan(&a.ID, &a.Name, &kind, &a.Active, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	a.Kind = core.AccountKind(kind)
	if a.OpeningBalance, err = scanDecimal(balance); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, onlyActive bool) ([]core.Account, error) {
	query := `SELECT id, name, kind, active, opening_balance FROM accounts ORDER BY name`
	if onlyActive {
		query = `SELECT id, name, kind, active, opening_balance FROM accounts WHERE active = 1 ORDER BY name`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var kind, balance string
		if err := rows.Scan(&a.ID, &a.Name, &kind, &a.Active, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Kind = core.AccountKind(kind)
		if a.OpeningBalance, err = scanDecimal(balance); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.Kind == core.CardAccount {
		a.OpeningBalance = decimal.Zero
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, active = ?, opening_balance = ? WHERE id = ?`,
		strings.TrimSpace(a.Name), a.Active, a.OpeningBalance.String(), a.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("account %q: %w", a.Name, core.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", a.ID, core.ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, active) VALUES (?, ?)`,
		strings.TrimSpace(c.Name), c.Active)
	if isUniqueViolation(err) {
		return core.Category{}, fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateName)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	c.Name = strings.TrimSpace(c.Name)
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, active FROM categories WHERE id = ?`, id)

	var c core.Category
	err := row.Scan(&c.ID, &c.Name, &c.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, onlyActive bool) ([]core.Category, error) {
	query := `SELECT id, name, active FROM categories ORDER BY name`
	if onlyActive {
		query = `SELECT id, name, active FROM categories WHERE active = 1 ORDER BY name`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCategory edits the name and active flag. Deactivation keeps the id
// referenced by historical transactions.
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, active = ? WHERE id = ?`,
		strings.TrimSpace(c.Name), c.Active, c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("category %q: %w", c.Name, core.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", c.ID, core.ErrNotFound)
	}
	return nil
}
