package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "carteira.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestAccountRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.CreateAccount(ctx, core.Account{
		Name:           "Conta Corrente",
		Kind:           core.BankAccount,
		Active:         true,
		OpeningBalance: decimal.RequireFromString("1234.56"),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("CreateAccount returned zero id")
	}

	got, err := repo.GetAccount(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if got.Name != "Conta Corrente" || got.Kind != core.BankAccount {
		t.Errorf("GetAccount = %+v", got)
	}
	if !got.OpeningBalance.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("OpeningBalance = %s, want 1234.56", got.OpeningBalance)
	}
}

func TestAccountDuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.CreateAccount(ctx, core.Account{Name: "Nubank", Kind: core.CardAccount, Active: true}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	_, err := repo.CreateAccount(ctx, core.Account{Name: "Nubank", Kind: core.BankAccount, Active: true})
	if !errors.Is(err, core.ErrDuplicateName) {
		t.Errorf("duplicate CreateAccount error = %v, want ErrDuplicateName", err)
	}
}

func TestCardOpeningBalanceForcedToZero(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created, err := repo.CreateAccount(ctx, core.Account{
		Name:           "Cartão Nu",
		Kind:           core.CardAccount,
		Active:         true,
		OpeningBalance: decimal.RequireFromString("500.00"),
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if !created.OpeningBalance.IsZero() {
		t.Errorf("card OpeningBalance = %s, want 0", created.OpeningBalance)
	}
}

func TestGetAccountNotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetAccount(context.Background(), 404)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetAccount error = %v, want ErrNotFound", err)
	}
}

func TestSeededCategories(t *testing.T) {
	repo := newRepo(t)

	categories, err := repo.ListCategories(context.Background(), true)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	names := make(map[string]bool, len(categories))
	for _, c := range categories {
		names[c.Name] = true
	}
	for _, want := range []string{"Moradia", "Alimentação", "Receitas"} {
		if !names[want] {
			t.Errorf("seeded category %q missing", want)
		}
	}
}

func TestFindCoveringStatement(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	card, err := repo.CreateAccount(ctx, core.Account{Name: "Cartão", Kind: core.CardAccount, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	march, err := repo.InsertStatement(ctx, core.Statement{
		AccountID:    card.ID,
		BillingMonth: day(2026, time.March, 1),
		PeriodStart:  day(2026, time.February, 5),
		PeriodEnd:    day(2026, time.March, 4),
		ClosingDate:  day(2026, time.March, 4),
		DueDate:      day(2026, time.March, 12),
		Status:       core.StatementOpen,
	})
	if err != nil {
		t.Fatalf("InsertStatement: %v", err)
	}

	st, err := repo.FindCoveringStatement(ctx, card.ID, day(2026, time.February, 20))
	if err != nil {
		t.Fatalf("FindCoveringStatement: %v", err)
	}
	if st == nil || st.ID != march.ID {
		t.Errorf("FindCoveringStatement = %+v, want statement %d", st, march.ID)
	}

	// Period boundaries are inclusive on both ends.
	for _, d := range []time.Time{day(2026, time.February, 5), day(2026, time.March, 4)} {
		st, err := repo.FindCoveringStatement(ctx, card.ID, d)
		if err != nil {
			t.Fatalf("FindCoveringStatement(%s): %v", d, err)
		}
		if st == nil {
			t.Errorf("FindCoveringStatement(%s) = nil, want statement", d.Format("2006-01-02"))
		}
	}

	st, err = repo.FindCoveringStatement(ctx, card.ID, day(2026, time.March, 5))
	if err != nil {
		t.Fatalf("FindCoveringStatement: %v", err)
	}
	if st != nil {
		t.Errorf("FindCoveringStatement outside all periods = %+v, want nil", st)
	}

	// A second, adjacent statement must not steal dates from the first.
	april, err := repo.InsertStatement(ctx, core.Statement{
		AccountID:    card.ID,
		BillingMonth: day(2026, time.April, 1),
		PeriodStart:  day(2026, time.March, 5),
		PeriodEnd:    day(2026, time.April, 4),
		ClosingDate:  day(2026, time.April, 4),
		DueDate:      day(2026, time.April, 12),
		Status:       core.StatementOpen,
	})
	if err != nil {
		t.Fatalf("InsertStatement: %v", err)
	}

	for _, tc := range []struct {
		date time.Time
		want int64
	}{
		{day(2026, time.February, 20), march.ID},
		{day(2026, time.March, 4), march.ID},
		{day(2026, time.March, 5), april.ID},
	} {
		st, err := repo.FindCoveringStatement(ctx, card.ID, tc.date)
		if err != nil {
			t.Fatalf("FindCoveringStatement(%s): %v", tc.date.Format("2006-01-02"), err)
		}
		if st == nil || st.ID != tc.want {
			t.Errorf("FindCoveringStatement(%s) = %+v, want statement %d", tc.date.Format("2006-01-02"), st, tc.want)
		}
	}

	// When periods overlap, the latest period end wins.
	late, err := repo.InsertStatement(ctx, core.Statement{
		AccountID:    card.ID,
		BillingMonth: day(2026, time.May, 1),
		PeriodStart:  day(2026, time.March, 20),
		PeriodEnd:    day(2026, time.April, 10),
		ClosingDate:  day(2026, time.April, 10),
		DueDate:      day(2026, time.April, 18),
		Status:       core.StatementOpen,
	})
	if err != nil {
		t.Fatalf("InsertStatement: %v", err)
	}
	st, err = repo.FindCoveringStatement(ctx, card.ID, day(2026, time.March, 25))
	if err != nil {
		t.Fatalf("FindCoveringStatement: %v", err)
	}
	if st == nil || st.ID != late.ID {
		t.Errorf("FindCoveringStatement in overlap = %+v, want statement %d", st, late.ID)
	}
}

func TestDuplicateStatementMonth(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	card, err := repo.CreateAccount(ctx, core.Account{Name: "Cartão", Kind: core.CardAccount, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	base := core.Statement{
		AccountID:    card.ID,
		BillingMonth: day(2026, time.March, 1),
		PeriodStart:  day(2026, time.February, 5),
		PeriodEnd:    day(2026, time.March, 4),
		ClosingDate:  day(2026, time.March, 4),
		DueDate:      day(2026, time.March, 12),
		Status:       core.StatementOpen,
	}
	if _, err := repo.InsertStatement(ctx, base); err != nil {
		t.Fatalf("InsertStatement: %v", err)
	}
	if _, err := repo.InsertStatement(ctx, base); !errors.Is(err, core.ErrDuplicateStatement) {
		t.Errorf("duplicate InsertStatement error = %v, want ErrDuplicateStatement", err)
	}
}

func TestSumStatementExpenses(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	card, err := repo.CreateAccount(ctx, core.Account{Name: "Cartão", Kind: core.CardAccount, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	st, err := repo.InsertStatement(ctx, core.Statement{
		AccountID:    card.ID,
		BillingMonth: day(2026, time.March, 1),
		PeriodStart:  day(2026, time.February, 5),
		PeriodEnd:    day(2026, time.March, 4),
		ClosingDate:  day(2026, time.March, 4),
		DueDate:      day(2026, time.March, 12),
		Status:       core.StatementOpen,
	})
	if err != nil {
		t.Fatalf("InsertStatement: %v", err)
	}

	for _, amt := range []string{"100.10", "200.20"} {
		_, err := repo.InsertTransaction(ctx, core.Transaction{
			Kind:        core.Expense,
			Description: "Compra",
			Amount:      decimal.RequireFromString(amt),
			BookingDate: day(2026, time.February, 10),
			AccountID:   card.ID,
			StatementID: &st.ID,
			Status:      core.StatusPending,
		})
		if err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
	}
	// An income on the statement is not part of the expense total.
	if _, err := repo.InsertTransaction(ctx, core.Transaction{
		Kind:        core.Income,
		Description: "Estorno",
		Amount:      decimal.RequireFromString("50.00"),
		BookingDate: day(2026, time.February, 12),
		AccountID:   card.ID,
		StatementID: &st.ID,
		Status:      core.StatusPending,
	}); err != nil {
		t.Fatalf("InsertTransaction: %v", err)
	}

	total, err := repo.SumStatementExpenses(ctx, st.ID)
	if err != nil {
		t.Fatalf("SumStatementExpenses: %v", err)
	}
	if want := decimal.RequireFromString("300.30"); !total.Equal(want) {
		t.Errorf("SumStatementExpenses = %s, want %s", total, want)
	}

	n, err := repo.CountTransactionsByStatement(ctx, st.ID)
	if err != nil {
		t.Fatalf("CountTransactionsByStatement: %v", err)
	}
	if n != 3 {
		t.Errorf("CountTransactionsByStatement = %d, want 3", n)
	}
}

func TestSettleTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	bank, err := repo.CreateAccount(ctx, core.Account{Name: "Conta", Kind: core.BankAccount, Active: true})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	var ids []int64
	for i := 0; i < 2; i++ {
		tx, err := repo.InsertTransaction(ctx, core.Transaction{
			Kind:        core.Expense,
			Description: "Conta de luz",
			Amount:      decimal.RequireFromString("80.00"),
			BookingDate: day(2026, time.April, 1),
			AccountID:   bank.ID,
			Status:      core.StatusPending,
		})
		if err != nil {
			t.Fatalf("InsertTransaction: %v", err)
		}
		ids = append(ids, tx.ID)
	}

	settledAt := day(2026, time.April, 3)
	n, err := repo.SettleTransactions(ctx, ids, settledAt, core.StatusPaid)
	if err != nil {
		t.Fatalf("SettleTransactions: %v", err)
	}
	if n != 2 {
		t.Errorf("SettleTransactions = %d rows, want 2", n)
	}

	for _, id := range ids {
		tx, err := repo.GetTransaction(ctx, id)
		if err != nil {
			t.Fatalf("GetTransaction: %v", err)
		}
		if tx.Status != core.StatusPaid || tx.SettlementDate == nil {
			t.Errorf("transaction %d = status %s, settlement %v", id, tx.Status, tx.SettlementDate)
		}
		if !tx.SettlementDate.Equal(settledAt) {
			t.Errorf("SettlementDate = %s, want %s", tx.SettlementDate, settledAt)
		}
	}
}
