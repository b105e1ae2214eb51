package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in  string
		out TransactionStatus
	}{
		{"Pago", StatusPaid},
		{"PAGO", StatusPaid},
		{"Recebido", StatusPaid},
		{"received", StatusPaid},
		{"Pendente", StatusPending},
		{"pending", StatusPending},
		{"Vencido", StatusOverdue},
		{"Cancelado", StatusCancelled},
		{"Agrupado", StatusGrouped},
		{" pago ", StatusPaid},
		{"", StatusPending},
		{"whatever", StatusPending},
	}
	for _, tc := range cases {
		if got := ParseStatus(tc.in); got != tc.out {
			t.Fatalf("ParseStatus(%q) = %s, want %s", tc.in, got, tc.out)
		}
	}
}

func TestDraftValidate(t *testing.T) {
	booking, _ := time.Parse("2006-01-02", "2025-03-01")
	good := TransactionDraft{
		Kind:        Expense,
		Description: "Internet",
		Amount:      decimal.RequireFromString("99.90"),
		BookingDate: booking,
		AccountID:   1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		mut  func(*TransactionDraft)
		want error
	}{
		{"empty description", func(d *TransactionDraft) { d.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(d *TransactionDraft) { d.Amount = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(d *TransactionDraft) { d.Amount = decimal.RequireFromString("-1") }, ErrInvalidAmount},
		{"bad kind", func(d *TransactionDraft) { d.Kind = "transfer" }, ErrInvalidKind},
		{"zero date", func(d *TransactionDraft) { d.BookingDate = time.Time{} }, ErrInvalidDate},
	}
	for _, tc := range cases {
		d := good
		tc.mut(&d)
		if err := d.Validate(); err != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestStatementValidate(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2025-02-01")
	end, _ := time.Parse("2006-01-02", "2025-02-28")
	st := Statement{BillingMonth: start, PeriodStart: start, PeriodEnd: end}
	if err := st.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	st.PeriodStart, st.PeriodEnd = end, start
	if err := st.Validate(); err != ErrInvalidPeriod {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestTransactionSettled(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		tx   Transaction
		want bool
	}{
		{"paid status", Transaction{Status: StatusPaid}, true},
		{"settlement date only", Transaction{Status: StatusPending, SettlementDate: &now}, true},
		{"pending", Transaction{Status: StatusPending}, false},
		{"overdue", Transaction{Status: StatusOverdue}, false},
	}
	for _, tc := range cases {
		if got := tc.tx.Settled(); got != tc.want {
			t.Fatalf("%s: Settled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDraftTransactionNormalizes(t *testing.T) {
	booking, _ := time.Parse("2006-01-02", "2025-03-01")
	d := TransactionDraft{
		Kind:        Income,
		Description: "  Consultoria  ",
		Amount:      decimal.RequireFromString("100.005"),
		BookingDate: booking,
		AccountID:   1,
		Status:      "bogus",
	}
	tx := d.Transaction()
	if tx.Description != "Consultoria" {
		t.Fatalf("description = %q", tx.Description)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("100.01")) {
		t.Fatalf("amount = %s", tx.Amount)
	}
	if tx.Status != StatusPending {
		t.Fatalf("status = %s", tx.Status)
	}
}
