package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSplitTotalReconciles(t *testing.T) {
	totals := []string{"100.00", "0.01", "10.00", "1630.00", "99.99", "333.33", "0.59", "12345.67"}
	for _, ts := range totals {
		total := decimal.RequireFromString(ts)
		for count := 1; count <= 60; count++ {
			parts := SplitTotal(total, count)
			if len(parts) != count {
				t.Fatalf("SplitTotal(%s, %d): got %d parts", ts, count, len(parts))
			}
			sum := decimal.Zero
			for _, p := range parts {
				sum = sum.Add(p)
			}
			if !sum.Equal(total.Round(2)) {
				t.Fatalf("SplitTotal(%s, %d): sum %s != %s", ts, count, sum, total.Round(2))
			}
		}
	}
}

func TestSplitTotalValues(t *testing.T) {
	parts := SplitTotal(decimal.RequireFromString("100.00"), 3)
	want := []string{"33.33", "33.33", "33.34"}
	for i, w := range want {
		if !parts[i].Equal(decimal.RequireFromString(w)) {
			t.Fatalf("part %d = %s, want %s", i, parts[i], w)
		}
	}
}

func TestSplitTotalClampsCount(t *testing.T) {
	for _, count := range []int{0, -5} {
		parts := SplitTotal(decimal.RequireFromString("50.00"), count)
		if len(parts) != 1 || !parts[0].Equal(decimal.RequireFromString("50.00")) {
			t.Fatalf("count %d: got %v", count, parts)
		}
	}
}

func TestRepeatAmount(t *testing.T) {
	parts := RepeatAmount(decimal.RequireFromString("19.999"), 6)
	if len(parts) != 6 {
		t.Fatalf("got %d parts", len(parts))
	}
	want := decimal.RequireFromString("20.00")
	for i, p := range parts {
		if !p.Equal(want) {
			t.Fatalf("part %d = %s, want %s", i, p, want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"2025-01-15", 1, "2025-02-15"},
		{"2025-01-31", 1, "2025-02-28"}, // clamp to last day
		{"2024-01-31", 1, "2024-02-29"}, // leap year
		{"2025-01-31", 2, "2025-03-31"},
		{"2025-10-31", 4, "2026-02-28"}, // crosses year boundary
		{"2025-03-31", 1, "2025-04-30"},
		{"2025-06-10", 0, "2025-06-10"},
		{"2025-12-05", 1, "2026-01-05"},
	}
	for _, tc := range cases {
		in, _ := time.Parse("2006-01-02", tc.in)
		got := AddMonths(in, tc.n)
		if got.Format("2006-01-02") != tc.want {
			t.Fatalf("AddMonths(%s, %d) = %s, want %s", tc.in, tc.n, got.Format("2006-01-02"), tc.want)
		}
	}
}

func TestBuildPreview(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2025-01-31")
	now, _ := time.Parse("2006-01-02", "2025-01-10")

	drafts := BuildPreview(PreviewParams{
		Description: "Notebook",
		Count:       3,
		StartDate:   start,
		Mode:        ModeSplitTotal,
		Amount:      decimal.RequireFromString("1000.00"),
		Kind:        Expense,
		AccountID:   1,
		Status:      StatusPending,
	}, now)

	if len(drafts) != 3 {
		t.Fatalf("got %d drafts", len(drafts))
	}

	wantDates := []string{"2025-01-31", "2025-02-28", "2025-03-31"}
	wantLabels := []string{"1/3", "2/3", "3/3"}
	for i, d := range drafts {
		if d.BookingDate.Format("2006-01-02") != wantDates[i] {
			t.Fatalf("draft %d date = %s, want %s", i, d.BookingDate.Format("2006-01-02"), wantDates[i])
		}
		if d.InstallmentLabel != wantLabels[i] {
			t.Fatalf("draft %d label = %q, want %q", i, d.InstallmentLabel, wantLabels[i])
		}
		if d.SettlementDate != nil {
			t.Fatalf("draft %d should not be settled", i)
		}
	}

	sum := decimal.Zero
	for _, d := range drafts {
		sum = sum.Add(d.Amount)
	}
	if !sum.Equal(decimal.RequireFromString("1000.00")) {
		t.Fatalf("drafts sum to %s", sum)
	}
}

func TestBuildPreviewSingleAndPaid(t *testing.T) {
	start, _ := time.Parse("2006-01-02", "2025-05-10")
	now, _ := time.Parse("2006-01-02", "2025-05-11")

	drafts := BuildPreview(PreviewParams{
		Description: "Mercado",
		Count:       1,
		StartDate:   start,
		Mode:        ModeRepeatAmount,
		Amount:      decimal.RequireFromString("250.00"),
		Kind:        Expense,
		AccountID:   1,
		Status:      StatusPaid,
	}, now)

	if len(drafts) != 1 {
		t.Fatalf("got %d drafts", len(drafts))
	}
	d := drafts[0]
	if d.InstallmentLabel != "" {
		t.Fatalf("single installment should have no label, got %q", d.InstallmentLabel)
	}
	if d.SettlementDate == nil || !d.SettlementDate.Equal(now) {
		t.Fatalf("paid draft should be settled at %s, got %v", now, d.SettlementDate)
	}
}
