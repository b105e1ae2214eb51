package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"carteira/internal/core"
	ports "carteira/internal/sheets"
)

var _ ports.ReportWriter = (*Store)(nil)

func TestWriteMonthOverview(t *testing.T) {
	s := New()

	ref, err := s.WriteMonthOverview(context.Background(), core.MonthOverview{
		Year:    2026,
		Month:   3,
		Income:  decimal.RequireFromString("3000"),
		Expense: decimal.RequireFromString("1200.50"),
		Net:     decimal.RequireFromString("1799.50"),
	})
	if err != nil {
		t.Fatalf("WriteMonthOverview: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	got := s.Reports()
	if len(got) != 1 {
		t.Fatalf("len(Reports) = %d, want 1", len(got))
	}
	if got[0].Year != 2026 || got[0].Month != 3 {
		t.Errorf("stored overview = %d-%02d, want 2026-03", got[0].Year, got[0].Month)
	}
}
