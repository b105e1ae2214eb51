package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SplitMode selects how the allocator interprets the amount of a preview.
type SplitMode string

const (
	// ModeSplitTotal divides one total across the installments.
	ModeSplitTotal SplitMode = "split_total"
	// ModeRepeatAmount books the same amount every month.
	ModeRepeatAmount SplitMode = "repeat_amount"
)

// SplitTotal divides total into count installments rounded to cents. Every
// installment equals round(total/count, 2) except the last, which absorbs
// the rounding residual so the sequence sums exactly to round(total, 2).
// count below 1 is clamped to 1.
func SplitTotal(total decimal.Decimal, count int) []decimal.Decimal {
	if count < 1 {
		count = 1
	}
	rounded := total.Round(2)
	if count == 1 {
		return []decimal.Decimal{rounded}
	}

	each := total.Div(decimal.NewFromInt(int64(count))).Round(2)
	out := make([]decimal.Decimal, count)
	sum := decimal.Zero
	for i := 0; i < count-1; i++ {
		out[i] = each
		sum = sum.Add(each)
	}
	out[count-1] = rounded.Sub(sum)
	return out
}

// RepeatAmount returns count copies of round(amount, 2). No reconciliation
// applies: repeat mode does not claim a fixed total. count below 1 is
// clamped to 1.
func RepeatAmount(amount decimal.Decimal, count int) []decimal.Decimal {
	if count < 1 {
		count = 1
	}
	rounded := amount.Round(2)
	out := make([]decimal.Decimal, count)
	for i := range out {
		out[i] = rounded
	}
	return out
}

// AddMonths advances a date by n calendar months, preserving the day of
// month where possible and clamping to the last day otherwise: Jan 31 plus
// one month lands on Feb 28 (29 in leap years), not Mar 2 or 3.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

// PreviewParams describes one installment plan to expand.
type PreviewParams struct {
	Description   string
	Count         int
	StartDate     time.Time
	Mode          SplitMode
	Amount        decimal.Decimal // total or per-installment, per Mode
	Kind          TransactionKind
	AccountID     int64
	StatementID   *int64
	CategoryID    *int64
	PaymentMethod string
	Status        TransactionStatus
}

// BuildPreview expands an installment plan into an in-memory draft list.
// Installment i is booked at StartDate + i months and labelled "i+1/count"
// when there is more than one. Drafts for already-paid plans get now as
// their settlement date. Nothing is persisted here: committing the drafts
// is a separate, explicit step so the caller can review and edit first.
//
// Business validation (rejecting zero amounts and the like) is deliberately
// left to the ledger at commit time; the allocator accepts what it is given.
func BuildPreview(p PreviewParams, now time.Time) []TransactionDraft {
	count := p.Count
	if count < 1 {
		count = 1
	}

	var amounts []decimal.Decimal
	if p.Mode == ModeRepeatAmount {
		amounts = RepeatAmount(p.Amount, count)
	} else {
		amounts = SplitTotal(p.Amount, count)
	}

	status := p.Status
	if !ValidStatus(status) {
		status = StatusPending
	}

	drafts := make([]TransactionDraft, count)
	for i := 0; i < count; i++ {
		d := TransactionDraft{
			Kind:          p.Kind,
			Description:   p.Description,
			Amount:        amounts[i],
			BookingDate:   AddMonths(p.StartDate, i),
			AccountID:     p.AccountID,
			StatementID:   p.StatementID,
			CategoryID:    p.CategoryID,
			PaymentMethod: p.PaymentMethod,
			Status:        status,
		}
		if count > 1 {
			d.InstallmentLabel = fmt.Sprintf("%d/%d", i+1, count)
		}
		if status == StatusPaid {
			settled := now
			d.SettlementDate = &settled
		}
		drafts[i] = d
	}
	return drafts
}
