package core

import "github.com/shopspring/decimal"

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year       int
	Month      int // 1-12
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Net        decimal.Decimal
	ByCategory []CategoryAmount
}

// AccountBalance separates the real (settled) balance from the projected
// pending amounts of one account.
type AccountBalance struct {
	AccountID           int64
	Settled             decimal.Decimal
	ProjectedReceivable decimal.Decimal
	ProjectedPayable    decimal.Decimal
}
