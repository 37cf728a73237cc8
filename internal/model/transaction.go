package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single bank transaction as delivered by the aggregator.
type Transaction struct {
	ID           string
	Timestamp    time.Time
	Amount       decimal.Decimal // negative = debit/spend, positive = credit/income
	Description  string          // primary classification key
	MerchantName string          // frequently empty
	Category     string          // optional pre-assigned label, "" = absent
	Currency     string
}

// IsDebit reports whether the transaction is money going out.
func (t Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// IsCredit reports whether the transaction is money coming in.
func (t Transaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// Spend returns the absolute value of a debit, or zero for credits.
func (t Transaction) Spend() decimal.Decimal {
	if !t.IsDebit() {
		return decimal.Zero
	}
	return t.Amount.Abs()
}

// InWindow reports whether the timestamp falls within [start, end).
func (t Transaction) InWindow(start, end time.Time) bool {
	return !t.Timestamp.Before(start) && t.Timestamp.Before(end)
}
