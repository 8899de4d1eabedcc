package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnknownDescription replaces blank narrative text at ingestion.
const UnknownDescription = "UNKNOWN"

// Transaction is a normalized, persisted bank/card transaction.
type Transaction struct {
	ID          uint64          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // negative = outflow, positive = inflow
	Merchant    string          `json:"merchant"`
	Category    *string         `json:"category"`            // nil = no category
	ImportID    string          `json:"import_id,omitempty"` // batch that created the row, empty for manual rows
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// CategoryValue returns the category or "" when absent.
func (t Transaction) CategoryValue() string {
	if t.Category == nil {
		return ""
	}
	return *t.Category
}

// HasCategory reports whether a non-blank category is set.
func (t Transaction) HasCategory() bool {
	return t.Category != nil && strings.TrimSpace(*t.Category) != ""
}

// IsUncategorized reports whether the category is absent, blank, or an
// "uncategorized" placeholder label.
func (t Transaction) IsUncategorized() bool {
	if !t.HasCategory() {
		return true
	}
	return strings.Contains(strings.ToLower(*t.Category), "uncategorized")
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
