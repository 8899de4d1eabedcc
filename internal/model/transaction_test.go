package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTransactionIsExpense(t *testing.T) {
	assert.True(t, Transaction{Amount: decimal.RequireFromString("-3.50")}.IsExpense())
	assert.False(t, Transaction{Amount: decimal.RequireFromString("3.50")}.IsExpense())
	assert.False(t, Transaction{Amount: decimal.Zero}.IsExpense())
}

func TestTransactionCategory(t *testing.T) {
	tests := []struct {
		name          string
		category      *string
		wantValue     string
		wantHas       bool
		wantUncatgzed bool
	}{
		{"absent", nil, "", false, true},
		{"empty", StringPtr(""), "", false, true},
		{"blank", StringPtr("  "), "  ", false, true},
		{"placeholder", StringPtr("Uncategorized"), "Uncategorized", true, true},
		{"set", StringPtr("Groceries"), "Groceries", true, false},
	}
	for _, tt := range tests {
		txn := Transaction{Category: tt.category}
		assert.Equal(t, tt.wantValue, txn.CategoryValue(), tt.name)
		assert.Equal(t, tt.wantHas, txn.HasCategory(), tt.name)
		assert.Equal(t, tt.wantUncatgzed, txn.IsUncategorized(), tt.name)
	}
}
