package importer

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignRules_Resolve(t *testing.T) {
	rules := DefaultSignRules()
	tests := []struct {
		name     string
		amount   string
		txnType  string
		text     string
		want     string
		inferred bool
	}{
		{"negative trusted", "-5.00", "credit", "salary", "-5.00", false},
		{"debit token", "10.00", " Withdrawal ", "", "-10.00", true},
		{"credit token", "10.00", "CR", "coffee", "10.00", false},
		{"token must match whole value", "10.00", "credit card", "salary", "10.00", false},
		{"income keyword", "10.00", "", "monthly salary", "10.00", false},
		{"expense keyword", "10.00", "", "coffee beans", "-10.00", true},
		{"both keywords keep", "10.00", "", "refund of payment", "10.00", false},
		{"no signal is outflow", "10.00", "", "mystery", "-10.00", true},
		{"multiword keyword", "10.00", "", "transfer out to savings", "-10.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, inferred := rules.Resolve(decimal.RequireFromString(tt.amount), tt.txnType, tt.text)
			assert.Equal(t, tt.want, got.StringFixed(2))
			assert.Equal(t, tt.inferred, inferred)
		})
	}
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	c := DefaultClassifier()

	got := c.Classify("Starbucks market", "")
	require.NotNil(t, got)
	assert.Equal(t, "Food & Drink", *got)

	got = c.Classify("Trip", "UBER")
	require.NotNil(t, got)
	assert.Equal(t, "Transport", *got)

	assert.Nil(t, c.Classify("Hardware store", "Bolts"))
}

func TestClassifier_CustomRules(t *testing.T) {
	rules := []Rule{{regexp.MustCompile(`(?i)gym`), "Health"}}
	c := NewClassifier(rules)
	rules[0].Label = "changed"

	got := c.Classify("City Gym", "")
	require.NotNil(t, got)
	assert.Equal(t, "Health", *got)
	assert.Nil(t, c.Classify("Coffee", ""))
}
