package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SignRules is the vocabulary used to infer the sign of non-negative amounts.
// Type tokens match a whole trimmed txn_type value; keywords match as
// substrings of the combined row text.
type SignRules struct {
	DebitTypes      []string
	CreditTypes     []string
	IncomeKeywords  []string
	ExpenseKeywords []string
}

// DefaultSignRules returns the built-in sign vocabulary.
func DefaultSignRules() SignRules {
	return SignRules{
		DebitTypes:  []string{"debit", "withdrawal", "payment", "purchase", "fee", "dr", "out"},
		CreditTypes: []string{"credit", "deposit", "refund", "income", "cr", "in"},
		IncomeKeywords: []string{
			"income", "salary", "payroll", "deposit", "interest", "refund", "rebate", "dividend", "bonus",
		},
		ExpenseKeywords: []string{
			"grocery", "rent", "subscription", "payment", "purchase", "expense", "withdrawal",
			"debit", "fee", "coffee", "restaurant", "transfer out", "transfer-out",
		},
	}
}

// Resolve returns the signed amount and whether it was forced negative.
// Negative amounts are returned unchanged. For anything else the txn_type
// token decides first, then keywords over text; with no signal at all the
// amount is treated as an outflow.
func (r SignRules) Resolve(amount decimal.Decimal, txnType, text string) (decimal.Decimal, bool) {
	if amount.IsNegative() {
		return amount, false
	}
	tt := strings.ToLower(strings.TrimSpace(txnType))
	switch {
	case contains(r.DebitTypes, tt):
		return amount.Abs().Neg(), true
	case contains(r.CreditTypes, tt):
		return amount.Abs(), false
	}

	lower := strings.ToLower(text)
	income := containsAny(lower, r.IncomeKeywords)
	expense := containsAny(lower, r.ExpenseKeywords)
	switch {
	case expense && !income:
		return amount.Abs().Neg(), true
	case !income:
		// no signal either way
		return amount.Abs().Neg(), true
	}
	return amount, false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
