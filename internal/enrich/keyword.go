package enrich

import (
	"context"
	"strings"

	"github.com/cleared-dev/finsight/internal/model"
)

type keywordRule struct {
	words      []string
	category   string
	confidence float64
}

var keywordRules = []keywordRule{
	{[]string{"grocery", "groceries", "wholefoods", "trader joe", "kroger", "safeway"}, "Groceries", 0.92},
	{[]string{"coffee", "starbucks", "cafe", "drink", "restaurant", "dining", "pizza", "chipotle", "mcdonald", "burger"}, "Food & Drink", 0.87},
	{[]string{"uber", "lyft", "gas", "shell", "exxon", "transport", "bus", "train", "metro", "taxi"}, "Transport", 0.88},
	{[]string{"netflix", "spotify", "hulu", "disney", "prime video", "subscription", "subscrip", "monthly plan"}, "Subscriptions", 0.9},
	{[]string{"rent", "mortgage", "landlord", "apartment"}, "Housing", 0.9},
	{[]string{"pharmacy", "doctor", "hospital", "clinic", "health", "dental"}, "Health", 0.88},
	{[]string{"amazon", "walmart", "target", "store", "mall", "shopping"}, "Shopping", 0.86},
	{[]string{"cinema", "movie", "theater", "entertainment", "concert", "ticket"}, "Entertainment", 0.85},
	{[]string{"salary", "payroll", "bonus", "dividend", "interest", "refund", "rebate"}, "Income", 0.95},
}

// KeywordCategorizer matches description and merchant against fixed keyword
// lists and falls back to Other.
type KeywordCategorizer struct {
	Model string
}

// Categorize implements Categorizer.
func (k KeywordCategorizer) Categorize(_ context.Context, t model.Transaction) (Suggestion, error) {
	text := strings.ToLower(t.Description + " " + t.Merchant)
	for _, r := range keywordRules {
		for _, w := range r.words {
			if strings.Contains(text, w) {
				return k.suggest(r.category, r.confidence), nil
			}
		}
	}
	return k.suggest("Other", 0.75), nil
}

func (k KeywordCategorizer) suggest(category string, confidence float64) Suggestion {
	name := k.Model
	if name == "" {
		name = "keyword"
	}
	return Suggestion{Category: category, Confidence: &confidence, Model: name}
}

// Prompt is the categorization request sent to text-generation backends.
func Prompt(t model.Transaction) string {
	return "You are a financial transaction categorizer. Given a description and merchant, " +
		"choose ONE best-fit category from this list: " + strings.Join(AllowedCategories, ", ") + ".\n" +
		"Return ONLY raw JSON object with keys category, confidence (0-1).\n" +
		"Description: " + t.Description + "\nMerchant: " + t.Merchant
}
