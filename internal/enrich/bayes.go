package enrich

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/cleared-dev/finsight/internal/model"
)

// ErrTooFewClasses is returned when training data has fewer than two
// categories.
var ErrTooFewClasses = errors.New("need at least two categories to train")

// BayesCategorizer is a naive Bayes classifier trained on categorized
// transactions.
type BayesCategorizer struct {
	cl *bayesian.Classifier
}

// TrainBayes learns from every transaction whose category is in allowed
// (nil means AllowedCategories).
func TrainBayes(txns []model.Transaction, allowed []string) (*BayesCategorizer, error) {
	if allowed == nil {
		allowed = AllowedCategories
	}
	ok := make(map[string]bool, len(allowed))
	for _, c := range allowed {
		ok[c] = true
	}

	seen := make(map[string]bool)
	for _, t := range txns {
		if c := t.CategoryValue(); ok[c] {
			seen[c] = true
		}
	}
	if len(seen) < 2 {
		return nil, ErrTooFewClasses
	}
	names := make([]string, 0, len(seen))
	for c := range seen {
		names = append(names, c)
	}
	sort.Strings(names)
	classes := make([]bayesian.Class, len(names))
	for i, c := range names {
		classes[i] = bayesian.Class(c)
	}

	cl := bayesian.NewClassifier(classes...)
	for _, t := range txns {
		if c := t.CategoryValue(); seen[c] {
			cl.Learn(terms(t), bayesian.Class(c))
		}
	}
	return &BayesCategorizer{cl: cl}, nil
}

// Categorize implements Categorizer.
func (b *BayesCategorizer) Categorize(_ context.Context, t model.Transaction) (Suggestion, error) {
	scores, inx, _ := b.cl.ProbScores(terms(t))
	conf := scores[inx]
	return Suggestion{
		Category:   string(b.cl.Classes[inx]),
		Confidence: &conf,
		Model:      "bayes",
	}, nil
}

func terms(t model.Transaction) []string {
	s := strings.ToLower(t.Description + " " + t.Merchant)
	s = strings.NewReplacer("*", " ", "#", " ", ",", " ").Replace(s)
	return strings.Fields(s)
}
