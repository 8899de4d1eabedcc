// Package enrich suggests categories for transactions and records each
// suggestion as a model category record.
package enrich

import (
	"context"
	"sort"
	"time"

	"github.com/cleared-dev/finsight/internal/model"
)

// AllowedCategories is the default closed label set.
var AllowedCategories = []string{
	"Income", "Groceries", "Food & Drink", "Transport", "Subscriptions",
	"Housing", "Shopping", "Entertainment", "Health", "Other",
}

// Suggestion is a categorizer's answer for one transaction.
type Suggestion struct {
	Category   string
	Confidence *float64
	Model      string
}

// Categorizer suggests a category for a transaction.
type Categorizer interface {
	Categorize(ctx context.Context, t model.Transaction) (Suggestion, error)
}

// Options controls promotion.
type Options struct {
	Promote           bool
	MinConfidence     float64
	OverwriteExisting bool
	Allowed           []string // nil means AllowedCategories
}

// DefaultOptions promotes suggestions with confidence >= 0.8 onto
// uncategorized transactions.
func DefaultOptions() Options {
	return Options{Promote: true, MinConfidence: 0.8}
}

// Update sets a transaction's live category.
type Update struct {
	TransactionID uint64
	Category      string
}

// Result is the writes produced by Run.
type Result struct {
	Processed []uint64
	Updates   []Update
	Records   []model.CategoryRecord
}

// Promoted returns the ids whose category changes.
func (r Result) Promoted() []uint64 {
	ids := make([]uint64, len(r.Updates))
	for i, u := range r.Updates {
		ids[i] = u.TransactionID
	}
	return ids
}

// Run asks cat about every transaction. Suggestions outside the allowed set
// and categorizer errors skip the transaction. A suggestion is promoted when
// promotion is on, it carries a confidence of at least MinConfidence, and
// the transaction has no category or overwriting is allowed.
func Run(ctx context.Context, cat Categorizer, txns []model.Transaction, opts Options, now time.Time) Result {
	allowed := make(map[string]bool)
	list := opts.Allowed
	if list == nil {
		list = AllowedCategories
	}
	for _, c := range list {
		allowed[c] = true
	}

	var res Result
	for _, t := range txns {
		s, err := cat.Categorize(ctx, t)
		if err != nil || s.Category == "" || !allowed[s.Category] {
			continue
		}
		rec := model.CategoryRecord{
			TransactionID: t.ID,
			Source:        model.SourceModel,
			Category:      s.Category,
			Confidence:    s.Confidence,
			Model:         s.Model,
			CreatedAt:     now,
		}
		if opts.Promote && s.Confidence != nil && *s.Confidence >= opts.MinConfidence &&
			(opts.OverwriteExisting || t.CategoryValue() == "") {
			rec.Promoted = true
			rec.OriginalCategory = t.Category
			res.Updates = append(res.Updates, Update{TransactionID: t.ID, Category: s.Category})
		}
		res.Records = append(res.Records, rec)
		res.Processed = append(res.Processed, t.ID)
	}
	return res
}

// SelectCandidates returns up to limit transactions, newest id first,
// skipping categorized ones when onlyUncategorized is set and those in
// enriched unless includeEnriched is set.
func SelectCandidates(txns []model.Transaction, enriched map[uint64]bool, onlyUncategorized, includeEnriched bool, limit int) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if onlyUncategorized && !t.IsUncategorized() {
			continue
		}
		if !includeEnriched && enriched[t.ID] {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
