// Package cluster groups uncategorized transactions by token overlap and
// labels each group.
package cluster

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/finsight/internal/model"
)

// LabelPrefix starts every cluster label.
const LabelPrefix = "Cluster: "

var (
	splitRe   = regexp.MustCompile(`[^a-z0-9]+`)
	stopwords = map[string]bool{
		"the": true, "and": true, "for": true, "to": true, "a": true, "of": true, "in": true,
		"at": true, "on": true, "store": true, "inc": true, "llc": true, "co": true,
		"payment": true, "purchase": true,
	}
)

// Options tunes clustering and promotion.
type Options struct {
	Threshold         float64 // minimum Jaccard similarity to the seed
	MinSize           int
	MaxTokens         int // label tokens
	Promote           bool
	OverwriteExisting bool
}

// DefaultOptions returns threshold 0.5, min size 2, two label tokens, and
// promotion of uncategorized members.
func DefaultOptions() Options {
	return Options{Threshold: 0.5, MinSize: 2, MaxTokens: 2, Promote: true}
}

// Cluster is a group of similar transactions.
type Cluster struct {
	Label         string              `json:"label"`
	Members       []model.Transaction `json:"members"`
	AvgSimilarity float64             `json:"avg_similarity"`
}

// Confidence is the average similarity clamped to [0.3, 0.99].
func (c Cluster) Confidence() float64 {
	return math.Min(0.99, math.Max(0.3, c.AvgSimilarity))
}

// Tokens returns the lowercased description and merchant tokens longer than
// two characters, without stopwords.
func Tokens(t model.Transaction) map[string]bool {
	base := strings.ToLower(t.Description + " " + t.Merchant)
	toks := make(map[string]bool)
	for _, w := range splitRe.Split(base, -1) {
		if len(w) > 2 && !stopwords[w] {
			toks[w] = true
		}
	}
	return toks
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both are empty.
func Jaccard(a, b map[string]bool) float64 {
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SelectCandidates returns up to limit transactions, newest id first. With
// onlyUncategorized set, categorized transactions are skipped.
func SelectCandidates(txns []model.Transaction, onlyUncategorized bool, limit int) []model.Transaction {
	var out []model.Transaction
	for _, t := range txns {
		if onlyUncategorized && !t.IsUncategorized() {
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

// Build clusters candidates greedily. Seeds are taken in candidate order;
// every remaining transaction whose similarity to the seed meets the
// threshold joins that seed's cluster. Clusters smaller than MinSize are
// dropped and their members stay unassigned.
func Build(candidates []model.Transaction, opts Options) []Cluster {
	tokens := make([]map[string]bool, len(candidates))
	for i, t := range candidates {
		tokens[i] = Tokens(t)
	}

	assigned := make([]bool, len(candidates))
	var clusters []Cluster
	for seed := range candidates {
		if assigned[seed] {
			continue
		}
		assigned[seed] = true
		members := []int{seed}
		var sims []float64
		for other := seed + 1; other < len(candidates); other++ {
			if assigned[other] || len(tokens[seed]) == 0 || len(tokens[other]) == 0 {
				continue
			}
			if j := Jaccard(tokens[seed], tokens[other]); j >= opts.Threshold {
				assigned[other] = true
				members = append(members, other)
				sims = append(sims, j)
			}
		}
		if len(members) < opts.MinSize {
			continue
		}

		c := Cluster{Label: label(members, tokens, opts.MaxTokens), AvgSimilarity: 1.0}
		if len(sims) > 0 {
			var sum float64
			for _, s := range sims {
				sum += s
			}
			c.AvgSimilarity = sum / float64(len(sims))
		}
		for _, m := range members {
			c.Members = append(c.Members, candidates[m])
		}
		clusters = append(clusters, c)
	}
	return clusters
}

// label joins the most frequent member tokens; ties break alphabetically.
func label(members []int, tokens []map[string]bool, maxTokens int) string {
	freq := make(map[string]int)
	for _, m := range members {
		for tok := range tokens[m] {
			freq[tok]++
		}
	}
	ranked := make([]string, 0, len(freq))
	for tok := range freq {
		ranked = append(ranked, tok)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	if len(ranked) > maxTokens {
		ranked = ranked[:maxTokens]
	}
	if len(ranked) == 0 {
		ranked = []string{"misc"}
	}
	return LabelPrefix + strings.Join(ranked, "_")
}

// Update sets a transaction's live category.
type Update struct {
	TransactionID uint64
	Category      *string
}

// Plan is the writes produced by promoting clusters.
type Plan struct {
	Updates []Update
	Records []model.CategoryRecord
}

// Promoted returns the ids whose category changes.
func (p Plan) Promoted() []uint64 {
	ids := make([]uint64, len(p.Updates))
	for i, u := range p.Updates {
		ids[i] = u.TransactionID
	}
	return ids
}

// PlanPromotion records one cluster audit entry per member and, when
// promotion applies, moves the member's category to the cluster label.
func PlanPromotion(clusters []Cluster, opts Options, now time.Time) Plan {
	var p Plan
	for _, c := range clusters {
		conf := c.Confidence()
		for _, t := range c.Members {
			rec := model.CategoryRecord{
				TransactionID: t.ID,
				Source:        model.SourceCluster,
				Category:      c.Label,
				Confidence:    &conf,
				Model:         "cluster",
				CreatedAt:     now,
			}
			if opts.Promote && (opts.OverwriteExisting || t.CategoryValue() == "") {
				rec.Promoted = true
				rec.OriginalCategory = t.Category
				p.Updates = append(p.Updates, Update{TransactionID: t.ID, Category: model.StringPtr(c.Label)})
			}
			p.Records = append(p.Records, rec)
		}
	}
	return p
}
