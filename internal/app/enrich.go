package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/finsight/internal/cluster"
	"github.com/cleared-dev/finsight/internal/enrich"
	"github.com/cleared-dev/finsight/internal/logger"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

var (
	// ErrInvalidLabel is returned for a blank cluster label.
	ErrInvalidLabel = errors.New("cluster label must not be empty")
	// ErrLabelNotFound is returned when no cluster record carries the label.
	ErrLabelNotFound = errors.New("cluster label not found")
	// ErrUnknownCategorizer is returned for an unsupported categorizer name.
	ErrUnknownCategorizer = errors.New("unknown categorizer")
)

// ClusterParams controls a clustering run. Zero numeric fields take the
// configured values.
type ClusterParams struct {
	Threshold         float64
	MinSize           int
	MaxTokens         int
	Limit             int
	OnlyUncategorized bool
	Promote           bool
	OverwriteExisting bool
}

// ClusterSummary describes one cluster found by a run.
type ClusterSummary struct {
	Label         string   `json:"label"`
	Size          int      `json:"size"`
	AvgSimilarity float64  `json:"avg_similarity"`
	Confidence    float64  `json:"confidence"`
	MemberIDs     []uint64 `json:"member_ids"`
}

// EnrichResult reports what an enrichment run wrote.
type EnrichResult struct {
	Mode      string           `json:"mode"`
	Processed int              `json:"processed"`
	Promoted  []uint64         `json:"promoted"`
	Records   int              `json:"records"`
	Clusters  []ClusterSummary `json:"clusters,omitempty"`
}

// EnrichClusters groups candidate transactions by token similarity and
// records, and optionally promotes, the cluster labels. The read and the
// writes share one store transaction.
func (s *Service) EnrichClusters(ctx context.Context, p ClusterParams) (EnrichResult, error) {
	c := s.cfg.Cluster
	opts := cluster.Options{
		Threshold:         orFloat(p.Threshold, c.Threshold),
		MinSize:           orInt(p.MinSize, c.MinSize),
		MaxTokens:         orInt(p.MaxTokens, c.MaxTokens),
		Promote:           p.Promote,
		OverwriteExisting: p.OverwriteExisting,
	}
	limit := orInt(p.Limit, c.Limit)

	res := EnrichResult{Mode: "cluster"}
	err := s.store.Update(func(tx *store.Tx) error {
		all, err := tx.Transactions(store.Filter{})
		if err != nil {
			return err
		}
		candidates := cluster.SelectCandidates(all, p.OnlyUncategorized, limit)
		clusters := cluster.Build(candidates, opts)
		plan := cluster.PlanPromotion(clusters, opts, s.now())

		for _, u := range plan.Updates {
			if _, err := tx.SetCategory(u.TransactionID, u.Category); err != nil {
				return err
			}
		}
		if _, err := tx.AppendRecords(plan.Records); err != nil {
			return err
		}

		res.Processed = len(candidates)
		res.Promoted = plan.Promoted()
		res.Records = len(plan.Records)
		for _, cl := range clusters {
			sum := ClusterSummary{
				Label:         cl.Label,
				Size:          len(cl.Members),
				AvgSimilarity: cl.AvgSimilarity,
				Confidence:    cl.Confidence(),
			}
			for _, m := range cl.Members {
				sum.MemberIDs = append(sum.MemberIDs, m.ID)
			}
			res.Clusters = append(res.Clusters, sum)
		}
		return nil
	})
	if err != nil {
		return EnrichResult{}, fmt.Errorf("cluster enrichment: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Int("clusters", len(res.Clusters)).Int("processed", res.Processed).
		Int("promoted", len(res.Promoted)).Msg("cluster_enrichment_complete")
	return res, nil
}

// ModelParams controls a categorizer run.
type ModelParams struct {
	Categorizer       string // keyword, bayes or llm; empty uses config
	Model             string
	Limit             int
	OnlyUncategorized bool
	IncludeEnriched   bool
	Promote           bool
	MinConfidence     float64
	OverwriteExisting bool
}

// EnrichModel asks a categorizer about candidate transactions and records
// each answer. The categorizer runs outside any store transaction.
func (s *Service) EnrichModel(ctx context.Context, p ModelParams) (EnrichResult, error) {
	var all []model.Transaction
	var enriched map[uint64]bool
	if err := s.store.View(func(tx *store.Tx) error {
		var err error
		if all, err = tx.Transactions(store.Filter{}); err != nil {
			return err
		}
		enriched, err = tx.RecordedTransactions()
		return err
	}); err != nil {
		return EnrichResult{}, fmt.Errorf("loading enrichment candidates: %w", err)
	}

	ec := s.cfg.Enrich
	allowed := ec.AllowedCategories
	if len(allowed) == 0 {
		allowed = nil
	}
	name := p.Categorizer
	if name == "" {
		name = ec.Categorizer
	}
	cat, err := s.categorizer(ctx, name, p.Model, all, allowed)
	if err != nil {
		return EnrichResult{}, err
	}

	candidates := enrich.SelectCandidates(all, enriched, p.OnlyUncategorized, p.IncludeEnriched, orInt(p.Limit, ec.Limit))
	out := enrich.Run(ctx, cat, candidates, enrich.Options{
		Promote:           p.Promote,
		MinConfidence:     orFloat(p.MinConfidence, ec.PromotionMinConfidence),
		OverwriteExisting: p.OverwriteExisting,
		Allowed:           allowed,
	}, s.now())

	if err := s.store.Update(func(tx *store.Tx) error {
		for _, u := range out.Updates {
			if _, err := tx.SetCategory(u.TransactionID, model.StringPtr(u.Category)); err != nil {
				return err
			}
		}
		_, err := tx.AppendRecords(out.Records)
		return err
	}); err != nil {
		return EnrichResult{}, fmt.Errorf("storing enrichment: %w", err)
	}

	res := EnrichResult{
		Mode:      "model",
		Processed: len(out.Processed),
		Promoted:  out.Promoted(),
		Records:   len(out.Records),
	}
	log := logger.FromContext(ctx)
	log.Info().Str("categorizer", name).Int("candidates", len(candidates)).
		Int("processed", res.Processed).Int("promoted", len(res.Promoted)).Msg("model_enrichment_complete")
	return res, nil
}

func (s *Service) categorizer(ctx context.Context, name, modelName string, all []model.Transaction, allowed []string) (enrich.Categorizer, error) {
	switch strings.ToLower(name) {
	case "", "keyword":
		return enrich.KeywordCategorizer{Model: modelName}, nil
	case "bayes":
		b, err := enrich.TrainBayes(all, allowed)
		if err != nil {
			return nil, fmt.Errorf("training bayes categorizer: %w", err)
		}
		return b, nil
	case "llm":
		p, err := s.providerFor(ctx)
		if err != nil {
			return nil, err
		}
		if modelName == "" {
			modelName = s.cfg.Coach.Model
		}
		return enrich.GeneratorCategorizer{Gen: p, Model: modelName}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategorizer, name)
}

// RenameParams controls a cluster label rename.
type RenameParams struct {
	Old                string
	New                string
	UpdateTransactions bool
	UpdateHistory      bool
}

// RenameResult reports a cluster label rename.
type RenameResult struct {
	Old                 string `json:"old"`
	New                 string `json:"new"`
	Changed             bool   `json:"changed"`
	TransactionsUpdated int    `json:"transactions_updated"`
	RecordsUpdated      int    `json:"records_updated"`
}

// RenameCluster renames a cluster label on live transactions and on the
// cluster records that carry it.
func (s *Service) RenameCluster(ctx context.Context, p RenameParams) (RenameResult, error) {
	res := RenameResult{Old: strings.TrimSpace(p.Old), New: strings.TrimSpace(p.New)}
	if res.Old == "" || res.New == "" {
		return res, ErrInvalidLabel
	}
	if res.Old == res.New {
		return res, nil
	}
	err := s.store.Update(func(tx *store.Tx) error {
		ok, err := tx.HasLabel(model.SourceCluster, res.Old)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %q", ErrLabelNotFound, res.Old)
		}
		if p.UpdateTransactions {
			if res.TransactionsUpdated, err = tx.RenameCategory(res.Old, res.New); err != nil {
				return err
			}
		}
		if p.UpdateHistory {
			if res.RecordsUpdated, err = tx.RenameLabel(model.SourceCluster, res.Old, res.New); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return RenameResult{Old: res.Old, New: res.New}, fmt.Errorf("renaming cluster: %w", err)
	}
	res.Changed = true
	log := logger.FromContext(ctx)
	log.Info().Str("old", res.Old).Str("new", res.New).
		Int("transactions", res.TransactionsUpdated).Int("records", res.RecordsUpdated).Msg("cluster_renamed")
	return res, nil
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
