package app

import (
	"context"
	"fmt"

	"github.com/cleared-dev/finsight/internal/anomaly"
	"github.com/cleared-dev/finsight/internal/logger"
	"github.com/cleared-dev/finsight/internal/store"
	"github.com/cleared-dev/finsight/internal/subscription"
)

// Anomalies flags outlier and duplicate expenses in the configured window.
func (s *Service) Anomalies() (anomaly.Report, error) {
	txns, err := s.allTransactions()
	if err != nil {
		return anomaly.Report{}, err
	}
	c := s.cfg.Anomaly
	return anomaly.Detect(txns, s.now(), anomaly.Options{
		WindowDays:  c.WindowDays,
		MinExpenses: c.MinExpenses,
		Sigma:       c.Sigma,
	}), nil
}

// Dedupe deletes the requested transactions. The request is validated
// against every stored transaction and nothing is deleted if any id fails.
func (s *Service) Dedupe(ctx context.Context, req anomaly.DedupeRequest) (anomaly.DedupePlan, error) {
	var plan anomaly.DedupePlan
	err := s.store.Update(func(tx *store.Tx) error {
		all, err := tx.Transactions(store.Filter{})
		if err != nil {
			return err
		}
		plan, err = anomaly.PlanDedupe(all, req)
		if err != nil {
			return err
		}
		return tx.DeleteTransactions(plan.Delete)
	})
	if err != nil {
		return anomaly.DedupePlan{}, fmt.Errorf("dedupe: %w", err)
	}
	log := logger.FromContext(ctx)
	log.Info().Int("deleted", len(plan.Delete)).Int("kept", len(plan.Kept)).
		Bool("validate", req.Validate).Msg("dedupe_applied")
	return plan, nil
}

// Subscriptions returns recurring-charge profiles.
func (s *Service) Subscriptions() ([]subscription.Profile, error) {
	txns, err := s.allTransactions()
	if err != nil {
		return nil, err
	}
	return subscription.Analyze(txns), nil
}
