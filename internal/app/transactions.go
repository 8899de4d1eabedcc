package app

import (
	"context"
	"fmt"

	"github.com/cleared-dev/finsight/internal/logger"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

// ListTransactions returns stored transactions matching f.
func (s *Service) ListTransactions(f store.Filter) ([]model.Transaction, error) {
	var out []model.Transaction
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		out, err = tx.Transactions(f)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}
	return out, nil
}

// SetCategory sets a transaction's category by hand and records the change.
// A nil category clears it.
func (s *Service) SetCategory(ctx context.Context, id uint64, category *string) (model.CategoryRecord, error) {
	var rec model.CategoryRecord
	err := s.store.Update(func(tx *store.Tx) error {
		prev, err := tx.SetCategory(id, category)
		if err != nil {
			return err
		}
		label := ""
		if category != nil {
			label = *category
		}
		recs, err := tx.AppendRecords([]model.CategoryRecord{{
			TransactionID:    id,
			Source:           model.SourceManual,
			Category:         label,
			Model:            string(model.SourceManual),
			Promoted:         true,
			OriginalCategory: prev,
			CreatedAt:        s.now(),
		}})
		if err != nil {
			return err
		}
		rec = recs[0]
		return nil
	})
	if err != nil {
		return rec, fmt.Errorf("setting category of transaction %d: %w", id, err)
	}
	log := logger.FromContext(ctx)
	log.Info().Uint64("transaction_id", id).Str("category", rec.Category).Msg("category_set")
	return rec, nil
}

// History returns every category record of transaction id, oldest first.
func (s *Service) History(id uint64) ([]model.CategoryRecord, error) {
	var out []model.CategoryRecord
	err := s.store.View(func(tx *store.Tx) error {
		if _, err := tx.Transaction(id); err != nil {
			return err
		}
		var err error
		out, err = tx.Records(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("history of transaction %d: %w", id, err)
	}
	return out, nil
}

// LatestRecords returns the n most recent category records, newest first.
func (s *Service) LatestRecords(n int) ([]model.CategoryRecord, error) {
	var out []model.CategoryRecord
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		out, err = tx.LatestRecords(n)
		return err
	})
	return out, err
}
