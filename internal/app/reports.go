package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/coach"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/report"
	"github.com/cleared-dev/finsight/internal/store"
)

func (s *Service) aggregate(fn func(*store.Tx) ([]store.Aggregate, error)) ([]store.Aggregate, error) {
	var aggs []store.Aggregate
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		aggs, err = fn(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating transactions: %w", err)
	}
	return aggs, nil
}

// CategoryBreakdown totals each category over the last months months.
func (s *Service) CategoryBreakdown(months int) (report.CategoryBreakdown, error) {
	start := report.WindowStart(s.now(), months)
	aggs, err := s.aggregate(func(tx *store.Tx) ([]store.Aggregate, error) {
		return tx.SumByCategory(store.Filter{From: start})
	})
	if err != nil {
		return report.CategoryBreakdown{}, err
	}
	return report.Categories(aggs, start, months), nil
}

// MerchantBreakdown totals each merchant over the last months months.
func (s *Service) MerchantBreakdown(months, limit int) ([]report.MerchantRow, error) {
	start := report.WindowStart(s.now(), months)
	aggs, err := s.aggregate(func(tx *store.Tx) ([]store.Aggregate, error) {
		return tx.SumByMerchant(store.Filter{From: start})
	})
	if err != nil {
		return nil, err
	}
	return report.Merchants(aggs, limit), nil
}

// Timeline totals each month over the last months months.
func (s *Service) Timeline(months int) (report.Timeline, error) {
	start := report.WindowStart(s.now(), months)
	aggs, err := s.aggregate(func(tx *store.Tx) ([]store.Aggregate, error) {
		return tx.SumByMonth(store.Filter{From: start})
	})
	if err != nil {
		return report.Timeline{}, err
	}
	return report.MonthlyTimeline(aggs, start, months), nil
}

// Insights summarizes all-time spend by category.
func (s *Service) Insights() (report.Insights, error) {
	aggs, err := s.aggregate(func(tx *store.Tx) ([]store.Aggregate, error) {
		return tx.SumByCategory(store.Filter{})
	})
	if err != nil {
		return report.Insights{}, err
	}
	return report.BuildInsights(aggs), nil
}

// Forecast projects annual net from the last 30 days.
func (s *Service) Forecast() (decimal.Decimal, error) {
	txns, err := s.allTransactions()
	if err != nil {
		return decimal.Zero, err
	}
	return report.Forecast(txns, s.now()), nil
}

// Snapshot renders the coach's view of recent activity.
func (s *Service) Snapshot() (string, error) {
	txns, err := s.allTransactions()
	if err != nil {
		return "", err
	}
	return report.Snapshot(txns, s.now(), orInt(s.cfg.Coach.SnapshotDays, 30), 12), nil
}

func (s *Service) coach(ctx context.Context) (*coach.Coach, error) {
	p, err := s.providerFor(ctx)
	if err != nil {
		return nil, err
	}
	return &coach.Coach{
		Provider:     p,
		Store:        s.store,
		Model:        s.cfg.Coach.Model,
		SnapshotDays: s.cfg.Coach.SnapshotDays,
		Now:          s.now,
	}, nil
}

// Ask sends a question to the coach.
func (s *Service) Ask(ctx context.Context, req coach.Request) (coach.Reply, error) {
	c, err := s.coach(ctx)
	if err != nil {
		return coach.Reply{}, err
	}
	return c.Ask(ctx, req)
}

// CoachHistory returns the last n coach messages, oldest first.
func (s *Service) CoachHistory(n int) ([]model.CoachMessage, error) {
	var out []model.CoachMessage
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		out, err = tx.RecentCoachMessages(n)
		return err
	})
	return out, err
}
