// Package app wires the store, config and analytics packages into the
// operations exposed by the CLI.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cleared-dev/finsight/internal/coach"
	"github.com/cleared-dev/finsight/internal/config"
	"github.com/cleared-dev/finsight/internal/importer"
	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

// Service runs finsight operations against one project directory.
type Service struct {
	root     string
	cfg      *config.Config
	store    *store.Store
	registry *importer.Registry

	// Now is the clock used for windows and timestamps.
	Now func() time.Time
	// NewProvider builds the text-generation backend on first use.
	NewProvider func(ctx context.Context) (coach.Provider, error)

	provider coach.Provider
}

// Open opens the project store under root. A relative store path is
// resolved against root.
func Open(root string, cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	path := cfg.Store.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	s := &Service{
		root:     root,
		cfg:      cfg,
		store:    st,
		registry: importer.DefaultRegistry(),
		Now:      time.Now,
	}
	s.NewProvider = func(ctx context.Context) (coach.Provider, error) {
		return coach.NewProvider(ctx, coach.ProviderConfig{
			Name:         cfg.Coach.Provider,
			OllamaHost:   cfg.Coach.OllamaHost,
			FallbackHost: cfg.Coach.FallbackHost,
			AnthropicKey: cfg.AnthropicKey,
			GeminiKey:    cfg.GeminiKey,
		})
	}
	return s, nil
}

// Close closes the store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

func (s *Service) now() time.Time {
	return s.Now().UTC()
}

func (s *Service) providerFor(ctx context.Context) (coach.Provider, error) {
	if s.provider != nil {
		return s.provider, nil
	}
	p, err := s.NewProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating model provider: %w", err)
	}
	s.provider = p
	return p, nil
}

// allTransactions loads every stored transaction in id order.
func (s *Service) allTransactions() ([]model.Transaction, error) {
	var txns []model.Transaction
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		txns, err = tx.Transactions(store.Filter{})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	return txns, nil
}
