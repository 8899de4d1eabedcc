package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cleared-dev/finsight/internal/importer"
	"github.com/cleared-dev/finsight/internal/importlog"
	"github.com/cleared-dev/finsight/internal/logger"
	"github.com/cleared-dev/finsight/internal/store"
)

// IngestParams controls one ingestion.
type IngestParams struct {
	DryRun                 bool
	ChosenDescription      string
	AutoConfirmDescription bool
	ForceDescriptionChoice bool
}

// IngestResult is the outcome for one file. Exactly one of Report and
// Pending is set.
type IngestResult struct {
	File    string                      `json:"file"`
	Report  *importer.Report            `json:"report,omitempty"`
	Pending *importer.NeedsConfirmation `json:"needs_confirmation,omitempty"`
}

func (s *Service) ingestOptions(p IngestParams) importer.Options {
	return importer.Options{
		ChosenDescription:      importer.NormalizeHeader(p.ChosenDescription),
		AutoConfirmDescription: p.AutoConfirmDescription,
		ForceDescriptionChoice: p.ForceDescriptionChoice,
		AutoConfirmThreshold:   s.cfg.Ingest.AutoConfirmThreshold,
		MaxErrorSamples:        s.cfg.Ingest.MaxErrorSamples,
	}
}

// IngestFile parses the file at path and, unless this is a dry run or the
// description column needs confirmation, stores its transactions as one
// import batch.
func (s *Service) IngestFile(ctx context.Context, path string, p IngestParams) (IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestResult{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return s.Ingest(ctx, filepath.Base(path), data, p)
}

// Ingest runs the pipeline over data. name picks the parser and is recorded
// with the import batch.
func (s *Service) Ingest(ctx context.Context, name string, data []byte, p IngestParams) (IngestResult, error) {
	log := logger.FromContext(ctx)
	res := IngestResult{File: name}

	parser := s.registry.ForFile(name)
	sheet, err := parser.Parse(data)
	if err != nil {
		return res, fmt.Errorf("parsing %s: %w", name, err)
	}
	outcome, err := importer.Ingest(sheet, s.ingestOptions(p))
	if err != nil {
		return res, fmt.Errorf("ingesting %s: %w", name, err)
	}

	switch o := outcome.(type) {
	case *importer.NeedsConfirmation:
		res.Pending = o
		log.Info().Str("file", name).Str("suggested", o.Suggested.Column).Int("candidates", len(o.Candidates)).
			Bool("forced", o.Forced).Msg("ingest_needs_confirmation")
		return res, nil

	case *importer.Confirmed:
		rep := o.Report
		rep.DryRun = p.DryRun
		res.Report = &rep
		if p.DryRun {
			return res, nil
		}

		rep.ImportID = uuid.NewString()
		txns := o.Transactions
		for i := range txns {
			txns[i].ImportID = rep.ImportID
		}
		now := s.now()
		if err := s.store.Update(func(tx *store.Tx) error {
			if _, err := tx.CreateTransactions(txns); err != nil {
				return err
			}
			return tx.RecordImport(store.Import{
				ID: rep.ImportID, File: name, Records: rep.Records, Skipped: rep.Skipped, CreatedAt: now,
			})
		}); err != nil {
			return res, fmt.Errorf("storing %s: %w", name, err)
		}

		if err := importlog.Append(s.root, []importlog.Entry{{
			Timestamp:         now,
			ImportID:          rep.ImportID,
			File:              name,
			Records:           rep.Records,
			Skipped:           rep.Skipped,
			SignInferred:      rep.SignInferred,
			DescriptionSource: rep.DescriptionSource,
		}}); err != nil {
			return res, fmt.Errorf("writing import log: %w", err)
		}

		log.Info().Str("file", name).Str("import_id", rep.ImportID).Int("records", rep.Records).
			Int("skipped", rep.Skipped).Int("sign_inferred", rep.SignInferred).
			Str("description_source", rep.DescriptionSource).Msg("csv_ingested")
		return res, nil
	}
	return res, fmt.Errorf("ingesting %s: unexpected outcome %T", name, outcome)
}

// IngestScan ingests every file waiting in the import directory. Files that
// are stored are moved to import/processed; files needing confirmation stay.
func (s *Service) IngestScan(ctx context.Context, p IngestParams) ([]IngestResult, error) {
	dir := s.importRoot()
	files, err := importer.Scan(dir)
	if err != nil {
		return nil, err
	}
	var results []IngestResult
	for _, f := range files {
		res, err := s.IngestFile(ctx, f.Path, p)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if res.Report != nil && !p.DryRun {
			if err := importer.MarkProcessed(dir, f.Name); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

// Imports lists stored import batches, oldest first.
func (s *Service) Imports() ([]store.Import, error) {
	var out []store.Import
	err := s.store.View(func(tx *store.Tx) error {
		var err error
		out, err = tx.Imports()
		return err
	})
	return out, err
}

func (s *Service) importRoot() string {
	dir := s.cfg.Ingest.ImportDir
	if dir == "" {
		return s.root
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.root, dir)
	}
	return dir
}
