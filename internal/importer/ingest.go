package importer

import (
	"github.com/cleared-dev/finsight/internal/model"
)

const (
	// DefaultAutoConfirmThreshold is the candidate score needed to auto-apply
	// a description column.
	DefaultAutoConfirmThreshold = 2.8
	// DefaultMaxErrorSamples caps the row errors kept in a Report.
	DefaultMaxErrorSamples = 5
)

// Options controls a single ingestion.
type Options struct {
	ChosenDescription      string // explicit description column, after normalization
	AutoConfirmDescription bool
	ForceDescriptionChoice bool
	AutoConfirmThreshold   float64 // 0 means DefaultAutoConfirmThreshold
	MaxErrorSamples        int     // 0 means DefaultMaxErrorSamples
	Signs                  *SignRules
	Classifier             *Classifier
}

func (o Options) autoConfirmThreshold() float64 {
	if o.AutoConfirmThreshold > 0 {
		return o.AutoConfirmThreshold
	}
	return DefaultAutoConfirmThreshold
}

func (o Options) maxErrorSamples() int {
	if o.MaxErrorSamples > 0 {
		return o.MaxErrorSamples
	}
	return DefaultMaxErrorSamples
}

// Outcome is either *Confirmed or *NeedsConfirmation.
type Outcome interface {
	outcome()
}

// Report summarizes a confirmed ingestion.
type Report struct {
	Records             int         `json:"records"`
	Skipped             int         `json:"skipped"`
	ErrorsSample        []RowError  `json:"errors_sample"`
	Delimiter           string      `json:"delimiter"`
	NormalizedColumns   []string    `json:"normalized_columns"`
	SignInferred        int         `json:"sign_inferred"`
	DescriptionSource   string      `json:"description_source"`
	AutoConfirmed       bool        `json:"auto_confirmed"`
	CandidatesEvaluated []Candidate `json:"candidates_evaluated,omitempty"`
	DryRun              bool        `json:"dry_run"`
	ImportID            string      `json:"import_id,omitempty"`
}

// Confirmed carries the parsed transactions, not yet persisted.
type Confirmed struct {
	Report       Report
	Transactions []model.Transaction
}

// NeedsConfirmation asks the caller to pick a description column. No data
// has been changed.
type NeedsConfirmation struct {
	Message           string      `json:"message"`
	Candidates        []Candidate `json:"candidates"`
	Suggested         Candidate   `json:"suggested"`
	NormalizedColumns []string    `json:"normalized_columns"`
	Forced            bool        `json:"forced"`
}

func (*Confirmed) outcome()         {}
func (*NeedsConfirmation) outcome() {}

var requiredColumns = []string{ColDate, ColAmount, ColDescription}

// Ingest normalizes the sheet headers, resolves the description column and
// folds the rows into transactions. The sheet's table is modified in place.
func Ingest(sheet *Sheet, opts Options) (Outcome, error) {
	t := sheet.Table
	t.Columns = NormalizeHeaders(t.Columns)

	sel, err := selectDescription(t, opts)
	if err != nil {
		return nil, err
	}
	if sel.pending != nil {
		return sel.pending, nil
	}

	if !t.Has(ColMerchant) {
		t.AddColumn(ColMerchant, "")
	}
	var missing []string
	for _, col := range requiredColumns {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Missing: missing}
	}

	signs := DefaultSignRules()
	if opts.Signs != nil {
		signs = *opts.Signs
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	cats := categoryAssigner{
		classifier:        classifier,
		descriptionSource: sel.source,
		hasCategoryColumn: t.Has(ColCategory),
	}
	res := parseRows(t, signs, cats, opts.maxErrorSamples())

	return &Confirmed{
		Report: Report{
			Records:             len(res.accepted),
			Skipped:             res.skipped,
			ErrorsSample:        res.errs,
			Delimiter:           sheet.Delimiter,
			NormalizedColumns:   append([]string(nil), t.Columns...),
			SignInferred:        res.signInferred,
			DescriptionSource:   sel.source,
			AutoConfirmed:       sel.autoConfirmed,
			CandidatesEvaluated: sel.candidates,
		},
		Transactions: res.accepted,
	}, nil
}
