package importer

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	numericSampleRows   = 20
	numericRejectTenths = 7
	richnessSampleRows  = 200
	candidateExamples   = 3
	forcedExistingBoost = 3.0
)

// headerKeyword weights a substring found in a lowercased header.
type headerKeyword struct {
	Substr string
	Weight float64
}

var headerKeywords = []headerKeyword{
	{"descript", 2.5},
	{"memo", 2.2},
	{"narr", 2.2},
	{"note", 2.0},
	{"detail", 1.8},
	{"title", 1.7},
	{"label", 1.6},
	{"category", 1.2},
	{"name", 1.1},
}

// Candidate is a column scored as possible narrative text.
type Candidate struct {
	Column        string   `json:"column"`
	Score         float64  `json:"score"`
	NonEmptyRatio float64  `json:"non_empty_ratio"`
	Richness      float64  `json:"richness"`
	Examples      []string `json:"examples"`
}

// ScoreCandidates ranks every non-date, non-amount, non-type column that is
// not numeric-coded, best first.
func ScoreCandidates(t *Table) []Candidate {
	var cands []Candidate
	seen := make(map[string]bool)
	for _, col := range t.Columns {
		if col == ColDate || col == ColAmount || col == ColTxnType || seen[col] {
			continue
		}
		seen[col] = true
		vals := t.Column(col)
		if numericCoded(vals) {
			continue
		}
		cands = append(cands, scoreColumn(col, vals, headerScore(col)))
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
	return cands
}

func scoreColumn(col string, vals []string, header float64) Candidate {
	var nonEmpty []string
	for _, v := range vals {
		if !isBlank(v) {
			nonEmpty = append(nonEmpty, v)
		}
	}
	ratio := 0.0
	if len(vals) > 0 {
		ratio = float64(len(nonEmpty)) / float64(len(vals))
	}

	sampled := nonEmpty
	if len(sampled) > richnessSampleRows {
		sampled = sampled[:richnessSampleRows]
	}
	tokens := make(map[string]struct{})
	for _, v := range sampled {
		for _, tok := range strings.Fields(strings.ToLower(v)) {
			tokens[tok] = struct{}{}
		}
	}
	richness := float64(len(tokens)) / float64(max(len(sampled), 1))

	examples := nonEmpty
	if len(examples) > candidateExamples {
		examples = examples[:candidateExamples]
	}
	return Candidate{
		Column:        col,
		Score:         round4(header + ratio*1.5 + richness*0.5),
		NonEmptyRatio: round4(ratio),
		Richness:      round4(richness),
		Examples:      append([]string(nil), examples...),
	}
}

func headerScore(col string) float64 {
	h := strings.ToLower(col)
	best := 0.0
	for _, kw := range headerKeywords {
		if strings.Contains(h, kw.Substr) && kw.Weight > best {
			best = kw.Weight
		}
	}
	return best
}

// numericCoded reports whether at least 70% of the first 20 values parse as
// plain numbers.
func numericCoded(vals []string) bool {
	sample := vals
	if len(sample) > numericSampleRows {
		sample = sample[:numericSampleRows]
	}
	if len(sample) == 0 {
		return false
	}
	numeric := 0
	for _, v := range sample {
		if isPlainNumber(v) {
			numeric++
		}
	}
	return numeric*10 >= len(sample)*numericRejectTenths
}

func isPlainNumber(v string) bool {
	s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	if s == "" {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}

// replaceDescription makes chosen the description column, dropping any
// existing description first.
func replaceDescription(t *Table, chosen string) {
	if chosen == ColDescription {
		return
	}
	if !t.Has(chosen) {
		return
	}
	t.Drop(ColDescription)
	t.Rename(chosen, ColDescription)
}

// selection is the outcome of description-column resolution.
type selection struct {
	source        string // original column now serving as description
	autoConfirmed bool
	candidates    []Candidate
	pending       *NeedsConfirmation
}

// selectDescription resolves which column supplies narrative text. When it
// cannot decide it returns a pending confirmation and leaves t untouched.
func selectDescription(t *Table, opts Options) (selection, error) {
	has := t.Has(ColDescription)
	sel := selection{}
	if has {
		sel.source = ColDescription
	}
	if has && !opts.ForceDescriptionChoice {
		return sel, nil
	}

	sel.candidates = ScoreCandidates(t)
	switch {
	case opts.ChosenDescription != "":
		if !containsCandidate(sel.candidates, opts.ChosenDescription) {
			return sel, &UnknownColumnError{Column: opts.ChosenDescription, Candidates: candidateNames(sel.candidates)}
		}
		replaceDescription(t, opts.ChosenDescription)
		sel.source = opts.ChosenDescription

	case len(sel.candidates) > 0:
		top := sel.candidates[0]
		confident := top.Score >= opts.autoConfirmThreshold()
		if !opts.ForceDescriptionChoice && opts.AutoConfirmDescription && confident && !has {
			replaceDescription(t, top.Column)
			sel.source = top.Column
			sel.autoConfirmed = true
			return sel, nil
		}
		sel.pending = needsConfirmation(t, sel.candidates, top, opts.ForceDescriptionChoice, confident)

	default:
		for _, col := range t.Columns {
			if col != ColDate && col != ColAmount {
				replaceDescription(t, col)
				sel.source = col
				break
			}
		}
	}
	return sel, nil
}

func needsConfirmation(t *Table, cands []Candidate, top Candidate, forced, confident bool) *NeedsConfirmation {
	msg := "Ambiguous description column. Provide an explicit description column or enable auto-confirmation."
	switch {
	case forced:
		msg = "Forced description selection: choose a column to use for description."
	case confident:
		msg = "High confidence candidate available; confirm it or enable auto-confirmation."
	}

	out := append([]Candidate(nil), cands...)
	if forced && t.Has(ColDescription) && !containsCandidate(out, ColDescription) {
		existing := scoreColumn(ColDescription, t.Column(ColDescription), forcedExistingBoost)
		out = append([]Candidate{existing}, out...)
	}
	return &NeedsConfirmation{
		Message:           msg,
		Candidates:        out,
		Suggested:         top,
		NormalizedColumns: append([]string(nil), t.Columns...),
		Forced:            forced,
	}
}

func containsCandidate(cands []Candidate, col string) bool {
	for _, c := range cands {
		if c.Column == col {
			return true
		}
	}
	return false
}

func candidateNames(cands []Candidate) []string {
	names := make([]string, len(cands))
	for i, c := range cands {
		names[i] = c.Column
	}
	return names
}

func round4(f float64) float64 {
	return math.Round(f*1e4) / 1e4
}
