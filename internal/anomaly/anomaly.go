// Package anomaly flags outlier expenses and duplicate charges.
package anomaly

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/model"
)

// Options tunes detection.
type Options struct {
	WindowDays  int     // expenses dated within this many days of now
	MinExpenses int     // outliers need at least this many expenses
	Sigma       float64 // threshold = mean + Sigma*stddev
}

// DefaultOptions returns a 60 day window, 5 expenses minimum and 2 sigma.
func DefaultOptions() Options {
	return Options{WindowDays: 60, MinExpenses: 5, Sigma: 2}
}

// Outlier is an expense whose magnitude met the threshold.
type Outlier struct {
	Transaction model.Transaction `json:"transaction"`
	Threshold   float64           `json:"threshold"`
}

// DuplicateKey identifies charges considered identical.
type DuplicateKey struct {
	Date     time.Time       `json:"date"`
	Amount   decimal.Decimal `json:"amount"` // absolute, rounded to cents
	Merchant string          `json:"merchant"`
	Category string          `json:"category"`
}

// DuplicateGroup is two or more expenses sharing a DuplicateKey.
type DuplicateGroup struct {
	Key     DuplicateKey        `json:"key"`
	Members []model.Transaction `json:"members"`
}

// Report is the result of Detect.
type Report struct {
	Outliers   []Outlier        `json:"outliers"`
	Duplicates []DuplicateGroup `json:"duplicates"`
}

// Detect runs both heuristics over the expenses inside the window ending at
// now.
func Detect(txns []model.Transaction, now time.Time, opts Options) Report {
	expenses := RecentExpenses(txns, now, opts.WindowDays)
	return Report{
		Outliers:   Outliers(expenses, opts),
		Duplicates: Duplicates(expenses),
	}
}

// RecentExpenses returns outflows dated on or after now minus windowDays.
func RecentExpenses(txns []model.Transaction, now time.Time, windowDays int) []model.Transaction {
	cutoff := day(now).AddDate(0, 0, -windowDays)
	var out []model.Transaction
	for _, t := range txns {
		if t.IsExpense() && !day(t.Date).Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// Outliers flags expenses with |amount| >= mean + Sigma*stddev. Fewer than
// MinExpenses expenses never produce outliers.
func Outliers(expenses []model.Transaction, opts Options) []Outlier {
	if len(expenses) < opts.MinExpenses || len(expenses) == 0 {
		return nil
	}
	mags := make([]float64, len(expenses))
	for i, t := range expenses {
		mags[i] = t.Amount.Abs().InexactFloat64()
	}
	mean, sd := meanStddev(mags)
	threshold := mean + opts.Sigma*sd

	var out []Outlier
	for i, t := range expenses {
		if mags[i] >= threshold && mags[i] > 0 {
			out = append(out, Outlier{Transaction: t, Threshold: math.Round(threshold*100) / 100})
		}
	}
	return out
}

// meanStddev returns the mean and population standard deviation. For
// [10,10,10,10,500] at k=2 this gives a threshold of exactly 500.0, so that
// value is flagged only because the comparison is >= and the float
// arithmetic lands on 500 exactly. The sample deviation would give 546.3.
func meanStddev(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// KeyOf returns the duplicate key of t.
func KeyOf(t model.Transaction) DuplicateKey {
	return DuplicateKey{
		Date:     day(t.Date),
		Amount:   t.Amount.Abs().Round(2),
		Merchant: t.Merchant,
		Category: t.CategoryValue(),
	}
}

func (k DuplicateKey) id() string {
	return k.Date.Format(time.DateOnly) + "\x00" + k.Amount.StringFixed(2) + "\x00" + k.Merchant + "\x00" + k.Category
}

// Duplicates groups expenses by DuplicateKey and returns groups with more
// than one member, in order of first appearance.
func Duplicates(expenses []model.Transaction) []DuplicateGroup {
	groups := group(expenses)
	var out []DuplicateGroup
	for _, g := range groups {
		if len(g.Members) > 1 {
			out = append(out, g)
		}
	}
	return out
}

func group(txns []model.Transaction) []DuplicateGroup {
	index := make(map[string]int)
	var groups []DuplicateGroup
	for _, t := range txns {
		k := KeyOf(t)
		i, ok := index[k.id()]
		if !ok {
			i = len(groups)
			index[k.id()] = i
			groups = append(groups, DuplicateGroup{Key: k})
		}
		groups[i].Members = append(groups[i].Members, t)
	}
	return groups
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
