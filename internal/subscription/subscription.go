// Package subscription detects recurring charges per merchant.
package subscription

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/finsight/internal/model"
)

// Flag labels a recurrence pattern.
type Flag string

const (
	FlagRecurring      Flag = "recurring"
	FlagTrialConverted Flag = "trial_converted"
	FlagSmallRecurring Flag = "small_recurring"
	FlagVariableAmount Flag = "variable_amount"
)

// Profile is the interval and amount summary of one merchant's charges.
type Profile struct {
	Merchant           string     `json:"merchant"`
	Occurrences        int        `json:"occurrences"`
	FirstDate          time.Time  `json:"first_date"`
	LastDate           time.Time  `json:"last_date"`
	AvgIntervalDays    float64    `json:"avg_interval_days"`
	IntervalJitterDays float64    `json:"interval_jitter_days"`
	FirstAmount        float64    `json:"first_amount"`
	AvgAmount          float64    `json:"avg_amount"`
	MinAmount          float64    `json:"min_amount"`
	MaxAmount          float64    `json:"max_amount"`
	EstimatedNext      *time.Time `json:"estimated_next_charge"`
	Flags              []Flag     `json:"flags"`
}

// Has reports whether f is set.
func (p Profile) Has(f Flag) bool {
	for _, x := range p.Flags {
		if x == f {
			return true
		}
	}
	return false
}

// Analyze profiles every merchant with expenses and returns those flagged
// recurring or trial_converted. Trial conversions sort first, then the
// soonest estimated next charge; profiles without an estimate sort last.
func Analyze(txns []model.Transaction) []Profile {
	byMerchant := make(map[string][]model.Transaction)
	for _, t := range txns {
		if !t.IsExpense() || strings.TrimSpace(t.Merchant) == "" {
			continue
		}
		byMerchant[t.Merchant] = append(byMerchant[t.Merchant], t)
	}

	var out []Profile
	for _, charges := range byMerchant {
		p, ok := analyzeMerchant(charges)
		if ok && (p.Has(FlagRecurring) || p.Has(FlagTrialConverted)) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ta, tb := a.Has(FlagTrialConverted), b.Has(FlagTrialConverted); ta != tb {
			return ta
		}
		switch {
		case a.EstimatedNext == nil && b.EstimatedNext != nil:
			return false
		case a.EstimatedNext != nil && b.EstimatedNext == nil:
			return true
		case a.EstimatedNext != nil && !a.EstimatedNext.Equal(*b.EstimatedNext):
			return a.EstimatedNext.Before(*b.EstimatedNext)
		}
		return a.Merchant < b.Merchant
	})
	return out
}

func analyzeMerchant(charges []model.Transaction) (Profile, bool) {
	if len(charges) < 2 {
		return Profile{}, false
	}
	sort.SliceStable(charges, func(i, j int) bool { return charges[i].Date.Before(charges[j].Date) })

	n := len(charges)
	intervals := make([]float64, 0, n-1)
	amounts := make([]float64, n)
	months := make(map[[2]int]bool)
	for i, t := range charges {
		amounts[i] = t.Amount.Abs().InexactFloat64()
		months[[2]int{t.Date.Year(), int(t.Date.Month())}] = true
		if i > 0 {
			intervals = append(intervals, daysBetween(charges[i-1].Date, t.Date))
		}
	}

	avgInterval, jitter := meanPstdev(intervals)
	if len(intervals) < 2 {
		jitter = 0
	}
	avgAmount, _ := meanPstdev(amounts)
	minAmount, maxAmount := amounts[0], amounts[0]
	for _, a := range amounts[1:] {
		minAmount = math.Min(minAmount, a)
		maxAmount = math.Max(maxAmount, a)
	}
	first := amounts[0]

	p := Profile{
		Merchant:           charges[0].Merchant,
		Occurrences:        n,
		FirstDate:          charges[0].Date,
		LastDate:           charges[n-1].Date,
		AvgIntervalDays:    round(avgInterval, 1),
		IntervalJitterDays: round(jitter, 1),
		FirstAmount:        round(first, 2),
		AvgAmount:          round(avgAmount, 2),
		MinAmount:          round(minAmount, 2),
		MaxAmount:          round(maxAmount, 2),
	}

	recurring := (avgInterval >= 25 && avgInterval <= 35) || (len(months) >= 2 && n >= 3)
	if recurring {
		p.Flags = append(p.Flags, FlagRecurring)
	}
	if first <= 1 && avgAmount > math.Max(2, first*2) {
		p.Flags = append(p.Flags, FlagTrialConverted)
	}
	if recurring && avgAmount < 15 {
		p.Flags = append(p.Flags, FlagSmallRecurring)
	}
	if avgAmount > 0 && (maxAmount-minAmount)/avgAmount > 0.3 {
		p.Flags = append(p.Flags, FlagVariableAmount)
	}
	if recurring {
		next := p.LastDate.AddDate(0, 0, int(math.RoundToEven(avgInterval)))
		p.EstimatedNext = &next
	}
	return p, true
}

func daysBetween(a, b time.Time) float64 {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return math.Round(bd.Sub(ad).Hours() / 24)
}

func meanPstdev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
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

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
