package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

// Forecast projects a year from the net of the last 30 days.
func Forecast(txns []model.Transaction, now time.Time) decimal.Decimal {
	cutoff := day(now).AddDate(0, 0, -30)
	var sum decimal.Decimal
	for _, t := range txns {
		if t.Date.After(cutoff) {
			sum = sum.Add(t.Amount)
		}
	}
	return sum.Mul(decimal.NewFromInt(12))
}

const snapshotTop = 5

// Snapshot renders recent activity as at most maxLines lines of text.
func Snapshot(txns []model.Transaction, now time.Time, days, maxLines int) string {
	cutoff := day(now).AddDate(0, 0, -days)
	var income, spend decimal.Decimal
	byCategory := make(map[string]decimal.Decimal)
	byMerchant := make(map[string]decimal.Decimal)
	n := 0
	for _, t := range txns {
		if t.Date.Before(cutoff) {
			continue
		}
		n++
		switch {
		case t.Amount.IsPositive():
			income = income.Add(t.Amount)
		case t.Amount.IsNegative():
			out := t.Amount.Neg()
			spend = spend.Add(out)
			cat := store.UncategorizedKey
			if t.HasCategory() {
				cat = *t.Category
			}
			byCategory[cat] = byCategory[cat].Add(out)
			if t.Merchant != "" {
				byMerchant[t.Merchant] = byMerchant[t.Merchant].Add(out)
			}
		}
	}
	if n == 0 {
		return fmt.Sprintf("No recent transactions in last %d days.", days)
	}

	span := max(1, int(day(now).Sub(cutoff).Hours()/24))
	avgDaily := spend.Div(decimal.NewFromInt(int64(span)))
	lines := []string{
		fmt.Sprintf("Window: last %d days", days),
		"Income: " + income.StringFixed(2),
		"Spend: " + spend.StringFixed(2),
		"Net: " + income.Sub(spend).StringFixed(2),
		"AvgDailySpend: " + avgDaily.StringFixed(2),
	}
	if top := topTotals(byCategory); top != "" {
		lines = append(lines, "TopCategories: "+top)
	}
	if top := topTotals(byMerchant); top != "" {
		lines = append(lines, "TopMerchants: "+top)
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}

func topTotals(m map[string]decimal.Decimal) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := m[keys[i]].Cmp(m[keys[j]]); c != 0 {
			return c > 0
		}
		return keys[i] < keys[j]
	})
	if len(keys) > snapshotTop {
		keys = keys[:snapshotTop]
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + m[k].StringFixed(0)
	}
	return strings.Join(parts, ", ")
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
