// Package report shapes store aggregates into spending breakdowns and builds
// the plain-text financial snapshot used by the coach.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/store"
)

var hundred = decimal.NewFromInt(100)

// WindowStart returns the first day of the month reached by stepping back
// 31 days per month from the first of now's month.
func WindowStart(now time.Time, months int) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	back := first.AddDate(0, 0, -31*months)
	return time.Date(back.Year(), back.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// CategoryRow is one category in a breakdown.
type CategoryRow struct {
	Category     string          `json:"category"`
	Income       decimal.Decimal `json:"income"`
	Spend        decimal.Decimal `json:"spend"`
	Net          decimal.Decimal `json:"net"`
	ShareOfSpend decimal.Decimal `json:"share_of_spend"` // percent
}

// CategoryBreakdown is per-category totals since WindowStart.
type CategoryBreakdown struct {
	WindowStart time.Time       `json:"window_start"`
	Months      int             `json:"months"`
	IncomeTotal decimal.Decimal `json:"income_total"`
	SpendTotal  decimal.Decimal `json:"spend_total"`
	NetTotal    decimal.Decimal `json:"net_total"`
	Categories  []CategoryRow   `json:"categories"`
}

// Categories builds a breakdown from per-category aggregates, largest spend
// first.
func Categories(aggs []store.Aggregate, start time.Time, months int) CategoryBreakdown {
	b := CategoryBreakdown{WindowStart: start, Months: months}
	for _, a := range aggs {
		b.IncomeTotal = b.IncomeTotal.Add(a.Income)
		b.SpendTotal = b.SpendTotal.Add(a.Spend)
	}
	b.NetTotal = b.IncomeTotal.Sub(b.SpendTotal)
	for _, a := range aggs {
		row := CategoryRow{Category: a.Key, Income: a.Income, Spend: a.Spend, Net: a.Net()}
		if b.SpendTotal.IsPositive() && a.Spend.IsPositive() {
			row.ShareOfSpend = a.Spend.Div(b.SpendTotal).Mul(hundred).Round(2)
		}
		b.Categories = append(b.Categories, row)
	}
	sort.SliceStable(b.Categories, func(i, j int) bool {
		return b.Categories[i].Spend.GreaterThan(b.Categories[j].Spend)
	})
	return b
}

// MerchantRow is one merchant's totals.
type MerchantRow struct {
	Merchant     string          `json:"merchant"`
	Transactions int             `json:"transactions"`
	Income       decimal.Decimal `json:"income"`
	Spend        decimal.Decimal `json:"spend"`
	Net          decimal.Decimal `json:"net"`
}

// Merchants returns up to limit merchants, largest spend first.
func Merchants(aggs []store.Aggregate, limit int) []MerchantRow {
	rows := make([]MerchantRow, 0, len(aggs))
	for _, a := range aggs {
		name := a.Key
		if name == "" {
			name = "Unknown"
		}
		rows = append(rows, MerchantRow{Merchant: name, Transactions: a.Count, Income: a.Income, Spend: a.Spend, Net: a.Net()})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Spend.GreaterThan(rows[j].Spend) })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// TimelinePoint is one month's totals.
type TimelinePoint struct {
	Month  string          `json:"month"`
	Income decimal.Decimal `json:"income"`
	Spend  decimal.Decimal `json:"spend"`
	Net    decimal.Decimal `json:"net"`
}

// Timeline is monthly totals since WindowStart.
type Timeline struct {
	WindowStart time.Time       `json:"window_start"`
	Months      int             `json:"months"`
	Points      []TimelinePoint `json:"timeline"`
}

// MonthlyTimeline converts per-month aggregates, oldest month first.
func MonthlyTimeline(aggs []store.Aggregate, start time.Time, months int) Timeline {
	tl := Timeline{WindowStart: start, Months: months}
	for _, a := range aggs {
		tl.Points = append(tl.Points, TimelinePoint{Month: a.Key, Income: a.Income, Spend: a.Spend, Net: a.Net()})
	}
	sort.SliceStable(tl.Points, func(i, j int) bool { return tl.Points[i].Month < tl.Points[j].Month })
	return tl
}

// CategorySpend is total outflow for one category.
type CategorySpend struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Insights is all-time spend by category and totals.
type Insights struct {
	SpendingByCategory []CategorySpend `json:"spending_by_category"`
	TotalSpend         decimal.Decimal `json:"total_spend"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	Net                decimal.Decimal `json:"net"`
}

// BuildInsights summarizes per-category aggregates.
func BuildInsights(aggs []store.Aggregate) Insights {
	var in Insights
	for _, a := range aggs {
		in.TotalIncome = in.TotalIncome.Add(a.Income)
		in.TotalSpend = in.TotalSpend.Add(a.Spend)
		if a.Spend.IsPositive() {
			in.SpendingByCategory = append(in.SpendingByCategory, CategorySpend{Category: a.Key, Total: a.Spend})
		}
	}
	sort.SliceStable(in.SpendingByCategory, func(i, j int) bool {
		return in.SpendingByCategory[i].Total.GreaterThan(in.SpendingByCategory[j].Total)
	})
	in.Net = in.TotalIncome.Sub(in.TotalSpend)
	return in
}
