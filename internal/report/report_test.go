package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finsight/internal/model"
	"github.com/cleared-dev/finsight/internal/store"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), WindowStart(now, 3))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), WindowStart(now, 1))
}

func TestCategories(t *testing.T) {
	aggs := []store.Aggregate{
		{Key: "Food & Drink", Count: 2, Spend: dec("25")},
		{Key: "Income", Count: 1, Income: dec("1000")},
		{Key: "Rent", Count: 1, Spend: dec("75")},
	}
	b := Categories(aggs, time.Time{}, 3)

	require.Len(t, b.Categories, 3)
	assert.Equal(t, "Rent", b.Categories[0].Category)
	assert.Equal(t, "75.00", b.Categories[0].ShareOfSpend.StringFixed(2))
	assert.Equal(t, "25.00", b.Categories[1].ShareOfSpend.StringFixed(2))
	assert.True(t, b.Categories[2].ShareOfSpend.IsZero())
	assert.Equal(t, "900.00", b.NetTotal.StringFixed(2))
}

func TestMerchants(t *testing.T) {
	aggs := []store.Aggregate{
		{Key: "", Count: 1, Spend: dec("5")},
		{Key: "Landlord", Count: 1, Spend: dec("900")},
		{Key: "ACME", Count: 2, Income: dec("3000")},
	}
	rows := Merchants(aggs, 2)
	require.Len(t, rows, 2)
	assert.Equal(t, "Landlord", rows[0].Merchant)
	assert.Equal(t, "Unknown", rows[1].Merchant)
}

func TestInsights(t *testing.T) {
	in := BuildInsights([]store.Aggregate{
		{Key: "Food", Spend: dec("10")},
		{Key: "Rent", Spend: dec("90")},
		{Key: "Income", Income: dec("150")},
	})
	require.Len(t, in.SpendingByCategory, 2)
	assert.Equal(t, "Rent", in.SpendingByCategory[0].Category)
	assert.Equal(t, "100.00", in.TotalSpend.StringFixed(2))
	assert.Equal(t, "50.00", in.Net.StringFixed(2))
}

func TestMonthlyTimeline(t *testing.T) {
	tl := MonthlyTimeline([]store.Aggregate{
		{Key: "2025-02", Income: dec("10")},
		{Key: "2025-01", Spend: dec("4")},
	}, time.Time{}, 6)
	require.Len(t, tl.Points, 2)
	assert.Equal(t, "2025-01", tl.Points[0].Month)
	assert.Equal(t, "-4.00", tl.Points[0].Net.StringFixed(2))
}

func TestForecastAndSnapshot(t *testing.T) {
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)
	txns := []model.Transaction{
		{Date: time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), Amount: dec("-30"), Merchant: "Grocer", Category: model.StringPtr("Groceries")},
		{Date: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), Amount: dec("-60"), Merchant: "Landlord"},
		{Date: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), Amount: dec("200"), Merchant: "ACME"},
		{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Amount: dec("-999"), Merchant: "Old"},
	}

	assert.Equal(t, "1320", Forecast(txns, now).String())

	snap := Snapshot(txns, now, 30, 12)
	assert.Equal(t, "Window: last 30 days\n"+
		"Income: 200.00\n"+
		"Spend: 90.00\n"+
		"Net: 110.00\n"+
		"AvgDailySpend: 3.00\n"+
		"TopCategories: Uncategorized:60, Groceries:30\n"+
		"TopMerchants: Landlord:60, Grocer:30", snap)

	assert.Equal(t, "Window: last 30 days\nIncome: 200.00", Snapshot(txns, now, 30, 2))
	assert.Equal(t, "No recent transactions in last 30 days.", Snapshot(nil, now, 30, 12))
}
