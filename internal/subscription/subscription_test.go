package subscription

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finsight/internal/model"
)

func charge(merchant string, date time.Time, amount string) model.Transaction {
	return model.Transaction{
		Date:     date,
		Merchant: merchant,
		Amount:   decimal.RequireFromString(amount),
	}
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestAnalyze_MonthlyCharges(t *testing.T) {
	txns := []model.Transaction{
		charge("Spotify", d(2025, 3, 2), "-9.99"),
		charge("Spotify", d(2025, 1, 1), "-9.99"),
		charge("Spotify", d(2025, 1, 31), "-9.99"),
	}
	got := Analyze(txns)

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, "Spotify", p.Merchant)
	assert.Equal(t, 3, p.Occurrences)
	assert.Equal(t, 30.0, p.AvgIntervalDays)
	assert.Equal(t, 0.0, p.IntervalJitterDays)
	assert.True(t, p.Has(FlagRecurring))
	assert.True(t, p.Has(FlagSmallRecurring))
	assert.False(t, p.Has(FlagVariableAmount))
	require.NotNil(t, p.EstimatedNext)
	assert.Equal(t, d(2025, 4, 1), *p.EstimatedNext)
}

func TestAnalyze_TrialConversion(t *testing.T) {
	txns := []model.Transaction{
		charge("Gym", d(2025, 1, 1), "-1.00"),
		charge("Gym", d(2025, 1, 8), "-40.00"),
	}
	got := Analyze(txns)

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, []Flag{FlagTrialConverted, FlagVariableAmount}, p.Flags)
	assert.Nil(t, p.EstimatedNext)
}

func TestAnalyze_IgnoresIncomeSingletonsAndBlankMerchants(t *testing.T) {
	txns := []model.Transaction{
		charge("Employer", d(2025, 1, 1), "3000"),
		charge("Employer", d(2025, 1, 31), "3000"),
		charge("Once", d(2025, 1, 5), "-20"),
		charge("", d(2025, 1, 1), "-5"),
		charge("", d(2025, 1, 31), "-5"),
		charge("Random", d(2025, 1, 1), "-5"),
		charge("Random", d(2025, 1, 3), "-5"),
	}
	assert.Empty(t, Analyze(txns))
}

func TestAnalyze_SkipsBlankMerchants(t *testing.T) {
	var txns []model.Transaction
	for _, m := range []string{"", "   ", "Netflix"} {
		txns = append(txns,
			charge(m, d(2025, 1, 1), "-15.49"),
			charge(m, d(2025, 1, 31), "-15.49"),
			charge(m, d(2025, 3, 2), "-15.49"),
		)
	}
	got := Analyze(txns)

	require.Len(t, got, 1)
	assert.Equal(t, "Netflix", got[0].Merchant)
	assert.Equal(t, 3, got[0].Occurrences)
}

func TestAnalyze_MultiMonthIrregular(t *testing.T) {
	txns := []model.Transaction{
		charge("Utility", d(2025, 1, 28), "-50"),
		charge("Utility", d(2025, 2, 3), "-70"),
		charge("Utility", d(2025, 2, 9), "-60"),
	}
	got := Analyze(txns)

	require.Len(t, got, 1)
	p := got[0]
	assert.Equal(t, []Flag{FlagRecurring, FlagVariableAmount}, p.Flags)
	assert.Equal(t, 6.0, p.AvgIntervalDays)
	assert.Equal(t, 60.0, p.AvgAmount)
	require.NotNil(t, p.EstimatedNext)
	assert.Equal(t, d(2025, 2, 15), *p.EstimatedNext)
}

func TestAnalyze_SortOrder(t *testing.T) {
	txns := []model.Transaction{
		// recurring, next 2025-03-03
		charge("Late", d(2025, 1, 2), "-20"),
		charge("Late", d(2025, 2, 1), "-20"),
		// recurring, next 2025-02-28
		charge("Soon", d(2024, 12, 30), "-20"),
		charge("Soon", d(2025, 1, 29), "-20"),
		// trial only, no estimate
		charge("Trial", d(2025, 1, 1), "-0.50"),
		charge("Trial", d(2025, 1, 5), "-30"),
	}
	got := Analyze(txns)

	require.Len(t, got, 3)
	assert.Equal(t, "Trial", got[0].Merchant)
	assert.Equal(t, "Soon", got[1].Merchant)
	assert.Equal(t, "Late", got[2].Merchant)
}
