package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finsight/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "finsight.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, s *Store) []model.Transaction {
	t.Helper()
	in := []model.Transaction{
		{Date: date(2025, 1, 5), Description: "Coffee", Amount: decimal.RequireFromString("-3.50"), Merchant: "Starbucks", Category: model.StringPtr("Food & Drink")},
		{Date: date(2025, 1, 20), Description: "Payroll", Amount: decimal.RequireFromString("2000"), Merchant: "ACME"},
		{Date: date(2025, 2, 2), Description: "Latte", Amount: decimal.RequireFromString("-4.25"), Merchant: "starbucks", Category: model.StringPtr("Food & Drink")},
	}
	var out []model.Transaction
	require.NoError(t, s.Update(func(tx *Tx) error {
		var err error
		out, err = tx.CreateTransactions(in)
		return err
	}))
	return out
}

func TestCreateAndGet(t *testing.T) {
	s := openTemp(t)
	created := seed(t, s)

	require.Len(t, created, 3)
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{created[0].ID, created[1].ID, created[2].ID})

	require.NoError(t, s.View(func(tx *Tx) error {
		got, err := tx.Transaction(1)
		require.NoError(t, err)
		assert.Equal(t, "Coffee", got.Description)
		assert.Equal(t, "-3.50", got.Amount.StringFixed(2))
		assert.Equal(t, "Food & Drink", *got.Category)
		assert.True(t, got.Date.Equal(date(2025, 1, 5)))

		got, err = tx.Transaction(2)
		require.NoError(t, err)
		assert.Nil(t, got.Category)

		_, err = tx.Transaction(99)
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestTransactions_Filter(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	require.NoError(t, s.View(func(tx *Tx) error {
		all, err := tx.Transactions(Filter{NewestFirst: true})
		require.NoError(t, err)
		assert.Equal(t, uint64(3), all[0].ID)

		jan, err := tx.Transactions(Filter{From: date(2025, 1, 1), To: date(2025, 1, 31)})
		require.NoError(t, err)
		assert.Len(t, jan, 2)

		sb, err := tx.Transactions(Filter{Merchant: "STARBUCKS"})
		require.NoError(t, err)
		assert.Len(t, sb, 2)

		ids, err := tx.Transactions(Filter{IDs: []uint64{2, 3}, Limit: 1})
		require.NoError(t, err)
		require.Len(t, ids, 1)
		assert.Equal(t, uint64(2), ids[0].ID)

		unc, err := tx.Transactions(Filter{UncategorizedOnly: true})
		require.NoError(t, err)
		require.Len(t, unc, 1)
		assert.Equal(t, "Payroll", unc[0].Description)
		return nil
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	boom := errors.New("boom")
	err := s.Update(func(tx *Tx) error {
		require.NoError(t, tx.DeleteTransactions([]uint64{1}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.Update(func(tx *Tx) error {
		return tx.DeleteTransactions([]uint64{2, 42})
	})
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.View(func(tx *Tx) error {
		all, err := tx.Transactions(Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
		return nil
	}))
}

func TestSetAndRenameCategory(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	require.NoError(t, s.Update(func(tx *Tx) error {
		prev, err := tx.SetCategory(2, model.StringPtr("Income"))
		require.NoError(t, err)
		assert.Nil(t, prev)

		n, err := tx.RenameCategory("Food & Drink", "Dining")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		return nil
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		got, err := tx.Transaction(3)
		require.NoError(t, err)
		assert.Equal(t, "Dining", *got.Category)
		return nil
	}))
}

func TestEmptyCategoryRoundTrip(t *testing.T) {
	s := openTemp(t)

	require.NoError(t, s.Update(func(tx *Tx) error {
		_, err := tx.CreateTransactions([]model.Transaction{
			{Date: date(2025, 1, 5), Description: "Coffee", Amount: decimal.RequireFromString("-3.50"), Category: model.StringPtr("")},
			{Date: date(2025, 1, 6), Description: "Tea", Amount: decimal.RequireFromString("-2.00")},
		})
		if err != nil {
			return err
		}
		_, err = tx.AppendRecords([]model.CategoryRecord{
			{TransactionID: 1, Source: model.SourceCluster, Category: "Cluster: coffee", Promoted: true, OriginalCategory: model.StringPtr(""), CreatedAt: date(2025, 2, 1)},
			{TransactionID: 2, Source: model.SourceCluster, Category: "Cluster: tea", Promoted: true, CreatedAt: date(2025, 2, 1)},
		})
		return err
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		got, err := tx.Transaction(1)
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, "", *got.Category)

		got, err = tx.Transaction(2)
		require.NoError(t, err)
		assert.Nil(t, got.Category)

		list, err := tx.Transactions(Filter{})
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.NotNil(t, list[0].Category)
		assert.Nil(t, list[1].Category)

		recs, err := tx.Records(1)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		require.NotNil(t, recs[0].OriginalCategory)
		assert.Equal(t, "", *recs[0].OriginalCategory)

		recs, err = tx.Records(2)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Nil(t, recs[0].OriginalCategory)
		return nil
	}))

	require.NoError(t, s.Update(func(tx *Tx) error {
		prev, err := tx.SetCategory(2, model.StringPtr(""))
		require.NoError(t, err)
		assert.Nil(t, prev)
		return nil
	}))
	require.NoError(t, s.View(func(tx *Tx) error {
		got, err := tx.Transaction(2)
		require.NoError(t, err)
		require.NotNil(t, got.Category)
		assert.Equal(t, "", *got.Category)
		return nil
	}))
}

func TestAggregates(t *testing.T) {
	s := openTemp(t)
	seed(t, s)

	require.NoError(t, s.View(func(tx *Tx) error {
		cats, err := tx.SumByCategory(Filter{})
		require.NoError(t, err)
		require.Len(t, cats, 2)
		assert.Equal(t, "Food & Drink", cats[0].Key)
		assert.Equal(t, 2, cats[0].Count)
		assert.Equal(t, "7.75", cats[0].Spend.StringFixed(2))
		assert.Equal(t, UncategorizedKey, cats[1].Key)
		assert.Equal(t, "2000.00", cats[1].Income.StringFixed(2))

		months, err := tx.SumByMonth(Filter{})
		require.NoError(t, err)
		require.Len(t, months, 2)
		assert.Equal(t, "2025-01", months[0].Key)
		assert.Equal(t, "1996.50", months[0].Net().StringFixed(2))
		return nil
	}))
}

func TestRecords(t *testing.T) {
	s := openTemp(t)
	seed(t, s)
	conf := 0.9

	require.NoError(t, s.Update(func(tx *Tx) error {
		recs, err := tx.AppendRecords([]model.CategoryRecord{
			{TransactionID: 1, Source: model.SourceCluster, Category: "Cluster: coffee", Confidence: &conf},
			{TransactionID: 2, Source: model.SourceModel, Category: "Income"},
			{TransactionID: 1, Source: model.SourceManual, Category: "Food & Drink", Promoted: true},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, recs[0].ID)
		assert.NotEqual(t, recs[0].ID, recs[1].ID)
		return nil
	}))

	require.NoError(t, s.Update(func(tx *Tx) error {
		hist, err := tx.Records(1)
		require.NoError(t, err)
		require.Len(t, hist, 2)
		assert.Equal(t, model.SourceCluster, hist[0].Source)
		assert.Equal(t, 0.9, *hist[0].Confidence)

		latest, err := tx.LatestRecords(2)
		require.NoError(t, err)
		require.Len(t, latest, 2)
		assert.Equal(t, model.SourceManual, latest[0].Source)

		ids, err := tx.RecordedTransactions()
		require.NoError(t, err)
		assert.Equal(t, map[uint64]bool{1: true, 2: true}, ids)

		ok, err := tx.HasLabel(model.SourceCluster, "Cluster: coffee")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = tx.HasLabel(model.SourceModel, "Cluster: coffee")
		require.NoError(t, err)
		assert.False(t, ok)

		n, err := tx.RenameLabel(model.SourceCluster, "Cluster: coffee", "Coffee")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		hist, err = tx.Records(1)
		require.NoError(t, err)
		assert.Equal(t, "Coffee", hist[0].Category)
		return nil
	}))
}

func TestCoachMessagesAndImports(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Update(func(tx *Tx) error {
		for _, c := range []string{"one", "two", "three"} {
			if _, err := tx.AppendCoachMessage(model.CoachMessage{Role: "user", Content: c}); err != nil {
				return err
			}
		}
		return tx.RecordImport(Import{ID: "abc", File: "bank.csv", Records: 3})
	}))

	require.NoError(t, s.View(func(tx *Tx) error {
		msgs, err := tx.RecentCoachMessages(2)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "two", msgs[0].Content)
		assert.Equal(t, "three", msgs[1].Content)
		assert.Equal(t, uint64(3), msgs[1].ID)

		imps, err := tx.Imports()
		require.NoError(t, err)
		require.Len(t, imps, 1)
		assert.Equal(t, "bank.csv", imps[0].File)
		return nil
	}))
}
