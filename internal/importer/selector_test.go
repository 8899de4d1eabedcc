package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCandidates(t *testing.T) {
	tbl := &Table{
		Columns: []string{"date", "amount", "order notes", "ref", "txn_type"},
		Rows: [][]string{
			{"2025-01-01", "-1", "coffee at starbucks", "1001", "debit"},
			{"2025-01-02", "-2", "", "1002", "debit"},
		},
	}
	cands := ScoreCandidates(tbl)

	require.Len(t, cands, 1, "numeric ref and reserved columns are excluded")
	c := cands[0]
	assert.Equal(t, "order notes", c.Column)
	assert.Equal(t, 0.5, c.NonEmptyRatio)
	assert.Equal(t, 3.0, c.Richness)
	assert.Equal(t, 2.0+0.75+1.5, c.Score)
	assert.Equal(t, []string{"coffee at starbucks"}, c.Examples)
}

func TestScoreCandidates_RankedByScore(t *testing.T) {
	tbl := &Table{
		Columns: []string{"date", "amount", "shop", "details text"},
		Rows: [][]string{
			{"2025-01-01", "-1", "Shop", "Lunch"},
			{"2025-01-02", "-2", "Shop", "Dinner"},
		},
	}
	cands := ScoreCandidates(tbl)
	require.Len(t, cands, 2)
	assert.Equal(t, "details text", cands[0].Column)
	assert.Equal(t, "shop", cands[1].Column)
}

func TestNumericCoded(t *testing.T) {
	assert.True(t, numericCoded([]string{"1", "2", "3,000", "x"}))
	assert.True(t, numericCoded([]string{"1", "2", "3", "4", "5", "6", "7", "a", "b", "c"}))
	assert.False(t, numericCoded([]string{"1", "2", "3", "4", "5", "6", "a", "b", "c", "d"}))
	assert.False(t, numericCoded([]string{"", "", "1"}))
	assert.False(t, numericCoded([]string{"NaN", "Inf", "x"}))
	assert.False(t, numericCoded(nil))
}

func TestIngest_LowConfidenceNeedsConfirmation(t *testing.T) {
	csv := "date,amount,transaction info,ref\n" +
		"2025-01-01,-3.50,Coffee at Starbucks,1001\n" +
		"2025-01-02,-20.00,Grocery run,1002\n"
	n := pending(t, ingestCSV(t, csv, Options{AutoConfirmDescription: true}))

	assert.Contains(t, n.Message, "Ambiguous")
	assert.False(t, n.Forced)
	require.Len(t, n.Candidates, 1)
	assert.Equal(t, "transaction info", n.Suggested.Column)
	assert.Equal(t, 2.75, n.Suggested.Score)
	assert.Equal(t, []string{"date", "amount", "transaction info", "ref"}, n.NormalizedColumns)
}

func TestIngest_ConfidentAutoConfirm(t *testing.T) {
	csv := "date,amount,order notes\n2025-01-01,-3.50,Coffee\n"

	n := pending(t, ingestCSV(t, csv, Options{}))
	assert.Contains(t, n.Message, "High confidence")

	c := confirmed(t, ingestCSV(t, csv, Options{AutoConfirmDescription: true}))
	assert.True(t, c.Report.AutoConfirmed)
	assert.Equal(t, "order notes", c.Report.DescriptionSource)
	require.Len(t, c.Report.CandidatesEvaluated, 1)
	assert.Equal(t, "Coffee", c.Transactions[0].Description)
	assert.Equal(t, []string{"date", "amount", "description", "merchant"}, c.Report.NormalizedColumns)
}

func TestIngest_ExplicitChoice(t *testing.T) {
	csv := "date,amount,transaction info,shop\n2025-01-01,-3.50,Latte,Corner Cafe\n"
	c := confirmed(t, ingestCSV(t, csv, Options{ChosenDescription: "shop"}))

	assert.Equal(t, "shop", c.Report.DescriptionSource)
	assert.False(t, c.Report.AutoConfirmed)
	assert.Equal(t, "Corner Cafe", c.Transactions[0].Description)
	assert.Equal(t, "Food & Drink", *c.Transactions[0].Category)
}

func TestIngest_ExplicitChoiceUnknown(t *testing.T) {
	sheet, err := (&CSVParser{}).Parse([]byte("date,amount,info,ref\n2025-01-01,-3.50,Latte,17\n"))
	require.NoError(t, err)

	_, err = Ingest(sheet, Options{ChosenDescription: "ref"})
	require.ErrorIs(t, err, ErrUnknownColumn)
	var uc *UnknownColumnError
	require.ErrorAs(t, err, &uc)
	assert.Equal(t, []string{"info"}, uc.Candidates)
}

func TestIngest_ExistingDescriptionNeverAsks(t *testing.T) {
	csv := "date,amount,description,memo text\n2025-01-01,-3.50,Coffee,something else\n"
	c := confirmed(t, ingestCSV(t, csv, Options{}))
	assert.Equal(t, "description", c.Report.DescriptionSource)
	assert.Nil(t, c.Report.CandidatesEvaluated)
}

func TestIngest_FallbackToFirstTextColumn(t *testing.T) {
	csv := "date,ref,amount\n2025-01-01,17,-3.50\n"
	c := confirmed(t, ingestCSV(t, csv, Options{}))

	assert.Equal(t, "ref", c.Report.DescriptionSource)
	assert.Equal(t, "17", c.Transactions[0].Description)
	assert.True(t, decimal.RequireFromString("-3.50").Equal(c.Transactions[0].Amount))
}

func TestIngest_ForcedSelectionBoostsExistingDescription(t *testing.T) {
	csv := "date,amount,description,shop\n" +
		"2025-01-01,-3.50,123,Shop\n" +
		"2025-01-02,-4.50,456,Shop\n"
	n := pending(t, ingestCSV(t, csv, Options{ForceDescriptionChoice: true, AutoConfirmDescription: true}))

	assert.True(t, n.Forced)
	assert.Contains(t, n.Message, "Forced")
	require.Len(t, n.Candidates, 2)
	assert.Equal(t, "description", n.Candidates[0].Column)
	assert.Equal(t, 5.0, n.Candidates[0].Score)
	assert.Equal(t, "shop", n.Suggested.Column)
}

func TestIngest_ForcedWithChoiceApplies(t *testing.T) {
	csv := "date,amount,description,shop\n2025-01-01,-3.50,123,Starbucks\n"
	c := confirmed(t, ingestCSV(t, csv, Options{ForceDescriptionChoice: true, ChosenDescription: "shop"}))

	assert.Equal(t, "Starbucks", c.Transactions[0].Description)
	assert.Equal(t, []string{"date", "amount", "description", "merchant"}, c.Report.NormalizedColumns)
}
