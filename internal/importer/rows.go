package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/model"
)

// dateFormats are tried in order; the first that parses wins. Month and
// day take one or two digits.
var dateFormats = []string{
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"2-1-2006",
}

// signTextColumns are concatenated with the description for keyword sign
// inference.
var signTextColumns = []string{ColCategory, "labels", "notes", ColTxnType}

// ParseDate parses s with the first matching accepted format.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s", s)
}

// rowResult is the accumulated state of the row fold.
type rowResult struct {
	accepted     []model.Transaction
	errs         []RowError
	skipped      int
	signInferred int
}

// parseRows folds t's rows into transactions. Rows that fail to parse are
// counted as skipped and the first maxErrs failures are kept.
func parseRows(t *Table, signs SignRules, cats categoryAssigner, maxErrs int) rowResult {
	var res rowResult
	for r := range t.Rows {
		txn, status, err := parseRow(t, r, signs, cats)
		switch {
		case err != nil:
			res.skipped++
			if len(res.errs) < maxErrs {
				res.errs = append(res.errs, RowError{Row: r, Err: err.Error()})
			}
		case status == rowComment:
			res.skipped++
		default:
			if status == rowSignInferred {
				res.signInferred++
			}
			res.accepted = append(res.accepted, txn)
		}
	}
	return res
}

type rowStatus int

const (
	rowOK rowStatus = iota
	rowSignInferred
	rowComment
)

// isCommentRow reports whether the line starts with '#'.
func isCommentRow(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "#")
}

func parseRow(t *Table, r int, signs SignRules, cats categoryAssigner) (model.Transaction, rowStatus, error) {
	rawDate := strings.TrimSpace(t.Cell(r, ColDate))
	if rawDate == "" || strings.HasPrefix(rawDate, "#") || isCommentRow(t.Rows[r]) {
		return model.Transaction{}, rowComment, nil
	}
	date, err := ParseDate(rawDate)
	if err != nil {
		return model.Transaction{}, rowOK, err
	}

	desc := strings.TrimSpace(t.Cell(r, ColDescription))
	if desc == "" {
		desc = model.UnknownDescription
	}
	merchant := strings.TrimSpace(t.Cell(r, ColMerchant))

	rawAmount := strings.TrimSpace(t.Cell(r, ColAmount))
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return model.Transaction{}, rowOK, fmt.Errorf("invalid amount %q", rawAmount)
	}

	parts := []string{desc}
	for _, col := range signTextColumns {
		parts = append(parts, t.Cell(r, col))
	}
	amount, inferred := signs.Resolve(amount, t.Cell(r, ColTxnType), strings.Join(parts, " "))

	status := rowOK
	if inferred {
		status = rowSignInferred
	}
	return model.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Merchant:    merchant,
		Category:    cats.assign(t.Cell(r, ColCategory), desc, merchant),
	}, status, nil
}
