package store

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finsight/internal/model"
)

// Filter narrows a transaction query. Zero fields do not filter.
type Filter struct {
	From              time.Time // inclusive
	To                time.Time // inclusive
	Merchant          string    // case-insensitive exact match
	IDs               []uint64
	UncategorizedOnly bool
	NewestFirst       bool // by date, then id
	Limit             int
}

func (f Filter) match(t model.Transaction, ids map[uint64]bool) bool {
	switch {
	case !f.From.IsZero() && t.Date.Before(f.From):
		return false
	case !f.To.IsZero() && t.Date.After(f.To):
		return false
	case f.Merchant != "" && !strings.EqualFold(t.Merchant, f.Merchant):
		return false
	case ids != nil && !ids[t.ID]:
		return false
	case f.UncategorizedOnly && !t.IsUncategorized():
		return false
	}
	return true
}

// CreateTransactions assigns ids to txns in order and stores them.
func (t *Tx) CreateTransactions(txns []model.Transaction) ([]model.Transaction, error) {
	b := t.tx.Bucket(transactionsBucket)
	out := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		id, err := b.NextSequence()
		if err != nil {
			return nil, fmt.Errorf("allocating transaction id: %w", err)
		}
		txn.ID = id
		if err := t.putTransaction(txn); err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, nil
}

func (t *Tx) putTransaction(txn model.Transaction) error {
	data, err := encode(txn)
	if err != nil {
		return err
	}
	if err := t.tx.Bucket(transactionsBucket).Put(itob(txn.ID), data); err != nil {
		return fmt.Errorf("writing transaction %d: %w", txn.ID, err)
	}
	return nil
}

// Transaction returns the transaction with id.
func (t *Tx) Transaction(id uint64) (model.Transaction, error) {
	data := t.tx.Bucket(transactionsBucket).Get(itob(id))
	if data == nil {
		return model.Transaction{}, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	var txn model.Transaction
	if err := decode(data, &txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// Transactions returns the transactions matching f, in id order unless
// f.NewestFirst is set.
func (t *Tx) Transactions(f Filter) ([]model.Transaction, error) {
	var ids map[uint64]bool
	if f.IDs != nil {
		ids = make(map[uint64]bool, len(f.IDs))
		for _, id := range f.IDs {
			ids[id] = true
		}
	}

	var out []model.Transaction
	c := t.tx.Bucket(transactionsBucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var txn model.Transaction
		if err := decode(v, &txn); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", btoi(k), err)
		}
		if f.match(txn, ids) {
			out = append(out, txn)
		}
	}
	if f.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			if !out[i].Date.Equal(out[j].Date) {
				return out[i].Date.After(out[j].Date)
			}
			return out[i].ID > out[j].ID
		})
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// SetCategory replaces the live category of a transaction and returns the
// previous value.
func (t *Tx) SetCategory(id uint64, category *string) (*string, error) {
	txn, err := t.Transaction(id)
	if err != nil {
		return nil, err
	}
	prev := txn.Category
	txn.Category = category
	return prev, t.putTransaction(txn)
}

// RenameCategory moves every transaction categorized as from to to.
func (t *Tx) RenameCategory(from, to string) (int, error) {
	txns, err := t.Transactions(Filter{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, txn := range txns {
		if txn.CategoryValue() != from || txn.Category == nil {
			continue
		}
		txn.Category = model.StringPtr(to)
		if err := t.putTransaction(txn); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DeleteTransactions removes every listed id. A missing id is an error.
func (t *Tx) DeleteTransactions(ids []uint64) error {
	b := t.tx.Bucket(transactionsBucket)
	for _, id := range ids {
		if b.Get(itob(id)) == nil {
			return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
		}
		if err := b.Delete(itob(id)); err != nil {
			return fmt.Errorf("deleting transaction %d: %w", id, err)
		}
	}
	return nil
}

// Aggregate is the count and sums of a group of transactions.
type Aggregate struct {
	Key    string          `json:"key"`
	Count  int             `json:"count"`
	Income decimal.Decimal `json:"income"`
	Spend  decimal.Decimal `json:"spend"` // absolute outflow
}

// Net is income minus spend.
func (a Aggregate) Net() decimal.Decimal {
	return a.Income.Sub(a.Spend)
}

// UncategorizedKey groups transactions without a category.
const UncategorizedKey = "Uncategorized"

// SumByCategory aggregates matching transactions by category, sorted by key.
func (t *Tx) SumByCategory(f Filter) ([]Aggregate, error) {
	return t.sumBy(f, func(txn model.Transaction) string {
		if !txn.HasCategory() {
			return UncategorizedKey
		}
		return *txn.Category
	})
}

// SumByMonth aggregates matching transactions by YYYY-MM, oldest first.
func (t *Tx) SumByMonth(f Filter) ([]Aggregate, error) {
	return t.sumBy(f, func(txn model.Transaction) string {
		return txn.Date.Format("2006-01")
	})
}

// SumByMerchant aggregates matching transactions by merchant, sorted by key.
func (t *Tx) SumByMerchant(f Filter) ([]Aggregate, error) {
	return t.sumBy(f, func(txn model.Transaction) string {
		return txn.Merchant
	})
}

func (t *Tx) sumBy(f Filter, key func(model.Transaction) string) ([]Aggregate, error) {
	f.Limit = 0
	txns, err := t.Transactions(f)
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*Aggregate)
	for _, txn := range txns {
		k := key(txn)
		g, ok := groups[k]
		if !ok {
			g = &Aggregate{Key: k}
			groups[k] = g
		}
		g.Count++
		if txn.IsExpense() {
			g.Spend = g.Spend.Add(txn.Amount.Abs())
		} else {
			g.Income = g.Income.Add(txn.Amount)
		}
	}
	out := make([]Aggregate, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
