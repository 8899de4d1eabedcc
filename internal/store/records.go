package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/finsight/internal/model"
)

// AppendRecords stores category records in order. Records without an id get
// a new uuid.
func (t *Tx) AppendRecords(recs []model.CategoryRecord) ([]model.CategoryRecord, error) {
	out := make([]model.CategoryRecord, 0, len(recs))
	for _, r := range recs {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if _, err := t.appendSeq(recordsBucket, r); err != nil {
			return nil, fmt.Errorf("appending record for transaction %d: %w", r.TransactionID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// eachRecord calls fn for every record, oldest first. fn returns false to stop.
func (t *Tx) eachRecord(fn func(model.CategoryRecord) bool) error {
	c := t.tx.Bucket(recordsBucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var r model.CategoryRecord
		if err := decode(v, &r); err != nil {
			return fmt.Errorf("record %d: %w", btoi(k), err)
		}
		if !fn(r) {
			return nil
		}
	}
	return nil
}

// Records returns the history of one transaction, oldest first.
func (t *Tx) Records(txnID uint64) ([]model.CategoryRecord, error) {
	var out []model.CategoryRecord
	err := t.eachRecord(func(r model.CategoryRecord) bool {
		if r.TransactionID == txnID {
			out = append(out, r)
		}
		return true
	})
	return out, err
}

// LatestRecords returns up to n records, newest first.
func (t *Tx) LatestRecords(n int) ([]model.CategoryRecord, error) {
	var out []model.CategoryRecord
	c := t.tx.Bucket(recordsBucket).Cursor()
	for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
		var r model.CategoryRecord
		if err := decode(v, &r); err != nil {
			return nil, fmt.Errorf("record %d: %w", btoi(k), err)
		}
		out = append(out, r)
	}
	return out, nil
}

// RecordedTransactions returns the ids of transactions with any record.
func (t *Tx) RecordedTransactions() (map[uint64]bool, error) {
	ids := make(map[uint64]bool)
	err := t.eachRecord(func(r model.CategoryRecord) bool {
		ids[r.TransactionID] = true
		return true
	})
	return ids, err
}

// HasLabel reports whether any record from source carries label.
func (t *Tx) HasLabel(source model.CategorySource, label string) (bool, error) {
	found := false
	err := t.eachRecord(func(r model.CategoryRecord) bool {
		found = r.Source == source && r.Category == label
		return !found
	})
	return found, err
}

// RenameLabel rewrites the category of every record from source labelled
// from and returns how many changed.
func (t *Tx) RenameLabel(source model.CategorySource, from, to string) (int, error) {
	b := t.tx.Bucket(recordsBucket)
	type change struct {
		key []byte
		rec model.CategoryRecord
	}
	var changes []change
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var r model.CategoryRecord
		if err := decode(v, &r); err != nil {
			return 0, fmt.Errorf("record %d: %w", btoi(k), err)
		}
		if r.Source == source && r.Category == from {
			r.Category = to
			changes = append(changes, change{key: append([]byte(nil), k...), rec: r})
		}
	}
	for _, ch := range changes {
		data, err := encode(ch.rec)
		if err != nil {
			return 0, err
		}
		if err := b.Put(ch.key, data); err != nil {
			return 0, fmt.Errorf("rewriting record %d: %w", btoi(ch.key), err)
		}
	}
	return len(changes), nil
}
