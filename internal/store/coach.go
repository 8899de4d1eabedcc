package store

import (
	"fmt"
	"time"

	"github.com/cleared-dev/finsight/internal/model"
)

// AppendCoachMessage stores m and returns it with its id.
func (t *Tx) AppendCoachMessage(m model.CoachMessage) (model.CoachMessage, error) {
	b := t.tx.Bucket(coachBucket)
	id, err := b.NextSequence()
	if err != nil {
		return m, fmt.Errorf("allocating message id: %w", err)
	}
	m.ID = id
	data, err := encode(m)
	if err != nil {
		return m, err
	}
	return m, b.Put(itob(id), data)
}

// RecentCoachMessages returns the last n messages, oldest first.
func (t *Tx) RecentCoachMessages(n int) ([]model.CoachMessage, error) {
	var rev []model.CoachMessage
	c := t.tx.Bucket(coachBucket).Cursor()
	for k, v := c.Last(); k != nil && len(rev) < n; k, v = c.Prev() {
		var m model.CoachMessage
		if err := decode(v, &m); err != nil {
			return nil, fmt.Errorf("message %d: %w", btoi(k), err)
		}
		rev = append(rev, m)
	}
	out := make([]model.CoachMessage, len(rev))
	for i, m := range rev {
		out[len(rev)-1-i] = m
	}
	return out, nil
}

// Import is one persisted ingestion batch.
type Import struct {
	ID        string
	File      string
	Records   int
	Skipped   int
	CreatedAt time.Time
}

// RecordImport appends an import batch.
func (t *Tx) RecordImport(imp Import) error {
	_, err := t.appendSeq(importsBucket, imp)
	return err
}

// Imports returns every import batch, oldest first.
func (t *Tx) Imports() ([]Import, error) {
	var out []Import
	c := t.tx.Bucket(importsBucket).Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var imp Import
		if err := decode(v, &imp); err != nil {
			return nil, fmt.Errorf("import %d: %w", btoi(k), err)
		}
		out = append(out, imp)
	}
	return out, nil
}
