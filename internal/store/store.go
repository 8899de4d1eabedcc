// Package store persists transactions, category records and coach messages
// in a bolt database.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"

	"github.com/cleared-dev/finsight/internal/model"
)

// ErrNotFound is returned when a keyed entity does not exist.
var ErrNotFound = errors.New("not found")

var (
	transactionsBucket = []byte("transactions")
	recordsBucket      = []byte("category_records")
	coachBucket        = []byte("coach_messages")
	importsBucket      = []byte("imports")
)

var allBuckets = [][]byte{transactionsBucket, recordsBucket, coachBucket, importsBucket}

// Store wraps a bolt database.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the database at path and ensures every bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a store transaction. Writes made through an Update Tx commit
// together or not at all.
type Tx struct {
	tx *bolt.Tx
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(*Tx) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

// Update runs fn in a read-write transaction. Returning an error rolls back
// every write made by fn.
func (s *Store) Update(fn func(*Tx) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Tx{tx: tx})
	})
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// storedTransaction and storedRecord carry a flag for a pointer to "",
// which gob would otherwise decode as nil.
type storedTransaction struct {
	model.Transaction
	EmptyCategory bool
}

type storedRecord struct {
	model.CategoryRecord
	EmptyOriginal bool
}

func isEmpty(s *string) bool {
	return s != nil && *s == ""
}

func encode(v any) ([]byte, error) {
	switch x := v.(type) {
	case model.Transaction:
		v = storedTransaction{Transaction: x, EmptyCategory: isEmpty(x.Category)}
	case model.CategoryRecord:
		v = storedRecord{CategoryRecord: x, EmptyOriginal: isEmpty(x.OriginalCategory)}
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	switch p := v.(type) {
	case *model.Transaction:
		var st storedTransaction
		if err := gobDecode(data, &st); err != nil {
			return err
		}
		if st.EmptyCategory {
			st.Category = model.StringPtr("")
		}
		*p = st.Transaction
		return nil
	case *model.CategoryRecord:
		var sr storedRecord
		if err := gobDecode(data, &sr); err != nil {
			return err
		}
		if sr.EmptyOriginal {
			sr.OriginalCategory = model.StringPtr("")
		}
		*p = sr.CategoryRecord
		return nil
	}
	return gobDecode(data, v)
}

func gobDecode(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}

// appendSeq stores v under the bucket's next sequence number.
func (t *Tx) appendSeq(bucket []byte, v any) (uint64, error) {
	b := t.tx.Bucket(bucket)
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("next sequence in %s: %w", bucket, err)
	}
	data, err := encode(v)
	if err != nil {
		return 0, err
	}
	if err := b.Put(itob(seq), data); err != nil {
		return 0, fmt.Errorf("writing %s/%d: %w", bucket, seq, err)
	}
	return seq, nil
}
