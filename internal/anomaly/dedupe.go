package anomaly

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cleared-dev/finsight/internal/model"
)

var (
	ErrNotFound     = errors.New("transaction not found")
	ErrNotExpense   = errors.New("transaction is not an expense")
	ErrNotDuplicate = errors.New("transaction has no duplicate")
)

// DedupeError names the transaction that made a dedupe request invalid.
type DedupeError struct {
	ID     uint64
	Reason error
}

func (e *DedupeError) Error() string {
	return fmt.Sprintf("transaction %d: %v", e.ID, e.Reason)
}

func (e *DedupeError) Unwrap() error { return e.Reason }

// DedupeRequest lists transactions to remove.
type DedupeRequest struct {
	IDs      []uint64
	Validate bool // every id must belong to a group of size > 1 in the full data set
	KeepOne  bool // keep the lowest id of any group whose members were all supplied
}

// DedupePlan is what a valid request deletes.
type DedupePlan struct {
	Delete []uint64 `json:"delete"`
	Kept   []uint64 `json:"kept"`
}

// PlanDedupe checks req against the full transaction set and returns the ids
// to delete. Any invalid id rejects the whole request.
func PlanDedupe(all []model.Transaction, req DedupeRequest) (DedupePlan, error) {
	byID := make(map[uint64]model.Transaction, len(all))
	var expenses []model.Transaction
	for _, t := range all {
		byID[t.ID] = t
		if t.IsExpense() {
			expenses = append(expenses, t)
		}
	}

	supplied := make(map[uint64]bool)
	var ids []uint64
	for _, id := range req.IDs {
		if supplied[id] {
			continue
		}
		t, ok := byID[id]
		if !ok {
			return DedupePlan{}, &DedupeError{ID: id, Reason: ErrNotFound}
		}
		if !t.IsExpense() {
			return DedupePlan{}, &DedupeError{ID: id, Reason: ErrNotExpense}
		}
		supplied[id] = true
		ids = append(ids, id)
	}

	members := make(map[string][]uint64)
	for _, g := range group(expenses) {
		for _, m := range g.Members {
			members[g.Key.id()] = append(members[g.Key.id()], m.ID)
		}
	}

	if req.Validate {
		for _, id := range ids {
			if len(members[KeyOf(byID[id]).id()]) <= 1 {
				return DedupePlan{}, &DedupeError{ID: id, Reason: ErrNotDuplicate}
			}
		}
	}

	kept := make(map[uint64]bool)
	if req.KeepOne {
		for _, id := range ids {
			group := members[KeyOf(byID[id]).id()]
			if allSupplied(group, supplied) {
				kept[minID(group)] = true
			}
		}
	}

	var plan DedupePlan
	for _, id := range ids {
		if kept[id] {
			plan.Kept = append(plan.Kept, id)
			continue
		}
		plan.Delete = append(plan.Delete, id)
	}
	sort.Slice(plan.Delete, func(i, j int) bool { return plan.Delete[i] < plan.Delete[j] })
	sort.Slice(plan.Kept, func(i, j int) bool { return plan.Kept[i] < plan.Kept[j] })
	return plan, nil
}

func allSupplied(ids []uint64, supplied map[uint64]bool) bool {
	for _, id := range ids {
		if !supplied[id] {
			return false
		}
	}
	return true
}

func minID(ids []uint64) uint64 {
	m := ids[0]
	for _, id := range ids[1:] {
		if id < m {
			m = id
		}
	}
	return m
}
