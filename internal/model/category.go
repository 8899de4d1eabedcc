package model

import "time"

// CategorySource identifies who produced a categorization attempt.
type CategorySource string

const (
	SourceModel   CategorySource = "model"
	SourceCluster CategorySource = "cluster"
	SourceManual  CategorySource = "manual"
)

// CategoryRecord is one append-only categorization attempt for a transaction.
type CategoryRecord struct {
	ID               string         `json:"id"`
	TransactionID    uint64         `json:"transaction_id"`
	Source           CategorySource `json:"source"`
	Category         string         `json:"category"`
	Confidence       *float64       `json:"confidence"` // nil when the source gives none
	Model            string         `json:"model"`
	Promoted         bool           `json:"promoted"`
	OriginalCategory *string        `json:"original_category"` // set only when Promoted
	CreatedAt        time.Time      `json:"created_at"`
}
