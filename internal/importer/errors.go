package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyInput is returned when a file has no data rows.
	ErrEmptyInput = errors.New("input is empty after parsing (check content / delimiter)")
	// ErrMissingFields is returned when required logical fields are absent
	// after normalization and fallback synthesis.
	ErrMissingFields = errors.New("missing required logical fields")
	// ErrUnknownColumn is returned when an explicit description choice is not
	// among the scored candidates.
	ErrUnknownColumn = errors.New("description column not among candidates")
)

// MissingFieldsError lists the required fields that could not be resolved.
type MissingFieldsError struct {
	Missing []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s after normalization: %s", ErrMissingFields, strings.Join(e.Missing, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingFields }

// UnknownColumnError reports a rejected explicit description choice.
type UnknownColumnError struct {
	Column     string
	Candidates []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%q: %s %v", e.Column, ErrUnknownColumn, e.Candidates)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// RowError is a recovered per-row parse failure. Row is the zero-based data
// row index.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

func (e RowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Err)
}
