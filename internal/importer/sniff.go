package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

const (
	// sniffSampleSize is how much of the input is inspected for the delimiter.
	sniffSampleSize = 2048
	// sniffMinConsistency is the share of sample lines that must agree on the
	// field count for a candidate delimiter to win.
	sniffMinConsistency = 0.9
)

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// DecodeText converts raw bytes to text, replacing invalid UTF-8 sequences.
func DecodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// DetectDelimiter inspects the first 2048 bytes of text and returns the
// candidate delimiter whose per-line count is most consistent. It reports
// false and falls back to a comma when no candidate qualifies.
func DetectDelimiter(text string) (rune, bool) {
	sample := text
	truncated := false
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
		truncated = true
	}
	rawLines := strings.Split(sample, "\n")
	if truncated && len(rawLines) > 1 {
		rawLines = rawLines[:len(rawLines)-1]
	}
	var lines []string
	for _, l := range rawLines {
		l = strings.TrimRight(l, "\r")
		if isBlank(l) || strings.HasPrefix(strings.TrimSpace(l), "#") {
			continue
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return ',', false
	}

	best := ','
	bestConsistency, bestCount := 0.0, 0
	found := false
	for _, d := range delimiterCandidates {
		freq := make(map[int]int)
		for _, l := range lines {
			freq[countUnquoted(l, d)]++
		}
		modal, modalLines := 0, 0
		for count, n := range freq {
			if n > modalLines || (n == modalLines && count > modal) {
				modal, modalLines = count, n
			}
		}
		if modal == 0 {
			continue
		}
		consistency := float64(modalLines) / float64(len(lines))
		if consistency < sniffMinConsistency {
			continue
		}
		if !found || consistency > bestConsistency || (consistency == bestConsistency && modal > bestCount) {
			best, bestConsistency, bestCount, found = d, consistency, modal, true
		}
	}
	return best, found
}

// countUnquoted counts d outside double-quoted sections of line.
func countUnquoted(line string, d rune) int {
	n := 0
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == d && !quoted:
			n++
		}
	}
	return n
}

// CSVParser reads delimited text with an auto-detected delimiter.
type CSVParser struct{}

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse decodes data and splits it into a header row and data rows.
func (p *CSVParser) Parse(data []byte) (*Sheet, error) {
	text := DecodeText(data)
	delim, _ := DetectDelimiter(text)

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return newSheet(records, string(delim))
}

func newSheet(records [][]string, delimiter string) (*Sheet, error) {
	if len(records) <= 1 {
		return nil, ErrEmptyInput
	}
	return &Sheet{
		Table: &Table{
			Columns: records[0],
			Rows:    records[1:],
		},
		Delimiter: delimiter,
	}, nil
}
