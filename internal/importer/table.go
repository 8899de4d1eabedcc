package importer

import "strings"

// Table is a decoded spreadsheet: one header row plus string cells.
// Rows may be shorter than Columns; missing cells read as blank.
type Table struct {
	Columns []string
	Rows    [][]string
}

// index returns the position of col, the last one when the name repeats.
func (t *Table) index(col string) int {
	for i := len(t.Columns) - 1; i >= 0; i-- {
		if t.Columns[i] == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is present.
func (t *Table) Has(col string) bool {
	return t.index(col) >= 0
}

// Cell returns the untrimmed value of col in row r, or "" when absent.
func (t *Table) Cell(r int, col string) string {
	i := t.index(col)
	if i < 0 || i >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][i]
}

// Column returns every value of col in row order.
func (t *Table) Column(col string) []string {
	vals := make([]string, len(t.Rows))
	for r := range t.Rows {
		vals[r] = t.Cell(r, col)
	}
	return vals
}

// Rename renames every column named from to to.
func (t *Table) Rename(from, to string) {
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
}

// Drop removes every column named col together with its cells.
func (t *Table) Drop(col string) {
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if c != col {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(t.Columns) {
		return
	}
	cols := make([]string, len(keep))
	for j, i := range keep {
		cols[j] = t.Columns[i]
	}
	for r, row := range t.Rows {
		out := make([]string, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				out = append(out, row[i])
			} else {
				out = append(out, "")
			}
		}
		t.Rows[r] = out
	}
	t.Columns = cols
}

// AddColumn appends col with the same value in every row.
func (t *Table) AddColumn(col, value string) {
	n := len(t.Columns)
	t.Columns = append(t.Columns, col)
	for r, row := range t.Rows {
		for len(row) < n {
			row = append(row, "")
		}
		t.Rows[r] = append(row, value)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
