package types

import "strings"

// Table is a header-derived view of a worksheet or a computed result.
type Table struct {
	// Headers are the column names, in sheet order.
	Headers []string

	// Rows holds the data rows. Values are positional and may be shorter
	// than Headers when trailing cells are blank.
	Rows []Row
}

// Row is a single data row.
type Row struct {
	// Number is the 1-based row number in the backing sheet. The header is row 1.
	// Computed rows that do not exist remotely carry 0.
	Number int

	Values []string
}

// NewTable returns an empty table with a copy of headers.
func NewTable(headers []string) *Table {
	h := make([]string, len(headers))
	copy(h, headers)
	return &Table{Headers: h}
}

// Index returns the position of column, or -1.
func (t *Table) Index(column string) int {
	for i, h := range t.Headers {
		if h == column {
			return i
		}
	}
	return -1
}

// Has reports whether column is present.
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Value returns the cell of row in column, or "" when either is missing.
func (t *Table) Value(row Row, column string) string {
	i := t.Index(column)
	if i < 0 || i >= len(row.Values) {
		return ""
	}
	return row.Values[i]
}

// Append adds a computed row.
func (t *Table) Append(values []string) {
	t.Rows = append(t.Rows, Row{Values: values})
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// TrimHeaders strips incidental whitespace around every column name.
func (t *Table) TrimHeaders() {
	for i, h := range t.Headers {
		t.Headers[i] = strings.TrimSpace(h)
	}
}

// DropEmptyRows removes rows whose cells are all blank.
func (t *Table) DropEmptyRows() {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if !IsBlank(row.Values) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// LastRowNumber returns the highest sheet row number in use, counting the
// header as row 1. An empty sheet without headers returns 0.
func (t *Table) LastRowNumber() int {
	last := 0
	if len(t.Headers) > 0 {
		last = 1
	}
	for _, row := range t.Rows {
		if row.Number > last {
			last = row.Number
		}
	}
	return last
}

// IsBlank reports whether every cell is empty after trimming.
func IsBlank(cells []string) bool {
	for _, cell := range cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
