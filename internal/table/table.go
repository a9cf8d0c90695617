// Package table provides the ordered in-memory tables that pipeline stages
// hand to each other, plus JSON record ingestion and CSV persistence.
//
// A Table keeps column order stable: columns appear in the order they were
// first seen in the source data, and every projection preserves the order of
// the requested columns. Cell values are one of nil (null), string, int64,
// float64, bool, or time.Time.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Table is an ordered collection of rows sharing a column set.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// New creates an empty table with the given columns.
func New(cols ...string) *Table {
	t := &Table{
		cols:  make([]string, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Column returns the index of a column by name.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// AddColumn appends a column if it does not already exist and returns its
// index. Existing rows are padded with nulls.
func (t *Table) AddColumn(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	i := len(t.cols)
	t.cols = append(t.cols, name)
	t.index[name] = i
	for r := range t.rows {
		t.rows[r] = append(t.rows[r], nil)
	}
	return i
}

// AppendRow adds a row. The row length must match the column count.
func (t *Table) AppendRow(row []any) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.cols))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the i-th row. The slice is shared, not copied.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Value returns the cell at row i, column name.
func (t *Table) Value(i int, col string) (any, bool) {
	c, ok := t.index[col]
	if !ok {
		return nil, false
	}
	return t.rows[i][c], true
}

// SetValue sets the cell at row i, column name.
func (t *Table) SetValue(i int, col string, v any) error {
	c, ok := t.index[col]
	if !ok {
		return fmt.Errorf("no such column: %s", col)
	}
	t.rows[i][c] = v
	return nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.cols...)
	out.rows = make([][]any, len(t.rows))
	for i, row := range t.rows {
		r := make([]any, len(row))
		copy(r, row)
		out.rows[i] = r
	}
	return out
}

// Project returns a new table holding only the requested columns, in the
// requested order. Every row is carried over.
func (t *Table) Project(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		ci, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("no such column: %s", c)
		}
		idx[i] = ci
	}
	out := New(cols...)
	for _, row := range t.rows {
		r := make([]any, len(idx))
		for i, ci := range idx {
			r[i] = row[ci]
		}
		out.rows = append(out.rows, r)
	}
	return out, nil
}

// Distinct returns a new table with duplicate rows removed, keeping the first
// occurrence of each distinct row. Equality is full-row: every column must
// match exactly, and nulls compare equal to nulls.
func (t *Table) Distinct() *Table {
	out := New(t.cols...)
	seen := make(map[string]struct{}, len(t.rows))
	for _, row := range t.rows {
		k := Key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		r := make([]any, len(row))
		copy(r, row)
		out.rows = append(out.rows, r)
	}
	return out
}

// Key encodes a value tuple into a string usable as a map key for dedup and
// join lookups. The encoding is type-tagged so that e.g. int64(1) and "1" do
// not collide, and null is distinct from the empty string.
func Key(vals []any) string {
	var b strings.Builder
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		switch x := v.(type) {
		case nil:
			b.WriteByte('n')
		case string:
			b.WriteByte('s')
			b.WriteString(x)
		case int64:
			b.WriteByte('i')
			b.WriteString(strconv.FormatInt(x, 10))
		case float64:
			b.WriteByte('f')
			b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
		case bool:
			b.WriteByte('b')
			b.WriteString(strconv.FormatBool(x))
		case time.Time:
			b.WriteByte('t')
			b.WriteString(x.UTC().Format(time.RFC3339Nano))
		default:
			b.WriteByte('?')
			fmt.Fprintf(&b, "%v", x)
		}
	}
	return b.String()
}
