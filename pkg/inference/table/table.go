// Package table holds the in-memory tabular form a model consumes and
// produces: a 2-D labeled table with ordered columns. A 1-D labeled series is
// a single-row table.
package table

import (
	"fmt"
)

// Table is an ordered set of named columns with zero or more value rows.
type Table struct {
	columns []string
	rows    [][]any
}

// New creates an empty table with the given column order.
func New(columns ...string) *Table {
	return &Table{columns: append([]string(nil), columns...)}
}

// FromRecord creates a single-row table from a record, keeping the given
// column order.
func FromRecord(columns []string, record map[string]any) *Table {
	t := New(columns...)
	row := make([]any, len(columns))
	for i, name := range columns {
		row[i] = record[name]
	}
	t.rows = append(t.rows, row)
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return t.columns
}

// NumRows returns the number of value rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// AppendRow adds one row; the value count must match the column count.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row has %d value(s), table declares %d column(s)", len(values), len(t.columns))
	}
	t.rows = append(t.rows, append([]any(nil), values...))
	return nil
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Record returns row i as a column name to value mapping.
func (t *Table) Record(i int) map[string]any {
	record := make(map[string]any, len(t.columns))
	for idx, name := range t.columns {
		record[name] = t.rows[i][idx]
	}
	return record
}

// Records returns all rows as name to value mappings.
func (t *Table) Records() []map[string]any {
	records := make([]map[string]any, t.NumRows())
	for i := range t.rows {
		records[i] = t.Record(i)
	}
	return records
}
