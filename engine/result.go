package engine

import "github.com/vegasq/memsql/value"

// QueryResult is the library entry point's return shape (spec §6):
// an ordered column list and an ordered row list of scalars. Every
// statement produces one, including DML/DDL, which return one row with a
// single column: the affected-row count (named "inserted", "updated",
// "deleted" or "affected") for DML, or "status" holding "OK" otherwise.
type QueryResult struct {
	Cols []string
	Data [][]value.Value
}

// Columns returns the result's column names in order.
func (r *QueryResult) Columns() []string { return r.Cols }

// RowCount returns the number of result rows.
func (r *QueryResult) RowCount() int { return len(r.Data) }

// ColumnCount returns the number of result columns.
func (r *QueryResult) ColumnCount() int { return len(r.Cols) }

// Get returns the scalar at (row, col).
func (r *QueryResult) Get(row, col int) value.Value { return r.Data[row][col] }

// statusResult builds the one-row, one-column result DML/DDL/transaction
// statements return: a single status column named per the statement kind.
func statusResult(column string, v value.Value) *QueryResult {
	return &QueryResult{Cols: []string{column}, Data: [][]value.Value{{v}}}
}
