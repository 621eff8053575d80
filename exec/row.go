// Package exec implements C7 (Expression Evaluator), C8 (Query Executor)
// and C10 (Function Library): it turns a parsed sql.Statement plus a
// catalog.Catalog into a result set.
//
// Grounded on the query/executor.go pipeline shape (read source
// rows, join, filter, aggregate-or-project, distinct, order, limit) and
// its map[string]interface{} row/alias-prefixing convention, adapted to
// this repo's typed value.Value columns and to the richer clause set of
// spec §4 (window functions, QUALIFY, grouping sets, recursive CTEs,
// PIVOT/UNPIVOT, MERGE) that the dialect never needed.
package exec

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/value"
)

// Row is one intermediate row flowing through the executor pipeline: a
// flat, ordered list of (table, column, value) triples. Unlike the
// teacher's map[string]interface{}, Row keeps column order (needed for
// `SELECT *` projection) and allows two columns with the same bare name as
// long as they carry different table qualifiers.
type Row struct {
	Table []string
	Name  []string
	Val   []value.Value
}

// NewRow returns an empty row with capacity hint n.
func NewRow(n int) Row {
	return Row{
		Table: make([]string, 0, n),
		Name:  make([]string, 0, n),
		Val:   make([]value.Value, 0, n),
	}
}

// Append adds one column to the row.
func (r *Row) Append(table, name string, v value.Value) {
	r.Table = append(r.Table, table)
	r.Name = append(r.Name, name)
	r.Val = append(r.Val, v)
}

// Len reports the column count.
func (r Row) Len() int { return len(r.Val) }

// Clone returns an independent copy (Row's slices are otherwise shared on
// plain struct copy).
func (r Row) Clone() Row {
	out := NewRow(r.Len())
	out.Table = append(out.Table, r.Table...)
	out.Name = append(out.Name, r.Name...)
	out.Val = append(out.Val, r.Val...)
	return out
}

// AmbiguousColumnError is returned when a bare column name matches more
// than one source column.
type AmbiguousColumnError struct{ Name string }

func (e *AmbiguousColumnError) Error() string {
	return fmt.Sprintf("ambiguous column reference: %s", e.Name)
}

// UnknownColumnError is returned when a column reference matches nothing.
type UnknownColumnError struct{ Table, Name string }

func (e *UnknownColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("unknown column: %s.%s", e.Table, e.Name)
	}
	return fmt.Sprintf("unknown column: %s", e.Name)
}

// Get resolves a (possibly table-qualified) column reference. An
// unqualified lookup that matches a column added with no table qualifier
// (the merged column USING/NATURAL joins add) takes priority over
// qualified matches of the same bare name, mirroring how those joins
// present a single coalesced column to unqualified references.
func (r Row) Get(table, name string) (value.Value, error) {
	if table != "" {
		for i, t := range r.Table {
			if strings.EqualFold(t, table) && strings.EqualFold(r.Name[i], name) {
				return r.Val[i], nil
			}
		}
		return value.Value{}, &UnknownColumnError{Table: table, Name: name}
	}
	var found = -1
	matches := 0
	for i, n := range r.Name {
		if strings.EqualFold(n, name) {
			if r.Table[i] == "" {
				return r.Val[i], nil
			}
			found = i
			matches++
		}
	}
	if matches == 1 {
		return r.Val[found], nil
	}
	if matches > 1 {
		return value.Value{}, &AmbiguousColumnError{Name: name}
	}
	return value.Value{}, &UnknownColumnError{Name: name}
}

// IndexOf returns the index of a (table, name) column, or -1.
func (r Row) IndexOf(table, name string) int {
	for i := range r.Val {
		if (table == "" || strings.EqualFold(r.Table[i], table)) && strings.EqualFold(r.Name[i], name) {
			return i
		}
	}
	return -1
}

// Merge concatenates left and right's columns into a new row.
func Merge(left, right Row) Row {
	out := NewRow(left.Len() + right.Len())
	out.Table = append(out.Table, left.Table...)
	out.Name = append(out.Name, left.Name...)
	out.Val = append(out.Val, left.Val...)
	out.Table = append(out.Table, right.Table...)
	out.Name = append(out.Name, right.Name...)
	out.Val = append(out.Val, right.Val...)
	return out
}

// WithTable returns a copy of src with every column tagged under table
// (used when reading a bare table/CTE into the FROM clause with an alias).
func WithTable(src Row, table string) Row {
	out := NewRow(src.Len())
	for i := range src.Val {
		out.Append(table, src.Name[i], src.Val[i])
	}
	return out
}

// NullRowLike returns a row with the same (table, name) shape as src but
// every value NULL, used to pad the non-matching side of an outer join.
func NullRowLike(src Row) Row {
	out := NewRow(src.Len())
	for i := range src.Val {
		out.Append(src.Table[i], src.Name[i], value.NewNull())
	}
	return out
}
