// Package storage implements C3: column/table schema definitions and the
// columnar in-memory row store (DataStore) with constraint enforcement.
//
// Grounded on the reader/schema.go (column/schema shape for
// describing tabular data) and original_source/src/{schema,datastore}.rs
// for the exact constraint-enforcement order the distilled spec left
// implicit (arity before type before constraint).
package storage

import (
	"fmt"

	"github.com/vegasq/memsql/value"
)

// Constraint tags a single-column constraint.
type Constraint int

const (
	ConstraintNotNull Constraint = iota
	ConstraintUnique
	ConstraintPrimaryKey
	ConstraintCheck
)

// ColumnDef describes one column.
//
// DEFAULT and CHECK are represented as closures (rather than AST nodes) so
// the storage package has no dependency on the expression evaluator: the
// DDL executor compiles the parsed DEFAULT/CHECK expression once at
// CREATE/ALTER TABLE time and hands storage the resulting function.
type ColumnDef struct {
	Name        string
	Type        value.DataType
	DecP, DecS  int32 // only meaningful when Type == value.Decimal
	Nullable    bool
	Default     func() (value.Value, error)                  // nil if no DEFAULT
	Constraints []Constraint
	Check       func(row []value.Value, schema *Schema) (bool, error) // nil unless ConstraintCheck is set
}

// HasConstraint reports whether c is declared on the column.
func (c ColumnDef) HasConstraint(want Constraint) bool {
	for _, c2 := range c.Constraints {
		if c2 == want {
			return true
		}
	}
	return false
}

// NewColumnDef builds a plain nullable column with no constraints.
func NewColumnDef(name string, t value.DataType, nullable bool) ColumnDef {
	return ColumnDef{Name: name, Type: t, Nullable: nullable}
}

// Schema is an ordered sequence of column definitions with unique,
// case-sensitive names.
type Schema struct {
	Columns []ColumnDef
}

// NewSchema validates column name uniqueness and applies the PRIMARY KEY
// implies NOT NULL + UNIQUE rule from spec §3.
func NewSchema(cols []ColumnDef) (*Schema, error) {
	seen := make(map[string]bool, len(cols))
	for i, c := range cols {
		if seen[c.Name] {
			return nil, &SchemaError{Msg: fmt.Sprintf("duplicate column name %q", c.Name)}
		}
		seen[c.Name] = true
		if c.HasConstraint(ConstraintPrimaryKey) {
			if !c.HasConstraint(ConstraintNotNull) {
				cols[i].Constraints = append(cols[i].Constraints, ConstraintNotNull)
			}
			if !c.HasConstraint(ConstraintUnique) {
				cols[i].Constraints = append(cols[i].Constraints, ConstraintUnique)
			}
			cols[i].Nullable = false
		}
	}
	return &Schema{Columns: cols}, nil
}

// IndexOf returns the position of name (case-sensitive), or -1.
func (s *Schema) IndexOf(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the ordered column names.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Clone returns a deep-enough copy for safe independent mutation (used by
// ALTER TABLE undo records).
func (s *Schema) Clone() *Schema {
	cols := make([]ColumnDef, len(s.Columns))
	copy(cols, s.Columns)
	return &Schema{Columns: cols}
}
