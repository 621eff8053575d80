package storage

import (
	"fmt"

	"github.com/vegasq/memsql/value"
)

// column is one dense column vector plus its validity bitmap.
type column struct {
	data  []value.Value
	valid *value.NullMask
}

// DataStore is the columnar row store (C3): one column vector per schema
// column, a shared row_count, and per-column NOT NULL/UNIQUE enforcement at
// write time. Grounded on original_source/src/datastore.rs.
type DataStore struct {
	schema *Schema
	cols   []column
	rows   int
	unique []map[string]bool // parallel to schema.Columns; nil entry when column isn't UNIQUE/PK
}

// NewDataStore creates an empty store for schema.
func NewDataStore(schema *Schema) *DataStore {
	ds := &DataStore{schema: schema}
	ds.cols = make([]column, len(schema.Columns))
	ds.unique = make([]map[string]bool, len(schema.Columns))
	for i, c := range schema.Columns {
		ds.cols[i] = column{valid: value.NewNullMask()}
		if c.HasConstraint(ConstraintUnique) || c.HasConstraint(ConstraintPrimaryKey) {
			ds.unique[i] = make(map[string]bool)
		}
	}
	return ds
}

// Schema returns the store's schema.
func (ds *DataStore) Schema() *Schema { return ds.schema }

// RowCount returns the number of rows (spec invariant: every column has
// length RowCount()).
func (ds *DataStore) RowCount() int { return ds.rows }

// AppendRow validates arity, coerces each value to its column's declared
// type, enforces NOT NULL/UNIQUE/CHECK, and appends to every column.
// On any failure no column is mutated (append is all-or-nothing).
func (ds *DataStore) AppendRow(values []value.Value) error {
	if len(values) != len(ds.schema.Columns) {
		return errArity(len(ds.schema.Columns), len(values))
	}
	coerced := make([]value.Value, len(values))
	for i, c := range ds.schema.Columns {
		v := values[i]
		if value.IsNull(v) {
			if !c.Nullable {
				return &ConstraintViolation{Msg: fmt.Sprintf("column %q is NOT NULL", c.Name)}
			}
			coerced[i] = v
			continue
		}
		cv, err := value.Coerce(v, c.Type)
		if err != nil {
			return &TypeError{Msg: fmt.Sprintf("column %q: %v", c.Name, err)}
		}
		coerced[i] = cv
	}
	// UNIQUE/PK: NULL is never considered a duplicate of NULL.
	for i, c := range ds.schema.Columns {
		if ds.unique[i] == nil {
			continue
		}
		if value.IsNull(coerced[i]) {
			continue
		}
		key := coerced[i].String() + "\x00" + fmt.Sprint(coerced[i].Type)
		if ds.unique[i][key] {
			return &ConstraintViolation{Msg: fmt.Sprintf("duplicate value for unique column %q", c.Name)}
		}
	}
	for _, c := range ds.schema.Columns {
		if c.Check == nil {
			continue
		}
		ok, err := c.Check(coerced, ds.schema)
		if err != nil {
			return err
		}
		if !ok {
			return &ConstraintViolation{Msg: fmt.Sprintf("CHECK constraint failed for column %q", c.Name)}
		}
	}
	for i, v := range coerced {
		ds.cols[i].data = append(ds.cols[i].data, v)
		ds.cols[i].valid.Push(!value.IsNull(v))
		if ds.unique[i] != nil && !value.IsNull(v) {
			key := v.String() + "\x00" + fmt.Sprint(v.Type)
			ds.unique[i][key] = true
		}
	}
	ds.rows++
	return nil
}

// DeleteRow physically removes row i, shifting later rows down by one.
// Returns the removed row's full value slice (used to build an undo entry).
func (ds *DataStore) DeleteRow(i int) ([]value.Value, error) {
	if i < 0 || i >= ds.rows {
		return nil, &SchemaError{Msg: "row index out of range"}
	}
	removed := ds.GetRow(i)
	for ci, c := range ds.schema.Columns {
		old := ds.cols[ci].data[i]
		if ds.unique[ci] != nil && !value.IsNull(old) {
			delete(ds.unique[ci], old.String()+"\x00"+fmt.Sprint(old.Type))
		}
		ds.cols[ci].data = append(ds.cols[ci].data[:i], ds.cols[ci].data[i+1:]...)
		_ = c
	}
	newMask := value.NewNullMask()
	for ci := range ds.schema.Columns {
		old := ds.cols[ci].valid
		for j := 0; j < ds.rows; j++ {
			if j == i {
				continue
			}
			newMask.Push(old.Get(j))
		}
		ds.cols[ci].valid = newMask
		newMask = value.NewNullMask()
	}
	ds.rows--
	return removed, nil
}

// SetValue overwrites column col's value at row i, enforcing NOT NULL and
// re-checking UNIQUE for that column. Returns the prior value (for undo).
func (ds *DataStore) SetValue(i, col int, v value.Value) (value.Value, error) {
	if i < 0 || i >= ds.rows {
		return value.NewNull(), &SchemaError{Msg: "row index out of range"}
	}
	if col < 0 || col >= len(ds.schema.Columns) {
		return value.NewNull(), &SchemaError{Msg: "column index out of range"}
	}
	c := ds.schema.Columns[col]
	var cv value.Value
	if value.IsNull(v) {
		if !c.Nullable {
			return value.NewNull(), &ConstraintViolation{Msg: fmt.Sprintf("column %q is NOT NULL", c.Name)}
		}
		cv = v
	} else {
		var err error
		cv, err = value.Coerce(v, c.Type)
		if err != nil {
			return value.NewNull(), &TypeError{Msg: err.Error()}
		}
	}
	if ds.unique[col] != nil && !value.IsNull(cv) {
		key := cv.String() + "\x00" + fmt.Sprint(cv.Type)
		if ds.unique[col][key] {
			old := ds.cols[col].data[i]
			if !(old.String() == cv.String() && old.Type == cv.Type) {
				return value.NewNull(), &ConstraintViolation{Msg: fmt.Sprintf("duplicate value for unique column %q", c.Name)}
			}
		}
	}
	prior := ds.cols[col].data[i]
	if ds.unique[col] != nil && !value.IsNull(prior) {
		delete(ds.unique[col], prior.String()+"\x00"+fmt.Sprint(prior.Type))
	}
	ds.cols[col].data[i] = cv
	ds.cols[col].valid.Set(i, !value.IsNull(cv))
	if ds.unique[col] != nil && !value.IsNull(cv) {
		ds.unique[col][cv.String()+"\x00"+fmt.Sprint(cv.Type)] = true
	}
	return prior, nil
}

// GetValue returns the value at (row, colName).
func (ds *DataStore) GetValue(row int, colName string) (value.Value, error) {
	idx := ds.schema.IndexOf(colName)
	if idx < 0 {
		return value.NewNull(), errUnknownColumn(colName)
	}
	return ds.GetValueByIndex(row, idx), nil
}

// GetValueByIndex returns the value at (row, col).
func (ds *DataStore) GetValueByIndex(row, col int) value.Value {
	if row < 0 || row >= ds.rows || col < 0 || col >= len(ds.cols) {
		return value.NewNull()
	}
	return ds.cols[col].data[row]
}

// GetRow returns a full copy of row i's values in schema-column order.
func (ds *DataStore) GetRow(i int) []value.Value {
	out := make([]value.Value, len(ds.cols))
	for c := range ds.cols {
		out[c] = ds.GetValueByIndex(i, c)
	}
	return out
}

// AddColumn appends a new column, filling existing rows with NULL (or the
// column's DEFAULT, if present). Rejects NOT NULL without a usable DEFAULT.
func (ds *DataStore) AddColumn(def ColumnDef) error {
	if ds.schema.IndexOf(def.Name) >= 0 {
		return &SchemaError{Msg: fmt.Sprintf("column %q already exists", def.Name)}
	}
	if !def.Nullable && def.Default == nil && ds.rows > 0 {
		return &ConstraintViolation{Msg: fmt.Sprintf("cannot add NOT NULL column %q without DEFAULT", def.Name)}
	}
	col := column{valid: value.NewNullMask()}
	for i := 0; i < ds.rows; i++ {
		var v value.Value
		if def.Default != nil {
			dv, err := def.Default()
			if err != nil {
				return err
			}
			v = dv
		} else {
			v = value.NewNull()
		}
		col.data = append(col.data, v)
		col.valid.Push(!value.IsNull(v))
	}
	ds.cols = append(ds.cols, col)
	ds.schema.Columns = append(ds.schema.Columns, def)
	ds.unique = append(ds.unique, nil)
	if def.HasConstraint(ConstraintUnique) || def.HasConstraint(ConstraintPrimaryKey) {
		ds.unique[len(ds.unique)-1] = make(map[string]bool)
	}
	return nil
}

// DropColumn removes column name, returning its full data+definition for
// an undo record.
func (ds *DataStore) DropColumn(name string) (ColumnDef, []value.Value, error) {
	idx := ds.schema.IndexOf(name)
	if idx < 0 {
		return ColumnDef{}, nil, errUnknownColumn(name)
	}
	def := ds.schema.Columns[idx]
	data := ds.cols[idx].data
	ds.schema.Columns = append(ds.schema.Columns[:idx], ds.schema.Columns[idx+1:]...)
	ds.cols = append(ds.cols[:idx], ds.cols[idx+1:]...)
	ds.unique = append(ds.unique[:idx], ds.unique[idx+1:]...)
	return def, data, nil
}

// RestoreColumn re-inserts a dropped column at position idx with its full
// data, used by ROLLBACK.
func (ds *DataStore) RestoreColumn(idx int, def ColumnDef, data []value.Value) {
	col := column{valid: value.NewNullMask(), data: append([]value.Value{}, data...)}
	for _, v := range data {
		col.valid.Push(!value.IsNull(v))
	}
	ds.schema.Columns = append(ds.schema.Columns, ColumnDef{})
	copy(ds.schema.Columns[idx+1:], ds.schema.Columns[idx:])
	ds.schema.Columns[idx] = def
	ds.cols = append(ds.cols, column{})
	copy(ds.cols[idx+1:], ds.cols[idx:])
	ds.cols[idx] = col
	ds.unique = append(ds.unique, nil)
	copy(ds.unique[idx+1:], ds.unique[idx:])
	ds.unique[idx] = nil
	if def.HasConstraint(ConstraintUnique) || def.HasConstraint(ConstraintPrimaryKey) {
		m := make(map[string]bool)
		for _, v := range data {
			if !value.IsNull(v) {
				m[v.String()+"\x00"+fmt.Sprint(v.Type)] = true
			}
		}
		ds.unique[idx] = m
	}
}

// RenameColumn renames a column in place.
func (ds *DataStore) RenameColumn(oldName, newName string) error {
	idx := ds.schema.IndexOf(oldName)
	if idx < 0 {
		return errUnknownColumn(oldName)
	}
	if ds.schema.IndexOf(newName) >= 0 {
		return &SchemaError{Msg: fmt.Sprintf("column %q already exists", newName)}
	}
	ds.schema.Columns[idx].Name = newName
	return nil
}

// Clone returns a deep copy of the store (used when CREATE TABLE AS SELECT
// or undo requires an independent snapshot).
func (ds *DataStore) Clone() *DataStore {
	out := NewDataStore(ds.schema.Clone())
	for i := 0; i < ds.rows; i++ {
		_ = out.AppendRow(ds.GetRow(i))
	}
	return out
}
