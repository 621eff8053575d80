package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vegasq/memsql/value"
)

func mustSchema(t *testing.T, cols ...ColumnDef) *Schema {
	t.Helper()
	s, err := NewSchema(cols)
	require.NoError(t, err)
	return s
}

func TestAppendRowArityAndType(t *testing.T) {
	s := mustSchema(t, NewColumnDef("id", value.Int64, false), NewColumnDef("name", value.Utf8, true))
	ds := NewDataStore(s)
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(1), value.NewString("a")}))
	err := ds.AppendRow([]value.Value{value.NewInt(1)})
	require.Error(t, err)
	_, ok := err.(*SchemaError)
	assert.True(t, ok)
}

func TestAppendRowNotNull(t *testing.T) {
	id := NewColumnDef("id", value.Int64, false)
	id.Constraints = append(id.Constraints, ConstraintNotNull)
	s := mustSchema(t, id)
	ds := NewDataStore(s)
	err := ds.AppendRow([]value.Value{value.NewNull()})
	require.Error(t, err)
	_, ok := err.(*ConstraintViolation)
	assert.True(t, ok)
}

func TestUniqueAllowsMultipleNulls(t *testing.T) {
	id := NewColumnDef("id", value.Int64, true)
	id.Constraints = append(id.Constraints, ConstraintUnique)
	s := mustSchema(t, id)
	ds := NewDataStore(s)
	require.NoError(t, ds.AppendRow([]value.Value{value.NewNull()}))
	require.NoError(t, ds.AppendRow([]value.Value{value.NewNull()}))
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(1)}))
	err := ds.AppendRow([]value.Value{value.NewInt(1)})
	require.Error(t, err)
}

func TestDeleteRowShiftsRows(t *testing.T) {
	s := mustSchema(t, NewColumnDef("id", value.Int64, false))
	ds := NewDataStore(s)
	for i := int64(0); i < 3; i++ {
		require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(i)}))
	}
	removed, err := ds.DeleteRow(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed[0].I64)
	assert.Equal(t, 2, ds.RowCount())
	assert.Equal(t, int64(0), ds.GetValueByIndex(0, 0).I64)
	assert.Equal(t, int64(2), ds.GetValueByIndex(1, 0).I64)
}

func TestAddColumnFillsNull(t *testing.T) {
	s := mustSchema(t, NewColumnDef("id", value.Int64, false))
	ds := NewDataStore(s)
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(1)}))
	require.NoError(t, ds.AddColumn(NewColumnDef("name", value.Utf8, true)))
	v := ds.GetValueByIndex(0, 1)
	assert.True(t, value.IsNull(v))
}

func TestAddColumnNotNullWithoutDefaultRejected(t *testing.T) {
	s := mustSchema(t, NewColumnDef("id", value.Int64, false))
	ds := NewDataStore(s)
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(1)}))
	nn := NewColumnDef("name", value.Utf8, false)
	err := ds.AddColumn(nn)
	require.Error(t, err)
}

func TestEveryColumnHasRowCountLength(t *testing.T) {
	s := mustSchema(t, NewColumnDef("a", value.Int64, true), NewColumnDef("b", value.Utf8, true))
	ds := NewDataStore(s)
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(1), value.NewString("x")}))
	require.NoError(t, ds.AppendRow([]value.Value{value.NewInt(2), value.NewNull()}))
	for i := range ds.cols {
		assert.Equal(t, ds.RowCount(), ds.cols[i].valid.Len())
		assert.Equal(t, ds.RowCount(), len(ds.cols[i].data))
	}
}
