package parquetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

type fixtureRow struct {
	ID     int64   `parquet:"id"`
	Name   string  `parquet:"name"`
	Active bool    `parquet:"active"`
	Score  float64 `parquet:"score"`
}

func writeFixture(t *testing.T, path string, rows []fixtureRow) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	writer := parquet.NewGenericWriter[fixtureRow](f)
	_, err = writer.Write(rows)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())
}

func TestLoadStoreInfersSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.parquet")
	writeFixture(t, path, []fixtureRow{
		{ID: 1, Name: "Alice", Active: true, Score: 95.5},
		{ID: 2, Name: "Bob", Active: false, Score: 80},
	})

	schema, rows, err := LoadStore(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	idx := map[string]int{}
	for i, c := range schema.Columns {
		idx[c.Name] = i
	}
	require.Equal(t, value.Int64, schema.Columns[idx["id"]].Type)
	require.Equal(t, value.Utf8, schema.Columns[idx["name"]].Type)
	require.Equal(t, value.Boolean, schema.Columns[idx["active"]].Type)
	require.Equal(t, value.Float64, schema.Columns[idx["score"]].Type)

	require.Equal(t, value.NewString("Alice"), rows[0][idx["name"]])
	require.Equal(t, value.NewBool(true), rows[0][idx["active"]])
}

func TestWriteStoreRoundTrip(t *testing.T) {
	cols := []storage.ColumnDef{
		storage.NewColumnDef("id", value.Int64, false),
		storage.NewColumnDef("label", value.Utf8, true),
	}
	schema, err := storage.NewSchema(cols)
	require.NoError(t, err)

	rows := [][]value.Value{
		{value.NewInt(1), value.NewString("first")},
		{value.NewInt(2), value.NewNull()},
	}

	path := filepath.Join(t.TempDir(), "roundtrip.parquet")
	require.NoError(t, WriteStore(path, schema, rows))

	gotSchema, gotRows, err := LoadStore(path)
	require.NoError(t, err)
	require.Len(t, gotRows, 2)
	require.ElementsMatch(t, []string{"id", "label"}, gotSchema.Names())
}
