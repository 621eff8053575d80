package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/memsql/value"
)

// TestEndToEndSelect mirrors the table-driven parse->filter->project shape:
// seed a table via DDL/DML through the public Execute entry point, then
// assert on the projected rows a SELECT returns.
func TestEndToEndSelect(t *testing.T) {
	tests := []struct {
		name    string
		setup   []string
		query   string
		wantCol []string
		wantRow [][]value.Value
		wantErr bool
	}{
		{
			name: "select all columns",
			setup: []string{
				`CREATE TABLE people (name VARCHAR, age INTEGER)`,
				`INSERT INTO people (name, age) VALUES ('alice', 30)`,
				`INSERT INTO people (name, age) VALUES ('bob', 25)`,
			},
			query:   `SELECT * FROM people`,
			wantCol: []string{"name", "age"},
			wantRow: [][]value.Value{
				{value.NewString("alice"), value.NewInt(30)},
				{value.NewString("bob"), value.NewInt(25)},
			},
		},
		{
			name: "select with where clause",
			setup: []string{
				`CREATE TABLE people (name VARCHAR, age INTEGER)`,
				`INSERT INTO people (name, age) VALUES ('alice', 30)`,
				`INSERT INTO people (name, age) VALUES ('bob', 25)`,
				`INSERT INTO people (name, age) VALUES ('charlie', 35)`,
			},
			query:   `SELECT name FROM people WHERE age > 25 ORDER BY name`,
			wantCol: []string{"name"},
			wantRow: [][]value.Value{
				{value.NewString("alice")},
				{value.NewString("charlie")},
			},
		},
		{
			name: "select with alias",
			setup: []string{
				`CREATE TABLE people (name VARCHAR, age INTEGER)`,
				`INSERT INTO people (name, age) VALUES ('alice', 30)`,
			},
			query:   `SELECT name AS user_name, age AS years FROM people`,
			wantCol: []string{"user_name", "years"},
			wantRow: [][]value.Value{
				{value.NewString("alice"), value.NewInt(30)},
			},
		},
		{
			name: "aggregate with group by",
			setup: []string{
				`CREATE TABLE orders (region VARCHAR, amount INTEGER)`,
				`INSERT INTO orders (region, amount) VALUES ('east', 10)`,
				`INSERT INTO orders (region, amount) VALUES ('east', 5)`,
				`INSERT INTO orders (region, amount) VALUES ('west', 3)`,
			},
			query:   `SELECT region, SUM(amount) AS total FROM orders GROUP BY region ORDER BY region`,
			wantCol: []string{"region", "total"},
			wantRow: [][]value.Value{
				{value.NewString("east"), value.NewInt(15)},
				{value.NewString("west"), value.NewInt(3)},
			},
		},
		{
			name:    "unknown table errors",
			setup:   nil,
			query:   `SELECT * FROM missing`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := New()
			for _, stmt := range tt.setup {
				_, err := eng.Execute(stmt)
				require.NoError(t, err)
			}
			res, err := eng.Execute(tt.query)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCol, res.Columns())
			require.Equal(t, len(tt.wantRow), res.RowCount())
			for i, row := range tt.wantRow {
				for c := range row {
					require.Equal(t, row[c], res.Get(i, c))
				}
			}
		})
	}
}

func TestDMLAndRollback(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (id INTEGER, label VARCHAR)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (id, label) VALUES (1, 'a')`)
	require.NoError(t, err)

	res, err := eng.Execute(`UPDATE t SET label = 'b' WHERE id = 1`)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Get(0, 0).I64)

	sel, err := eng.Execute(`SELECT label FROM t WHERE id = 1`)
	require.NoError(t, err)
	require.Equal(t, value.NewString("b"), sel.Get(0, 0))

	// A failing statement inside an explicit transaction rolls back.
	_, err = eng.Execute(`BEGIN`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (id, label) VALUES (2, 'c')`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO missing (id) VALUES (1)`)
	require.Error(t, err)
	_, err = eng.Execute(`ROLLBACK`)
	require.NoError(t, err)

	count, err := eng.Execute(`SELECT COUNT(*) FROM t`)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(1), count.Get(0, 0))
}

func TestDDLCreateDropTable(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)

	names := eng.Catalog.TableNames()
	require.Contains(t, names, "t")

	_, err = eng.Execute(`DROP TABLE t`)
	require.NoError(t, err)
	require.NotContains(t, eng.Catalog.TableNames(), "t")

	_, err = eng.Execute(`DROP TABLE t`)
	require.Error(t, err)

	_, err = eng.Execute(`DROP TABLE IF EXISTS t`)
	require.NoError(t, err)
}

func TestShowTablesAndDescribe(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE widgets (id INTEGER, name VARCHAR)`)
	require.NoError(t, err)

	show, err := eng.Execute(`SHOW TABLES`)
	require.NoError(t, err)
	require.Equal(t, 1, show.RowCount())
	require.Equal(t, value.NewString("widgets"), show.Get(0, 0))

	desc, err := eng.Execute(`DESCRIBE widgets`)
	require.NoError(t, err)
	require.Equal(t, 2, desc.RowCount())
}

func TestExplainDoesNotExecute(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (id INTEGER)`)
	require.NoError(t, err)

	res, err := eng.Execute(`EXPLAIN DELETE FROM t`)
	require.NoError(t, err)
	require.Greater(t, res.RowCount(), 0)

	count, err := eng.Execute(`SELECT COUNT(*) FROM t`)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(0), count.Get(0, 0))
}

func TestErrorKindClassification(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`SELEKT * FROM t`)
	require.Error(t, err)
	engErr, ok := err.(Error)
	require.True(t, ok)
	require.Equal(t, KindParse, engErr.Kind())

	_, err = eng.Execute(`SELECT * FROM missing`)
	require.Error(t, err)
	engErr, ok = err.(Error)
	require.True(t, ok)
	require.Equal(t, KindCatalog, engErr.Kind())
}
