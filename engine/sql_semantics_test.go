package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/memsql/value"
)

func TestNullThreeValuedLogic(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (a INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (a) VALUES (NULL)`)
	require.NoError(t, err)

	res, err := eng.Execute(`SELECT a = a AS eq, a IS NULL AS is_null FROM t`)
	require.NoError(t, err)
	require.True(t, value.IsNull(res.Get(0, 0)))
	require.Equal(t, value.NewBool(true), res.Get(0, 1))

	filtered, err := eng.Execute(`SELECT a FROM t WHERE a = a`)
	require.NoError(t, err)
	require.Equal(t, 0, filtered.RowCount())
}

func TestCaseAndCoalesce(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (a INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (a) VALUES (1), (NULL), (5)`)
	require.NoError(t, err)

	res, err := eng.Execute(`
		SELECT a,
		       CASE WHEN a > 3 THEN 'big' WHEN a IS NULL THEN 'none' ELSE 'small' END AS bucket,
		       COALESCE(a, -1) AS filled
		FROM t ORDER BY a`)
	require.NoError(t, err)
	require.Equal(t, 3, res.RowCount())
	require.Equal(t, value.NewString("none"), res.Get(2, 1))
	require.Equal(t, value.NewInt(-1), res.Get(2, 2))
}

func TestLikePredicate(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (name VARCHAR)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (name) VALUES ('alice'), ('bob'), ('alicia')`)
	require.NoError(t, err)

	res, err := eng.Execute(`SELECT name FROM t WHERE name LIKE 'ali%' ORDER BY name`)
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount())
	require.Equal(t, value.NewString("alice"), res.Get(0, 0))
	require.Equal(t, value.NewString("alicia"), res.Get(1, 0))
}

func TestWindowRowNumber(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE t (region VARCHAR, amount INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO t (region, amount) VALUES
		('east', 10), ('east', 30), ('west', 5)`)
	require.NoError(t, err)

	res, err := eng.Execute(`
		SELECT region, amount,
		       ROW_NUMBER() OVER (PARTITION BY region ORDER BY amount DESC) AS rn
		FROM t ORDER BY region, rn`)
	require.NoError(t, err)
	require.Equal(t, 3, res.RowCount())
	require.Equal(t, value.NewInt(1), res.Get(0, 2))
	require.Equal(t, value.NewInt(2), res.Get(1, 2))
	require.Equal(t, value.NewInt(1), res.Get(2, 2))
}

func TestUnionSetOp(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE a (id INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`CREATE TABLE b (id INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO a (id) VALUES (1), (2)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO b (id) VALUES (2), (3)`)
	require.NoError(t, err)

	res, err := eng.Execute(`SELECT id FROM a UNION SELECT id FROM b ORDER BY id`)
	require.NoError(t, err)
	require.Equal(t, 3, res.RowCount())
}

func TestPivotTableOperator(t *testing.T) {
	eng := New()
	_, err := eng.Execute(`CREATE TABLE sales (region VARCHAR, quarter VARCHAR, amount INTEGER)`)
	require.NoError(t, err)
	_, err = eng.Execute(`INSERT INTO sales (region, quarter, amount) VALUES
		('east', 'Q1', 10), ('east', 'Q2', 20), ('west', 'Q1', 5)`)
	require.NoError(t, err)

	res, err := eng.Execute(`
		SELECT * FROM sales PIVOT (SUM(amount) FOR quarter IN ('Q1', 'Q2'))`)
	require.NoError(t, err)
	require.Greater(t, res.RowCount(), 0)
	require.Contains(t, res.Columns(), "Q1")
	require.Contains(t, res.Columns(), "Q2")
}
