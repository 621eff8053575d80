package ops

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vegasq/memsql/engine"
	"github.com/vegasq/memsql/value"
)

func seedOrders(t *testing.T) *engine.Engine {
	t.Helper()
	eng := engine.New()
	_, err := eng.Execute(`CREATE TABLE orders (region VARCHAR, quarter VARCHAR, amount INTEGER)`)
	require.NoError(t, err)
	rows := [][3]string{
		{"east", "Q1", "10"},
		{"east", "Q1", "5"},
		{"east", "Q2", "7"},
		{"west", "Q1", "3"},
	}
	for _, r := range rows {
		_, err := eng.Execute(`INSERT INTO orders (region, quarter, amount) VALUES ('` + r[0] + `', '` + r[1] + `', ` + r[2] + `)`)
		require.NoError(t, err)
	}
	return eng
}

func TestGroupByFirstSeenOrder(t *testing.T) {
	eng := seedOrders(t)
	ds, _, err := eng.Catalog.Resolve("orders")
	require.NoError(t, err)
	require.NotNil(t, ds)

	groups, err := GroupBy(ds, []string{"region"})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	require.Equal(t, "east", groups[0].Key[0].String())
	require.Equal(t, []int{0, 1, 2}, groups[0].RowIndices)
	require.Equal(t, "west", groups[1].Key[0].String())
	require.Equal(t, []int{3}, groups[1].RowIndices)
}

func TestGroupByCompositeKey(t *testing.T) {
	eng := seedOrders(t)
	ds, _, err := eng.Catalog.Resolve("orders")
	require.NoError(t, err)

	groups, err := GroupBy(ds, []string{"region", "quarter"})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Equal(t, []int{0, 1}, groups[0].RowIndices)
}

func TestSumAndAvg(t *testing.T) {
	eng := seedOrders(t)

	sum, err := Sum(eng, "orders", "amount", `"region" = 'east'`)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(22), sum)

	avg, err := Avg(eng, "orders", "amount", "")
	require.NoError(t, err)
	require.False(t, value.IsNull(avg))
}

func TestFilter(t *testing.T) {
	eng := seedOrders(t)
	res, err := Filter(eng, "orders", `"amount" > 5`)
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount())
}

func TestSort(t *testing.T) {
	eng := seedOrders(t)
	res, err := Sort(eng, "orders", `"amount" DESC`)
	require.NoError(t, err)
	require.Equal(t, 4, res.RowCount())
	require.Equal(t, value.NewInt(10), res.Get(0, indexOf(res, "amount")))
}

func TestPivotTable(t *testing.T) {
	eng := seedOrders(t)
	res, err := PivotTable(eng, "orders", "SUM(amount)", "quarter", []string{"Q1", "Q2"})
	require.NoError(t, err)
	require.Greater(t, res.RowCount(), 0)
}

func indexOf(res *engine.QueryResult, name string) int {
	for i, c := range res.Columns() {
		if c == name {
			return i
		}
	}
	return -1
}
