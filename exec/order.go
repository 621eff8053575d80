package exec

import (
	"sort"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// sortRowIndices stably sorts idxs (indices into rows) by items, resolving
// each item's key either from its own Expr or, for a positional ORDER BY
// reference, from selectList[Ordinal-1] (selectList is nil for a window
// spec's ORDER BY, which has no ordinal form). Grounded on spec §4.9's
// NULLS FIRST/LAST default rule (NULLS LAST for ASC, NULLS FIRST for DESC).
func sortRowIndices(ev *Evaluator, rows []Row, idxs []int, items []sql.OrderByItem, selectList []sql.SelectItem) ([]int, error) {
	out := append([]int{}, idxs...)
	keyCache := make([]map[int]value.Value, len(items))
	for i := range items {
		keyCache[i] = make(map[int]value.Value)
	}
	var sortErr error
	getKey := func(itemIdx, rowIdx int) value.Value {
		if v, ok := keyCache[itemIdx][rowIdx]; ok {
			return v
		}
		item := items[itemIdx]
		var expr sql.Expr
		switch {
		case item.Expr != nil:
			expr = item.Expr
		case item.Ordinal > 0 && selectList != nil && item.Ordinal <= len(selectList):
			expr = selectList[item.Ordinal-1].Expr
		}
		if expr == nil {
			return value.NewNull()
		}
		v, err := ev.Eval(expr, rows[rowIdx])
		if err != nil {
			sortErr = err
			return value.NewNull()
		}
		keyCache[itemIdx][rowIdx] = v
		return v
	}
	sort.SliceStable(out, func(a, b int) bool {
		ra, rb := out[a], out[b]
		for itemIdx, item := range items {
			va := getKey(itemIdx, ra)
			vb := getKey(itemIdx, rb)
			if c := compareForOrder(va, vb, item); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out, sortErr
}

func compareForOrder(va, vb value.Value, item sql.OrderByItem) int {
	nullsFirst := item.Desc
	if item.NullsFirst != nil {
		nullsFirst = *item.NullsFirst
	}
	aNull, bNull := value.IsNull(va), value.IsNull(vb)
	switch {
	case aNull && bNull:
		return 0
	case aNull:
		if nullsFirst {
			return -1
		}
		return 1
	case bNull:
		if nullsFirst {
			return 1
		}
		return -1
	}
	res := 0
	switch value.Cmp(va, vb) {
	case value.Less:
		res = -1
	case value.Greater:
		res = 1
	}
	if item.Desc {
		res = -res
	}
	return res
}
