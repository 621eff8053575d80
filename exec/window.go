package exec

import (
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// collectWindowCalls walks roots and returns every FuncCallExpr with a
// non-nil Window, deduplicated by pointer identity (the same node is
// visited once per SelectItem/QUALIFY root). Subquery bodies (EXISTS/IN/
// scalar) are not descended into: each is its own independent statement,
// resolved by its own execSelectStmt call.
func collectWindowCalls(roots ...sql.Expr) []*sql.FuncCallExpr {
	var out []*sql.FuncCallExpr
	seen := make(map[*sql.FuncCallExpr]bool)
	var walk func(e sql.Expr)
	walk = func(e sql.Expr) {
		if e == nil {
			return
		}
		switch x := e.(type) {
		case *sql.FuncCallExpr:
			if x.Window != nil && !seen[x] {
				seen[x] = true
				out = append(out, x)
			}
			for _, a := range x.Args {
				walk(a)
			}
		case *sql.UnaryExpr:
			walk(x.X)
		case *sql.BinaryExpr:
			walk(x.Left)
			walk(x.Right)
		case *sql.BetweenExpr:
			walk(x.X)
			walk(x.Lower)
			walk(x.Upper)
		case *sql.InListExpr:
			walk(x.X)
			for _, i := range x.List {
				walk(i)
			}
		case *sql.LikeExpr:
			walk(x.X)
			walk(x.Pattern)
		case *sql.IsNullExpr:
			walk(x.X)
		case *sql.IsDistinctExpr:
			walk(x.Left)
			walk(x.Right)
		case *sql.CaseExpr:
			walk(x.Operand)
			for _, w := range x.Whens {
				walk(w.Cond)
				walk(w.Result)
			}
			walk(x.Else)
		case *sql.CastExpr:
			walk(x.X)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// computeWindowValues evaluates every window call in calls over rows and
// returns one *WindowContext per row, each holding that row's value for
// every call. Grounded on spec §4.8's window-function rule: partition,
// order within partition, then frame-based value per row; any C10
// aggregate is usable as a window function by reusing evalAggregate over
// the row's frame.
func computeWindowValues(ev *Evaluator, rows []Row, calls []*sql.FuncCallExpr) ([]*WindowContext, error) {
	wcs := make([]*WindowContext, len(rows))
	for i := range wcs {
		wcs[i] = &WindowContext{Values: make(map[*sql.FuncCallExpr]value.Value)}
	}
	for _, call := range calls {
		spec := call.Window
		partitions := partitionRows(ev, rows, spec.PartitionBy)
		for _, idxs := range partitions {
			ordered := idxs
			if len(spec.OrderBy) > 0 {
				var err error
				ordered, err = sortRowIndices(ev, rows, idxs, spec.OrderBy, nil)
				if err != nil {
					return nil, err
				}
			}
			for pos, rowIdx := range ordered {
				v, err := computeWindowValue(ev, call, rows, ordered, pos)
				if err != nil {
					return nil, err
				}
				wcs[rowIdx].Values[call] = v
			}
		}
	}
	return wcs, nil
}

// partitionRows groups row indices by PARTITION BY key, in first-seen
// order (no PARTITION BY means one partition holding every row).
func partitionRows(ev *Evaluator, rows []Row, exprs []sql.Expr) [][]int {
	if len(exprs) == 0 {
		idxs := make([]int, len(rows))
		for i := range rows {
			idxs[i] = i
		}
		return [][]int{idxs}
	}
	var order []string
	groups := make(map[string][]int)
	for i, row := range rows {
		parts := make([]string, len(exprs))
		for j, e := range exprs {
			v, err := ev.Eval(e, row)
			if err != nil {
				v = value.NewNull()
			}
			parts[j] = groupKeyPart(v)
		}
		k := strings.Join(parts, "\x1f")
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], i)
	}
	out := make([][]int, len(order))
	for i, k := range order {
		out[i] = groups[k]
	}
	return out
}

func computeWindowValue(ev *Evaluator, call *sql.FuncCallExpr, rows []Row, ordered []int, pos int) (value.Value, error) {
	spec := call.Window
	name := strings.ToUpper(call.Name)
	n := len(ordered)

	switch name {
	case "ROW_NUMBER":
		return value.NewInt(int64(pos + 1)), nil

	case "RANK", "DENSE_RANK":
		rank, dense := 1, 1
		for i := 1; i <= pos; i++ {
			eq, err := orderKeysEqual(ev, rows[ordered[i]], rows[ordered[i-1]], spec.OrderBy)
			if err != nil {
				return value.NewNull(), err
			}
			if !eq {
				rank = i + 1
				dense++
			}
		}
		if name == "RANK" {
			return value.NewInt(int64(rank)), nil
		}
		return value.NewInt(int64(dense)), nil

	case "NTILE":
		if len(call.Args) != 1 {
			return value.NewNull(), argErr("NTILE")
		}
		kv, err := ev.Eval(call.Args[0], rows[ordered[pos]])
		if err != nil {
			return value.NewNull(), err
		}
		k, ok := asInt(kv)
		if !ok || k <= 0 {
			return value.NewNull(), argErr("NTILE")
		}
		base, rem := n/int(k), n%int(k)
		idx, bucket := pos, 0
		for b := 0; b < int(k); b++ {
			size := base
			if b < rem {
				size++
			}
			if idx < size {
				bucket = b
				break
			}
			idx -= size
		}
		return value.NewInt(int64(bucket + 1)), nil

	case "LAG", "LEAD":
		if len(call.Args) < 1 {
			return value.NewNull(), argErr(name)
		}
		offset := int64(1)
		if len(call.Args) >= 2 {
			ov, err := ev.Eval(call.Args[1], rows[ordered[pos]])
			if err != nil {
				return value.NewNull(), err
			}
			if o, ok := asInt(ov); ok {
				offset = o
			}
		}
		target := pos - int(offset)
		if name == "LEAD" {
			target = pos + int(offset)
		}
		if target < 0 || target >= n {
			if len(call.Args) >= 3 {
				return ev.Eval(call.Args[2], rows[ordered[pos]])
			}
			return value.NewNull(), nil
		}
		return ev.Eval(call.Args[0], rows[ordered[target]])

	case "FIRST_VALUE", "LAST_VALUE":
		if len(call.Args) != 1 {
			return value.NewNull(), argErr(name)
		}
		start, end := frameBounds(spec, n, pos)
		if start > end {
			return value.NewNull(), nil
		}
		if name == "FIRST_VALUE" {
			return ev.Eval(call.Args[0], rows[ordered[start]])
		}
		return ev.Eval(call.Args[0], rows[ordered[end]])

	default:
		if !isAggregateName(name) {
			return value.NewNull(), &PlanError{Msg: "unsupported window function: " + call.Name}
		}
		start, end := frameBounds(spec, n, pos)
		var frameRows []Row
		for i := start; i <= end; i++ {
			frameRows = append(frameRows, rows[ordered[i]])
		}
		return evalAggregate(ev, call, frameRows)
	}
}

func orderKeysEqual(ev *Evaluator, a, b Row, items []sql.OrderByItem) (bool, error) {
	for _, it := range items {
		if it.Expr == nil {
			continue
		}
		av, err := ev.Eval(it.Expr, a)
		if err != nil {
			return false, err
		}
		bv, err := ev.Eval(it.Expr, b)
		if err != nil {
			return false, err
		}
		if !value.EqualForGrouping(av, bv) {
			return false, nil
		}
	}
	return true, nil
}

// frameBounds resolves spec's frame to [start,end] row positions within
// the ordered partition, clamped to range. A nil Frame defaults to ROWS
// UNBOUNDED PRECEDING TO CURRENT ROW when there's an ORDER BY (the running
// aggregate every SQL dialect gives by default), or the entire partition
// otherwise — the Open Question on LAST_VALUE (DESIGN.md) resolves it to
// use this same per-row frame rather than the whole partition.
func frameBounds(spec *sql.WindowSpec, n, pos int) (start, end int) {
	if spec.Frame == nil {
		if len(spec.OrderBy) > 0 {
			return 0, pos
		}
		return 0, n - 1
	}
	return resolveBound(spec.Frame.Start, pos, n), resolveBound(spec.Frame.End, pos, n)
}

func resolveBound(b sql.FrameBound, pos, n int) int {
	var v int
	switch b.Type {
	case sql.BoundUnboundedPreceding:
		v = 0
	case sql.BoundPreceding:
		v = pos - int(b.N)
	case sql.BoundCurrentRow:
		v = pos
	case sql.BoundFollowing:
		v = pos + int(b.N)
	case sql.BoundUnboundedFollowing:
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	if v > n-1 {
		v = n - 1
	}
	return v
}
