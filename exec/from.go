package exec

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

// cartesianLimit bounds the row product a FROM clause may build before
// RuntimeError, per spec §5's "implementation-defined row-cap on Cartesian
// expansion."
const cartesianLimit = 5_000_000

// resolveFrom materializes one FROM-clause item into its row set, grounded
// on the executeJoin family in query/executor.go (one function
// per join type), generalized to also resolve bare tables/views/CTEs and
// PIVOT/UNPIVOT table operators not present in that reference grammar.
func resolveFrom(ev *Evaluator, item sql.FromItem) ([]Row, error) {
	switch f := item.(type) {
	case *sql.TableRef:
		return resolveTableRef(ev, f)
	case *sql.SubqueryRef:
		rows, cols, err := execSelectStmt(ev, f.Query)
		if err != nil {
			return nil, err
		}
		return tagRows(rows, cols, f.Alias), nil
	case *sql.JoinClause:
		return resolveJoin(ev, f)
	case *sql.PivotItem:
		return resolvePivot(ev, f)
	case *sql.UnpivotItem:
		return resolveUnpivot(ev, f)
	default:
		return nil, fmt.Errorf("unsupported FROM item %T", item)
	}
}

func tagRows(rows []Row, cols []string, alias string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		nr := NewRow(r.Len())
		for c := 0; c < r.Len(); c++ {
			name := r.Name[c]
			if c < len(cols) && cols[c] != "" {
				name = cols[c]
			}
			nr.Append(alias, name, r.Val[c])
		}
		out[i] = nr
	}
	return out
}

func resolveTableRef(ev *Evaluator, ref *sql.TableRef) ([]Row, error) {
	alias := ref.Alias
	if alias == "" {
		alias = ref.Name
	}
	if cte, ok := ev.CTEs[strings.ToUpper(ref.Name)]; ok {
		return tagRows(cte.rows, cte.cols, alias), nil
	}
	table, view, err := ev.Catalog.Resolve(ref.Name)
	if err != nil {
		return nil, err
	}
	if view != nil {
		rows, cols, err := execSelectStmt(ev, view.Query)
		if err != nil {
			return nil, err
		}
		if len(view.Columns) > 0 {
			cols = view.Columns
		}
		return tagRows(rows, cols, alias), nil
	}
	return tableRows(table, alias), nil
}

func tableRows(ds *storage.DataStore, alias string) []Row {
	schema := ds.Schema()
	names := schema.Names()
	out := make([]Row, ds.RowCount())
	for i := 0; i < ds.RowCount(); i++ {
		r := NewRow(len(names))
		for c, name := range names {
			r.Append(alias, name, ds.GetValueByIndex(i, c))
		}
		out[i] = r
	}
	return out
}

func resolveJoin(ev *Evaluator, j *sql.JoinClause) ([]Row, error) {
	left, err := resolveFrom(ev, j.Left)
	if err != nil {
		return nil, err
	}
	right, err := resolveFrom(ev, j.Right)
	if err != nil {
		return nil, err
	}
	if int64(len(left))*int64(len(right)) > cartesianLimit {
		return nil, &RuntimeError{Msg: "join exceeds Cartesian expansion limit"}
	}

	using := j.Using
	if j.Natural {
		using = naturalJoinKeys(left, right)
	}

	switch j.Type {
	case sql.JoinCross:
		return crossJoin(left, right), nil
	default:
		return conditionJoin(ev, left, right, j.Type, j.On, using)
	}
}

func naturalJoinKeys(left, right []Row) []string {
	var lshape, rshape Row
	if len(left) > 0 {
		lshape = left[0]
	}
	if len(right) > 0 {
		rshape = right[0]
	}
	var keys []string
	for _, n := range lshape.Name {
		for _, rn := range rshape.Name {
			if strings.EqualFold(n, rn) {
				keys = append(keys, n)
				break
			}
		}
	}
	return keys
}

func crossJoin(left, right []Row) []Row {
	out := make([]Row, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			out = append(out, Merge(l, r))
		}
	}
	return out
}

// conditionJoin implements INNER/LEFT/RIGHT/FULL with an ON predicate or a
// NATURAL/USING equi-key list, nested-loop by default. Grounded on the
// executeInnerJoin/executeLeftJoin/... family; unlike that reference
// (which errors on colliding column names across sides), Merge here
// always succeeds because Row disambiguates by table qualifier, and a
// USING/NATURAL join additionally emits one unqualified coalesced column
// per key so bare references to it resolve without ambiguity.
func conditionJoin(ev *Evaluator, left, right []Row, jt sql.JoinType, on sql.Expr, using []string) ([]Row, error) {
	matchLeft := make([]bool, len(left))
	matchRight := make([]bool, len(right))
	var out []Row

	test := func(l, r Row) (bool, Row, error) {
		merged := Merge(l, r)
		if len(using) > 0 {
			for _, key := range using {
				lv, lerr := l.Get("", key)
				rv, rerr := r.Get("", key)
				if lerr != nil || rerr != nil {
					return false, merged, nil
				}
				if value.EqThreeValued(lv, rv) != value.True {
					return false, merged, nil
				}
			}
			for _, key := range using {
				lv, _ := l.Get("", key)
				merged.Append("", key, lv)
			}
			return true, merged, nil
		}
		if on == nil {
			return true, merged, nil
		}
		t, err := ev.EvalPredicate(on, merged)
		if err != nil {
			return false, merged, err
		}
		return t == value.True, merged, nil
	}

	for li, l := range left {
		for ri, r := range right {
			ok, merged, err := test(l, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			matchLeft[li] = true
			matchRight[ri] = true
			out = append(out, merged)
		}
	}

	if jt == sql.JoinLeft || jt == sql.JoinFull {
		for li, l := range left {
			if !matchLeft[li] {
				padded := Merge(l, NullRowLike(pickShape(right)))
				for _, key := range using {
					padded.Append("", key, mustGet(l, key))
				}
				out = append(out, padded)
			}
		}
	}
	if jt == sql.JoinRight || jt == sql.JoinFull {
		for ri, r := range right {
			if !matchRight[ri] {
				padded := Merge(NullRowLike(pickShape(left)), r)
				for _, key := range using {
					padded.Append("", key, mustGet(r, key))
				}
				out = append(out, padded)
			}
		}
	}
	return out, nil
}

func pickShape(rows []Row) Row {
	if len(rows) > 0 {
		return rows[0]
	}
	return NewRow(0)
}

func mustGet(r Row, name string) value.Value {
	v, err := r.Get("", name)
	if err != nil {
		return value.NewNull()
	}
	return v
}

// resolvePivot implements `source PIVOT (agg(val) FOR key IN (v1,...))`
// per spec §4.8: grouping columns G = every source column except the
// aggregated value and the pivot key; one output row per distinct G,
// one output column per listed pivot value.
func resolvePivot(ev *Evaluator, p *sql.PivotItem) ([]Row, error) {
	src, err := resolveFrom(ev, p.Source)
	if err != nil {
		return nil, err
	}
	if len(src) == 0 {
		return nil, nil
	}
	shape := src[0]
	valIdx := -1
	keyIdx := shape.IndexOf("", p.ForCol)
	// AggArg may be a bare column ref (the common case); fall back to -1
	// (aggregate over the row count) only for COUNT(*)-shaped pivots.
	if ref, ok := p.AggArg.(*sql.ColumnRefExpr); ok {
		valIdx = shape.IndexOf(ref.Table, ref.Name)
	}
	if keyIdx < 0 {
		return nil, &PlanError{Msg: "PIVOT: unknown FOR column " + p.ForCol}
	}

	pivotValues := make([]value.Value, len(p.InValues))
	pivotNames := make([]string, len(p.InValues))
	for i, e := range p.InValues {
		v, err := ev.Eval(e, Row{})
		if err != nil {
			return nil, err
		}
		pivotValues[i] = v
		pivotNames[i] = v.String()
	}

	type group struct {
		keyVals []value.Value
		rows    []Row
	}
	order := make([]string, 0)
	groups := make(map[string]*group)
	for _, row := range src {
		var gk []value.Value
		var sb strings.Builder
		for c := 0; c < row.Len(); c++ {
			if c == keyIdx || c == valIdx {
				continue
			}
			gk = append(gk, row.Val[c])
			sb.WriteString(row.Val[c].String())
			sb.WriteByte('\x1f')
		}
		k := sb.String()
		g, ok := groups[k]
		if !ok {
			g = &group{keyVals: gk}
			groups[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, row)
	}

	var out []Row
	for _, k := range order {
		g := groups[k]
		r := NewRow(len(g.keyVals) + len(pivotNames))
		gi := 0
		for c := 0; c < shape.Len(); c++ {
			if c == keyIdx || c == valIdx {
				continue
			}
			r.Append(p.Alias, shape.Name[c], g.keyVals[gi])
			gi++
		}
		for i, pv := range pivotValues {
			var groupRows []Row
			for _, row := range g.rows {
				if value.EqThreeValued(row.Val[keyIdx], pv) != value.True {
					continue
				}
				gr := NewRow(1)
				if valIdx >= 0 {
					gr.Append("", "__pivot_val", row.Val[valIdx])
				}
				groupRows = append(groupRows, gr)
			}
			_, isStar := p.AggArg.(*sql.StarExpr)
			call := &sql.FuncCallExpr{Name: aggNameOf(p.AggName), Star: isStar, Args: []sql.Expr{&sql.ColumnRefExpr{Name: "__pivot_val"}}}
			v, err := evalAggregate(ev, call, groupRows)
			if err != nil {
				return nil, err
			}
			r.Append(p.Alias, pivotNames[i], v)
		}
		out = append(out, r)
	}
	return out, nil
}

func aggNameOf(name string) string { return strings.ToUpper(name) }

// resolveUnpivot implements `source UNPIVOT (val FOR key IN (c1,...))`.
func resolveUnpivot(ev *Evaluator, u *sql.UnpivotItem) ([]Row, error) {
	src, err := resolveFrom(ev, u.Source)
	if err != nil {
		return nil, err
	}
	var out []Row
	for _, row := range src {
		for _, col := range u.InColumns {
			idx := row.IndexOf("", col)
			if idx < 0 {
				continue
			}
			v := row.Val[idx]
			if value.IsNull(v) {
				continue
			}
			r := NewRow(row.Len() - len(u.InColumns) + 2)
			for c := 0; c < row.Len(); c++ {
				skip := false
				for _, ic := range u.InColumns {
					if strings.EqualFold(row.Name[c], ic) {
						skip = true
						break
					}
				}
				if !skip {
					r.Append(u.Alias, row.Name[c], row.Val[c])
				}
			}
			r.Append(u.Alias, u.ForCol, value.NewString(col))
			r.Append(u.Alias, u.ValueCol, v)
			out = append(out, r)
		}
	}
	return out, nil
}
