package exec

import (
	"strconv"
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// group is one GROUP BY bucket: rep is a representative row used to
// evaluate non-aggregate expressions (its GROUP BY key columns carry the
// group's key value, or NULL for a grouping-set column not in this
// particular set); rows holds every input row belonging to the group, for
// aggregate evaluation via GroupContext.
type group struct {
	rep  Row
	rows []Row
}

// groupKeyPart renders v into a string that is injective enough to use as
// a hash-map key component (it's prefixed by the type tag so e.g. Int64(0)
// and Utf8("0") never collide).
func groupKeyPart(v value.Value) string {
	if value.IsNull(v) {
		return "N"
	}
	return strconv.Itoa(int(v.Type)) + ":" + v.String()
}

// groupRowsByExprs partitions rows by the tuple of keyExprs, in first-seen
// (stable, insertion) order, grounded on spec §4.8's "stable,
// insertion-ordered map" requirement.
func groupRowsByExprs(ev *Evaluator, rows []Row, keyExprs []sql.Expr) ([]*group, error) {
	order := make([]string, 0)
	index := make(map[string]*group)
	for _, row := range rows {
		vals := make([]value.Value, len(keyExprs))
		parts := make([]string, len(keyExprs))
		for i, ke := range keyExprs {
			v, err := ev.Eval(ke, row)
			if err != nil {
				return nil, err
			}
			vals[i] = v
			parts[i] = groupKeyPart(v)
		}
		k := strings.Join(parts, "\x1f")
		g, ok := index[k]
		if !ok {
			rep := row.Clone()
			for i, ke := range keyExprs {
				if ref, isCol := ke.(*sql.ColumnRefExpr); isCol {
					setRowValue(&rep, ref.Table, ref.Name, vals[i])
				}
			}
			g = &group{rep: rep}
			index[k] = g
			order = append(order, k)
		}
		g.rows = append(g.rows, row)
	}
	out := make([]*group, len(order))
	for i, k := range order {
		out[i] = index[k]
	}
	return out, nil
}

// setRowValue overwrites the (table,name) column in row if present, or
// appends it.
func setRowValue(row *Row, table, name string, v value.Value) {
	idx := row.IndexOf(table, name)
	if idx >= 0 {
		row.Val[idx] = v
		return
	}
	row.Append(table, name, v)
}

// nullOutColumns sets every ColumnRefExpr in universe that is not present
// (by table/name) in active to NULL in rep — used to render the
// ROLLUP/CUBE/GROUPING SETS "subtotal" NULLs.
func nullOutColumns(rep *Row, universe, active []sql.Expr) {
	isActive := func(ref *sql.ColumnRefExpr) bool {
		for _, a := range active {
			if ar, ok := a.(*sql.ColumnRefExpr); ok && strings.EqualFold(ar.Table, ref.Table) && strings.EqualFold(ar.Name, ref.Name) {
				return true
			}
		}
		return false
	}
	for _, u := range universe {
		ref, ok := u.(*sql.ColumnRefExpr)
		if !ok || isActive(ref) {
			continue
		}
		setRowValue(rep, ref.Table, ref.Name, value.NewNull())
	}
}

// groupingSets expands a GroupByClause into its ordered list of column
// subsets per spec §4.8: ROLLUP(a,b,c) = ((a,b,c),(a,b),(a),()); CUBE(a,b)
// = every subset; GROUPING SETS is used verbatim.
func groupingSets(gb *sql.GroupByClause) [][]sql.Expr {
	switch gb.Kind {
	case sql.GroupByPlain:
		return [][]sql.Expr{gb.Columns}
	case sql.GroupByRollup:
		var sets [][]sql.Expr
		for i := len(gb.Columns); i >= 0; i-- {
			sets = append(sets, gb.Columns[:i])
		}
		return sets
	case sql.GroupByCube:
		n := len(gb.Columns)
		var sets [][]sql.Expr
		for mask := (1 << n) - 1; mask >= 0; mask-- {
			var set []sql.Expr
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					set = append(set, gb.Columns[i])
				}
			}
			sets = append(sets, set)
		}
		return sets
	case sql.GroupBySets:
		return gb.Sets
	default:
		return [][]sql.Expr{gb.Columns}
	}
}

// buildGroups computes the full grouped-row sequence for a GROUP BY clause
// (including its ROLLUP/CUBE/GROUPING SETS variants), in declaration order
// across sets.
func buildGroups(ev *Evaluator, rows []Row, gb *sql.GroupByClause) ([]*group, error) {
	sets := groupingSets(gb)
	var universe []sql.Expr
	if gb.Kind == sql.GroupBySets {
		seen := map[string]bool{}
		for _, s := range gb.Sets {
			for _, c := range s {
				if ref, ok := c.(*sql.ColumnRefExpr); ok {
					k := strings.ToUpper(ref.Table + "." + ref.Name)
					if !seen[k] {
						seen[k] = true
						universe = append(universe, c)
					}
				}
			}
		}
	} else {
		universe = gb.Columns
	}

	var out []*group
	for _, set := range sets {
		groups, err := groupRowsByExprs(ev, rows, set)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			nullOutColumns(&g.rep, universe, set)
			out = append(out, g)
		}
	}
	return out, nil
}
