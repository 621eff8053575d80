package exec

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// maxRecursiveCTEIterations bounds the semi-naive fixpoint loop a
// recursive CTE runs, per spec §4.6's "implementation-defined iteration
// cap; exceeding it is a RuntimeError, not an infinite loop."
const maxRecursiveCTEIterations = 10_000

// execSelectStmt is the C8 top-level SELECT pipeline: materialize WITH
// bindings, evaluate the set-operator tree of SelectCore blocks, then
// apply the statement-level ORDER BY/LIMIT/OFFSET. Grounded on the
// teacher's query/executor.go Execute entry point (one function walking
// FROM -> WHERE -> GROUP BY -> projection -> ORDER BY -> LIMIT), expanded
// for CTEs, set operations, and window functions the dialect
// never had.
// ExecSelect runs a top-level SELECT statement, returning its result rows
// and column names. This is the only exported entry point into the
// otherwise-unexported SELECT pipeline below; engine.Execute calls it for
// every SelectStmt it dispatches.
func ExecSelect(ev *Evaluator, stmt *sql.SelectStmt) ([]Row, []string, error) {
	return execSelectStmt(ev, stmt)
}

func execSelectStmt(ev *Evaluator, stmt *sql.SelectStmt) ([]Row, []string, error) {
	ev2 := ev
	if len(stmt.CTEs) > 0 {
		ctes, err := execCTEs(ev, stmt.CTEs)
		if err != nil {
			return nil, nil, err
		}
		ev2 = ev.WithCTEs(ctes)
	}

	rows, names, err := executeSetOpTerm(ev2, stmt.Body)
	if err != nil {
		return nil, nil, err
	}

	if len(stmt.OrderBy) > 0 {
		rows, err = applyOrderBy(ev2, rows, names, stmt.OrderBy)
		if err != nil {
			return nil, nil, err
		}
	}

	if stmt.Offset != nil {
		off := int(*stmt.Offset)
		if off < 0 {
			off = 0
		}
		if off > len(rows) {
			off = len(rows)
		}
		rows = rows[off:]
	}
	if stmt.Limit != nil {
		lim := int(*stmt.Limit)
		if lim < 0 {
			lim = 0
		}
		if lim < len(rows) {
			rows = rows[:lim]
		}
	}
	return rows, names, nil
}

func applyOrderBy(ev *Evaluator, rows []Row, names []string, items []sql.OrderByItem) ([]Row, error) {
	adjusted := make([]sql.OrderByItem, len(items))
	for i, it := range items {
		adjusted[i] = it
		if it.Expr == nil && it.Ordinal > 0 && it.Ordinal <= len(names) {
			adjusted[i].Expr = &sql.ColumnRefExpr{Name: names[it.Ordinal-1]}
		}
	}
	idxs := make([]int, len(rows))
	for i := range rows {
		idxs[i] = i
	}
	idxs, err := sortRowIndices(ev, rows, idxs, adjusted, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(rows))
	for i, idx := range idxs {
		out[i] = rows[idx]
	}
	return out, nil
}

// ---- WITH clause ----

// execCTEs materializes each WITH entry in order, with earlier entries
// visible to later ones (and to a later entry's own recursive self
// reference, per c.Recursive).
func execCTEs(ev *Evaluator, ctes []sql.CTE) (map[string]*cteBinding, error) {
	bindings := make(map[string]*cteBinding, len(ctes))
	for _, c := range ctes {
		var binding *cteBinding
		var err error
		if c.Recursive {
			binding, err = execRecursiveCTE(ev, c, bindings)
		} else {
			childEv := ev.WithCTEs(bindings)
			var rows []Row
			var cols []string
			rows, cols, err = execSelectStmt(childEv, c.Query)
			if len(c.Columns) > 0 {
				cols = c.Columns
			}
			binding = &cteBinding{cols: cols, rows: rows}
		}
		if err != nil {
			return nil, err
		}
		bindings[strings.ToUpper(c.Name)] = binding
	}
	return bindings, nil
}

// execRecursiveCTE runs the semi-naive fixpoint for `WITH RECURSIVE name AS
// (base UNION [ALL] recursive-case-referencing-name)`: the base case seeds
// the working set, then the recursive case re-runs against only the rows
// produced by the previous round until a round adds nothing (or the
// iteration cap is hit).
func execRecursiveCTE(ev *Evaluator, c sql.CTE, prior map[string]*cteBinding) (*cteBinding, error) {
	node, ok := c.Query.Body.(*sql.SetOpNode)
	if !ok || node.Op != sql.SetOpUnion {
		childEv := ev.WithCTEs(prior)
		rows, cols, err := execSelectStmt(childEv, c.Query)
		if err != nil {
			return nil, err
		}
		if len(c.Columns) > 0 {
			cols = c.Columns
		}
		return &cteBinding{cols: cols, rows: rows}, nil
	}

	baseCore, ok := node.Left.(*sql.SelectCore)
	if !ok {
		return nil, &PlanError{Msg: "recursive CTE base case must be a plain SELECT"}
	}
	recCore, ok := node.Right.(*sql.SelectCore)
	if !ok {
		return nil, &PlanError{Msg: "recursive CTE recursive case must be a plain SELECT"}
	}

	baseEv := ev.WithCTEs(prior)
	all, cols, err := executeSelectCore(baseEv, baseCore)
	if err != nil {
		return nil, err
	}
	if len(c.Columns) > 0 {
		cols = c.Columns
	}
	working := all

	for iter := 0; len(working) > 0; iter++ {
		if iter >= maxRecursiveCTEIterations {
			return nil, &RuntimeError{Msg: "recursive CTE exceeded iteration limit"}
		}
		roundBindings := make(map[string]*cteBinding, len(prior)+1)
		for k, v := range prior {
			roundBindings[k] = v
		}
		roundBindings[strings.ToUpper(c.Name)] = &cteBinding{cols: cols, rows: working}
		recEv := ev.WithCTEs(roundBindings)
		newRows, _, err := executeSelectCore(recEv, recCore)
		if err != nil {
			return nil, err
		}
		if !node.All {
			newRows = dedupeAgainst(newRows, all)
		}
		if len(newRows) == 0 {
			break
		}
		all = append(all, newRows...)
		working = newRows
	}
	return &cteBinding{cols: cols, rows: all}, nil
}

func rowKey(r Row) string {
	parts := make([]string, r.Len())
	for i, v := range r.Val {
		parts[i] = groupKeyPart(v)
	}
	return strings.Join(parts, "\x1f")
}

func dedupeAgainst(newRows, existing []Row) []Row {
	seen := make(map[string]bool, len(existing))
	for _, r := range existing {
		seen[rowKey(r)] = true
	}
	var out []Row
	for _, r := range newRows {
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// ---- set operations ----

func executeSetOpTerm(ev *Evaluator, term sql.SetOpTerm) ([]Row, []string, error) {
	switch t := term.(type) {
	case *sql.SelectCore:
		return executeSelectCore(ev, t)
	case *sql.SetOpNode:
		lrows, lnames, err := executeSetOpTerm(ev, t.Left)
		if err != nil {
			return nil, nil, err
		}
		rrows, _, err := executeSetOpTerm(ev, t.Right)
		if err != nil {
			return nil, nil, err
		}
		return setOpCombine(t.Op, t.All, lrows, rrows), lnames, nil
	default:
		return nil, nil, fmt.Errorf("unsupported set-operator node %T", term)
	}
}

func setOpCombine(op sql.SetOpType, all bool, lrows, rrows []Row) []Row {
	switch op {
	case sql.SetOpUnion:
		if all {
			return append(append([]Row{}, lrows...), rrows...)
		}
		seen := make(map[string]bool)
		var out []Row
		for _, r := range append(append([]Row{}, lrows...), rrows...) {
			k := rowKey(r)
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, r)
		}
		return out

	case sql.SetOpIntersect:
		rcount := make(map[string]int)
		for _, r := range rrows {
			rcount[rowKey(r)]++
		}
		var out []Row
		if all {
			used := make(map[string]int)
			for _, r := range lrows {
				k := rowKey(r)
				if used[k] < rcount[k] {
					out = append(out, r)
					used[k]++
				}
			}
		} else {
			seen := make(map[string]bool)
			for _, r := range lrows {
				k := rowKey(r)
				if rcount[k] > 0 && !seen[k] {
					out = append(out, r)
					seen[k] = true
				}
			}
		}
		return out

	case sql.SetOpExcept:
		rcount := make(map[string]int)
		for _, r := range rrows {
			rcount[rowKey(r)]++
		}
		var out []Row
		if all {
			used := make(map[string]int)
			for _, r := range lrows {
				k := rowKey(r)
				if used[k] < rcount[k] {
					used[k]++
					continue
				}
				out = append(out, r)
			}
		} else {
			seen := make(map[string]bool)
			for _, r := range lrows {
				k := rowKey(r)
				if rcount[k] == 0 && !seen[k] {
					out = append(out, r)
					seen[k] = true
				}
			}
		}
		return out
	}
	return nil
}

// ---- one SelectCore ----

// stage is one row flowing past GROUP BY/window computation into
// projection, paired with the evaluator it must be read through (carrying
// that row's Group/Window context).
type stage struct {
	row Row
	ev  *Evaluator
}

func executeSelectCore(ev *Evaluator, core *sql.SelectCore) ([]Row, []string, error) {
	var fromRows []Row
	var err error
	if core.From == nil {
		fromRows = []Row{NewRow(0)}
	} else {
		fromRows, err = resolveFrom(ev, core.From)
		if err != nil {
			return nil, nil, err
		}
	}

	if core.Where != nil {
		filtered := make([]Row, 0, len(fromRows))
		for _, r := range fromRows {
			t, err := ev.EvalPredicate(core.Where, r)
			if err != nil {
				return nil, nil, err
			}
			if t == value.True {
				filtered = append(filtered, r)
			}
		}
		fromRows = filtered
	}

	selectExprs := make([]sql.Expr, len(core.SelectList))
	for i, si := range core.SelectList {
		selectExprs[i] = si.Expr
	}
	needsGroup := core.GroupBy != nil || hasPlainAggregate(append(append([]sql.Expr{}, selectExprs...), core.Having)...)

	var stages []stage
	if needsGroup {
		gb := core.GroupBy
		if gb == nil {
			gb = &sql.GroupByClause{Kind: sql.GroupByPlain}
		}
		groups, err := buildGroups(ev, fromRows, gb)
		if err != nil {
			return nil, nil, err
		}
		if len(groups) == 0 && gb.Kind == sql.GroupByPlain && len(gb.Columns) == 0 {
			groups = []*group{{rep: NewRow(0), rows: fromRows}}
		}
		for _, g := range groups {
			ge := ev.WithGroup(&GroupContext{Rows: g.rows})
			if core.Having != nil {
				t, err := ge.EvalPredicate(core.Having, g.rep)
				if err != nil {
					return nil, nil, err
				}
				if t != value.True {
					continue
				}
			}
			stages = append(stages, stage{row: g.rep, ev: ge})
		}
	} else {
		stages = make([]stage, len(fromRows))
		for i, r := range fromRows {
			stages[i] = stage{row: r, ev: ev}
		}
	}

	windowRoots := append(append([]sql.Expr{}, selectExprs...), core.Qualify)
	if calls := collectWindowCalls(windowRoots...); len(calls) > 0 {
		rows := make([]Row, len(stages))
		for i, s := range stages {
			rows[i] = s.row
		}
		wcs, err := computeWindowValues(ev, rows, calls)
		if err != nil {
			return nil, nil, err
		}
		for i := range stages {
			stages[i].ev = stages[i].ev.WithWindow(wcs[i])
		}
	}

	if core.Qualify != nil {
		kept := stages[:0]
		for _, s := range stages {
			t, err := s.ev.EvalPredicate(core.Qualify, s.row)
			if err != nil {
				return nil, nil, err
			}
			if t == value.True {
				kept = append(kept, s)
			}
		}
		stages = kept
	}

	var shape Row
	if len(stages) > 0 {
		shape = stages[0].row
	} else if len(fromRows) > 0 {
		shape = fromRows[0]
	}
	items := expandProjection(core.SelectList)
	names := projectNames(shape, items)

	out := make([]Row, 0, len(stages))
	for _, s := range stages {
		pr, err := projectRow(s.ev, s.row, items)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, pr)
	}

	if core.Distinct {
		seen := make(map[string]bool, len(out))
		deduped := out[:0]
		for _, r := range out {
			k := rowKey(r)
			if seen[k] {
				continue
			}
			seen[k] = true
			deduped = append(deduped, r)
		}
		out = deduped
	}

	return out, names, nil
}

// hasPlainAggregate reports whether any non-window aggregate call appears
// in roots (used to decide whether a GROUP BY-less query is still a
// single-group aggregate query).
func hasPlainAggregate(roots ...sql.Expr) bool {
	found := false
	var walk func(e sql.Expr)
	walk = func(e sql.Expr) {
		if e == nil || found {
			return
		}
		switch x := e.(type) {
		case *sql.FuncCallExpr:
			if x.Window == nil && isAggregateName(x.Name) {
				found = true
				return
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
	return found
}

// ---- projection ----

type projItem struct {
	star      bool
	starTable string
	expr      sql.Expr
	alias     string
}

func expandProjection(items []sql.SelectItem) []projItem {
	out := make([]projItem, 0, len(items))
	for _, it := range items {
		if se, ok := it.Expr.(*sql.StarExpr); ok {
			out = append(out, projItem{star: true, starTable: se.Table})
			continue
		}
		out = append(out, projItem{expr: it.Expr, alias: it.Alias})
	}
	return out
}

func projectNames(shape Row, items []projItem) []string {
	var names []string
	for _, pi := range items {
		if pi.star {
			for c := 0; c < shape.Len(); c++ {
				if pi.starTable != "" && !strings.EqualFold(shape.Table[c], pi.starTable) {
					continue
				}
				names = append(names, shape.Name[c])
			}
			continue
		}
		name := pi.alias
		if name == "" {
			name = deriveColumnName(pi.expr, len(names))
		}
		names = append(names, name)
	}
	return names
}

func projectRow(ev *Evaluator, row Row, items []projItem) (Row, error) {
	out := NewRow(len(items))
	for _, pi := range items {
		if pi.star {
			for c := 0; c < row.Len(); c++ {
				if pi.starTable != "" && !strings.EqualFold(row.Table[c], pi.starTable) {
					continue
				}
				out.Append("", row.Name[c], row.Val[c])
			}
			continue
		}
		v, err := ev.Eval(pi.expr, row)
		if err != nil {
			return Row{}, err
		}
		name := pi.alias
		if name == "" {
			name = deriveColumnName(pi.expr, out.Len())
		}
		out.Append("", name, v)
	}
	return out, nil
}

// deriveColumnName names an unaliased projection, following SQL's usual
// fallback: the bare column name, the function name, or a positional
// `colN` placeholder for everything else.
func deriveColumnName(expr sql.Expr, idx int) string {
	switch x := expr.(type) {
	case *sql.ColumnRefExpr:
		return x.Name
	case *sql.FuncCallExpr:
		return x.Name
	case *sql.CastExpr:
		return deriveColumnName(x.X, idx)
	default:
		return fmt.Sprintf("col%d", idx+1)
	}
}
