package exec

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/catalog"
	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// PlanError reports a statement that is well-formed SQL but cannot be
// planned: an aggregate used outside a group context, a correlated
// reference this design doesn't resolve, or an unsupported window frame.
type PlanError struct{ Msg string }

func (e *PlanError) Error() string { return e.Msg }

// RuntimeError reports a resource-limit or runtime-only failure: recursion
// limit exceeded, Cartesian-product cap exceeded.
type RuntimeError struct{ Msg string }

func (e *RuntimeError) Error() string { return e.Msg }

// GroupContext supplies the aggregate values available while evaluating an
// expression over one output group (used by HAVING and by aggregate
// SelectItems). Empty/nil outside of a grouped or aggregated projection.
type GroupContext struct {
	Rows []Row // every input row belonging to this group
}

// WindowContext supplies the already-computed window-function values for
// the current row, keyed by the FuncCallExpr pointer that produced them
// (QUALIFY and the projection both re-evaluate the same AST node, so
// identity keying lets window.go's precompute pass feed both).
type WindowContext struct {
	Values map[*sql.FuncCallExpr]value.Value
}

// Evaluator evaluates scalar expressions against a Row, with an outer-row
// stack for correlated subqueries and optional group/window contexts for
// aggregate and window calls. Grounded on the query/filter.go
// recursive expression walk (one case per AST node) and EvaluateExpression
// in query/executor.go, generalized from map[string]interface{} lookups to
// typed Row.Get and from boolean-only predicates to value.Tri.
type Evaluator struct {
	Catalog *catalog.Catalog
	Outer   []Row // outer-row stack, innermost last; nil/empty at top level
	Group   *GroupContext
	Window  *WindowContext
	CTEs    map[string]*cteBinding // name (uppercased) -> materialized rows, scoped to the enclosing statement
	depth   int
}

// cteBinding is one materialized WITH entry.
type cteBinding struct {
	cols []string
	rows []Row
}

// NewEvaluator builds an evaluator with no outer rows and no group/window
// context (suitable for WHERE/ON/simple projections).
func NewEvaluator(cat *catalog.Catalog) *Evaluator {
	return &Evaluator{Catalog: cat}
}

// WithOuter returns a child evaluator that can see row as an additional
// outer-row frame, for evaluating a correlated subquery's body.
func (e *Evaluator) WithOuter(row Row) *Evaluator {
	outer := make([]Row, 0, len(e.Outer)+1)
	outer = append(outer, e.Outer...)
	outer = append(outer, row)
	return &Evaluator{Catalog: e.Catalog, Outer: outer, Group: e.Group, Window: e.Window, CTEs: e.CTEs}
}

// WithGroup returns a child evaluator for evaluating an aggregate-bearing
// expression (a SelectItem or HAVING predicate) over group.
func (e *Evaluator) WithGroup(group *GroupContext) *Evaluator {
	return &Evaluator{Catalog: e.Catalog, Outer: e.Outer, Group: group, Window: e.Window, CTEs: e.CTEs}
}

// WithWindow returns a child evaluator whose window-function calls resolve
// to precomputed values in win.
func (e *Evaluator) WithWindow(win *WindowContext) *Evaluator {
	return &Evaluator{Catalog: e.Catalog, Outer: e.Outer, Group: e.Group, Window: win, CTEs: e.CTEs}
}

// WithCTEs returns a child evaluator whose FROM-item resolution additionally
// sees the given CTE bindings, merged over (shadowing) any inherited ones.
func (e *Evaluator) WithCTEs(ctes map[string]*cteBinding) *Evaluator {
	merged := make(map[string]*cteBinding, len(e.CTEs)+len(ctes))
	for k, v := range e.CTEs {
		merged[k] = v
	}
	for k, v := range ctes {
		merged[k] = v
	}
	return &Evaluator{Catalog: e.Catalog, Outer: e.Outer, Group: e.Group, Window: e.Window, CTEs: merged}
}

const maxExprDepth = 200

// Eval evaluates expr against row, returning its scalar value.
func (e *Evaluator) Eval(expr sql.Expr, row Row) (value.Value, error) {
	e.depth++
	defer func() { e.depth-- }()
	if e.depth > maxExprDepth {
		return value.NewNull(), &RuntimeError{Msg: "expression nesting limit exceeded"}
	}
	switch x := expr.(type) {
	case *sql.LiteralExpr:
		return x.Value, nil

	case *sql.ColumnRefExpr:
		return e.evalColumnRef(x, row)

	case *sql.StarExpr:
		return value.NewNull(), &PlanError{Msg: "* is not valid in scalar position"}

	case *sql.UnaryExpr:
		return e.evalUnary(x, row)

	case *sql.BinaryExpr:
		return e.evalBinary(x, row)

	case *sql.BetweenExpr:
		return e.evalBetween(x, row)

	case *sql.InListExpr:
		return e.evalInList(x, row)

	case *sql.InSubqueryExpr:
		return e.evalInSubquery(x, row)

	case *sql.LikeExpr:
		return e.evalLike(x, row)

	case *sql.IsNullExpr:
		v, err := e.Eval(x.X, row)
		if err != nil {
			return value.NewNull(), err
		}
		isNull := value.IsNull(v)
		if x.Negate {
			isNull = !isNull
		}
		return value.NewBool(isNull), nil

	case *sql.IsDistinctExpr:
		l, err := e.Eval(x.Left, row)
		if err != nil {
			return value.NewNull(), err
		}
		r, err := e.Eval(x.Right, row)
		if err != nil {
			return value.NewNull(), err
		}
		distinct := value.DistinctFrom(l, r)
		if x.Negate {
			distinct = !distinct
		}
		return value.NewBool(distinct), nil

	case *sql.ExistsExpr:
		return e.evalExists(x, row)

	case *sql.ScalarSubqueryExpr:
		return e.evalScalarSubquery(x, row)

	case *sql.CaseExpr:
		return e.evalCase(x, row)

	case *sql.FuncCallExpr:
		return e.evalFuncCall(x, row)

	case *sql.CastExpr:
		return e.evalCast(x, row)

	default:
		return value.NewNull(), fmt.Errorf("unsupported expression node %T", expr)
	}
}

// EvalPredicate evaluates expr and collapses the result to three-valued
// logic, treating a non-Boolean, non-NULL result as Unknown (matching the
// teacher's permissive truthiness for WHERE/ON/HAVING predicates is
// avoided here: spec §4.7 requires strict three-valued evaluation).
func (e *Evaluator) EvalPredicate(expr sql.Expr, row Row) (value.Tri, error) {
	v, err := e.Eval(expr, row)
	if err != nil {
		return value.Unknown, err
	}
	if value.IsNull(v) {
		return value.Unknown, nil
	}
	if v.Type != value.Boolean {
		return value.Unknown, nil
	}
	return value.BoolToTri(v.Bool), nil
}

func (e *Evaluator) evalColumnRef(x *sql.ColumnRefExpr, row Row) (value.Value, error) {
	v, err := row.Get(x.Table, x.Name)
	if err == nil {
		return v, nil
	}
	// Fall back through the outer-row stack, innermost first, for a
	// correlated subquery reference.
	for i := len(e.Outer) - 1; i >= 0; i-- {
		if v, oerr := e.Outer[i].Get(x.Table, x.Name); oerr == nil {
			return v, nil
		}
	}
	return value.NewNull(), err
}

func (e *Evaluator) evalUnary(x *sql.UnaryExpr, row Row) (value.Value, error) {
	if x.Op == "NOT" {
		t, err := e.EvalPredicate(x.X, row)
		if err != nil {
			return value.NewNull(), err
		}
		n := value.Not(t)
		if n == value.Unknown {
			return value.NewNull(), nil
		}
		return value.NewBool(n == value.True), nil
	}
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	switch x.Op {
	case "-":
		return value.Neg(v), nil
	case "+":
		return v, nil
	default:
		return value.NewNull(), fmt.Errorf("unsupported unary operator %q", x.Op)
	}
}

func (e *Evaluator) evalBinary(x *sql.BinaryExpr, row Row) (value.Value, error) {
	switch x.Op {
	case "AND":
		l, err := e.EvalPredicate(x.Left, row)
		if err != nil {
			return value.NewNull(), err
		}
		if l == value.False {
			return value.NewBool(false), nil
		}
		r, err := e.EvalPredicate(x.Right, row)
		if err != nil {
			return value.NewNull(), err
		}
		return triToValue(value.And(l, r)), nil

	case "OR":
		l, err := e.EvalPredicate(x.Left, row)
		if err != nil {
			return value.NewNull(), err
		}
		if l == value.True {
			return value.NewBool(true), nil
		}
		r, err := e.EvalPredicate(x.Right, row)
		if err != nil {
			return value.NewNull(), err
		}
		return triToValue(value.Or(l, r)), nil
	}

	l, err := e.Eval(x.Left, row)
	if err != nil {
		return value.NewNull(), err
	}
	r, err := e.Eval(x.Right, row)
	if err != nil {
		return value.NewNull(), err
	}
	switch x.Op {
	case "+":
		return value.Add(l, r), nil
	case "-":
		return value.Sub(l, r), nil
	case "*":
		return value.Mul(l, r), nil
	case "/":
		return value.Div(l, r), nil
	case "%":
		return value.Mod(l, r), nil
	case "||":
		return value.Concat(l, r), nil
	case "=", "<>", "!=", "<", "<=", ">", ">=":
		return triToValue(value.CompareOp(x.Op, l, r)), nil
	default:
		return value.NewNull(), fmt.Errorf("unsupported binary operator %q", x.Op)
	}
}

// triToValue renders a Tri as the SQL-surface scalar it represents: a
// definite Boolean, or NULL for Unknown.
func triToValue(t value.Tri) value.Value {
	if t == value.Unknown {
		return value.NewNull()
	}
	return value.NewBool(t == value.True)
}

func (e *Evaluator) evalBetween(x *sql.BetweenExpr, row Row) (value.Value, error) {
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	lo, err := e.Eval(x.Lower, row)
	if err != nil {
		return value.NewNull(), err
	}
	hi, err := e.Eval(x.Upper, row)
	if err != nil {
		return value.NewNull(), err
	}
	ge := value.CompareOp(">=", v, lo)
	le := value.CompareOp("<=", v, hi)
	between := value.And(ge, le)
	if x.Negate {
		between = value.Not(between)
	}
	return triToValue(between), nil
}

func (e *Evaluator) evalInList(x *sql.InListExpr, row Row) (value.Value, error) {
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	result := value.False
	for _, item := range x.List {
		iv, err := e.Eval(item, row)
		if err != nil {
			return value.NewNull(), err
		}
		t := value.EqThreeValued(v, iv)
		if t == value.True {
			result = value.True
			break
		}
		if t == value.Unknown {
			result = value.Unknown
		}
	}
	if x.Negate {
		result = value.Not(result)
	}
	return triToValue(result), nil
}

func (e *Evaluator) evalLike(x *sql.LikeExpr, row Row) (value.Value, error) {
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	p, err := e.Eval(x.Pattern, row)
	if err != nil {
		return value.NewNull(), err
	}
	if value.IsNull(v) || value.IsNull(p) {
		return value.NewNull(), nil
	}
	if v.Type != value.Utf8 || p.Type != value.Utf8 {
		return value.NewNull(), nil
	}
	m := likeMatch(v.Str, p.Str)
	if x.Negate {
		m = !m
	}
	return value.NewBool(m), nil
}

// evalExists, evalInSubquery and evalScalarSubquery all re-run the
// subquery once per outer row (spec §4.7: "no caching in this design"),
// in explicit contrast to the EvaluateExists/EvaluateScalarSubquery
// which are non-correlated and run the subquery exactly once regardless of
// the outer row. Passing row down via WithOuter is what makes a reference
// to an outer column inside the subquery resolve correctly.
func (e *Evaluator) evalExists(x *sql.ExistsExpr, row Row) (value.Value, error) {
	rows, _, err := execSelectStmt(e.WithOuter(row), x.Query)
	if err != nil {
		return value.NewNull(), err
	}
	found := len(rows) > 0
	if x.Negate {
		found = !found
	}
	return value.NewBool(found), nil
}

func (e *Evaluator) evalInSubquery(x *sql.InSubqueryExpr, row Row) (value.Value, error) {
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	rows, _, err := execSelectStmt(e.WithOuter(row), x.Query)
	if err != nil {
		return value.NewNull(), err
	}
	result := value.False
	for _, r := range rows {
		if r.Len() == 0 {
			continue
		}
		t := value.EqThreeValued(v, r.Val[0])
		if t == value.True {
			result = value.True
			break
		}
		if t == value.Unknown {
			result = value.Unknown
		}
	}
	if x.Negate {
		result = value.Not(result)
	}
	return triToValue(result), nil
}

func (e *Evaluator) evalScalarSubquery(x *sql.ScalarSubqueryExpr, row Row) (value.Value, error) {
	rows, _, err := execSelectStmt(e.WithOuter(row), x.Query)
	if err != nil {
		return value.NewNull(), err
	}
	if len(rows) == 0 {
		return value.NewNull(), nil
	}
	if len(rows) > 1 {
		return value.NewNull(), &RuntimeError{Msg: "scalar subquery returned more than one row"}
	}
	if rows[0].Len() == 0 {
		return value.NewNull(), &RuntimeError{Msg: "scalar subquery returned no columns"}
	}
	return rows[0].Val[0], nil
}

func (e *Evaluator) evalCase(x *sql.CaseExpr, row Row) (value.Value, error) {
	var operand value.Value
	hasOperand := x.Operand != nil
	if hasOperand {
		v, err := e.Eval(x.Operand, row)
		if err != nil {
			return value.NewNull(), err
		}
		operand = v
	}
	for _, w := range x.Whens {
		if hasOperand {
			cv, err := e.Eval(w.Cond, row)
			if err != nil {
				return value.NewNull(), err
			}
			if value.EqThreeValued(operand, cv) != value.True {
				continue
			}
		} else {
			t, err := e.EvalPredicate(w.Cond, row)
			if err != nil {
				return value.NewNull(), err
			}
			if t != value.True {
				continue
			}
		}
		return e.Eval(w.Result, row)
	}
	if x.Else != nil {
		return e.Eval(x.Else, row)
	}
	return value.NewNull(), nil
}

func (e *Evaluator) evalFuncCall(x *sql.FuncCallExpr, row Row) (value.Value, error) {
	if x.Window != nil {
		if e.Window == nil {
			return value.NewNull(), &PlanError{Msg: "window function outside window context"}
		}
		v, ok := e.Window.Values[x]
		if !ok {
			return value.NewNull(), fmt.Errorf("window value not computed for %s", x.Name)
		}
		return v, nil
	}

	name := strings.ToUpper(x.Name)
	if isAggregateName(name) {
		if e.Group == nil {
			return value.NewNull(), &PlanError{Msg: fmt.Sprintf("aggregate %s used outside group context", x.Name)}
		}
		return evalAggregate(e, x, e.Group.Rows)
	}

	switch name {
	case "COALESCE":
		for _, a := range x.Args {
			v, err := e.Eval(a, row)
			if err != nil {
				return value.NewNull(), err
			}
			if !value.IsNull(v) {
				return v, nil
			}
		}
		return value.NewNull(), nil
	case "NULLIF":
		if len(x.Args) != 2 {
			return value.NewNull(), argErr("NULLIF")
		}
		l, err := e.Eval(x.Args[0], row)
		if err != nil {
			return value.NewNull(), err
		}
		r, err := e.Eval(x.Args[1], row)
		if err != nil {
			return value.NewNull(), err
		}
		if value.EqThreeValued(l, r) == value.True {
			return value.NewNull(), nil
		}
		return l, nil
	case "IFNULL":
		if len(x.Args) != 2 {
			return value.NewNull(), argErr("IFNULL")
		}
		l, err := e.Eval(x.Args[0], row)
		if err != nil {
			return value.NewNull(), err
		}
		if !value.IsNull(l) {
			return l, nil
		}
		return e.Eval(x.Args[1], row)
	case "IIF":
		if len(x.Args) != 3 {
			return value.NewNull(), argErr("IIF")
		}
		t, err := e.EvalPredicate(x.Args[0], row)
		if err != nil {
			return value.NewNull(), err
		}
		if t == value.True {
			return e.Eval(x.Args[1], row)
		}
		return e.Eval(x.Args[2], row)
	}

	args := make([]value.Value, len(x.Args))
	for i, a := range x.Args {
		v, err := e.Eval(a, row)
		if err != nil {
			return value.NewNull(), err
		}
		args[i] = v
	}
	fn, ok := globalFunctions.Get(name)
	if !ok {
		return value.NewNull(), fmt.Errorf("unknown function: %s", x.Name)
	}
	if len(args) < fn.MinArity() || (fn.MaxArity() >= 0 && len(args) > fn.MaxArity()) {
		return value.NewNull(), fmt.Errorf("%s: wrong number of arguments", x.Name)
	}
	return fn.Evaluate(args)
}

func (e *Evaluator) evalCast(x *sql.CastExpr, row Row) (value.Value, error) {
	v, err := e.Eval(x.X, row)
	if err != nil {
		return value.NewNull(), err
	}
	target := sql.DataTypeFromName(x.Type)
	return value.Cast(v, target, x.Strict)
}

// likeMatch implements SQL LIKE: % matches zero or more characters, _
// matches exactly one, case-sensitive, no regex, grounded on spec §4.7.
func likeMatch(s, pattern string) bool {
	sr := []rune(s)
	pr := []rune(pattern)
	return likeMatchRunes(sr, pr)
}

func likeMatchRunes(s, p []rune) bool {
	// Standard backtracking matcher; patterns in this engine are short
	// (SQL literals), so no memoization is needed.
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatchRunes(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}
