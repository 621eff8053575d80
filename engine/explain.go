package engine

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/sql"
)

// explainPlan renders stmt as an indented node list without executing it,
// per spec §6: "EXPLAIN returns a single-column description of the
// logical plan tree; it does not execute the inner statement."
func explainPlan(stmt sql.Statement) []string {
	var lines []string
	emit := func(depth int, s string) {
		lines = append(lines, strings.Repeat("  ", depth)+s)
	}

	var describeStmt func(depth int, st sql.Statement)
	var describeTerm func(depth int, term sql.SetOpTerm)
	var describeFrom func(depth int, f sql.FromItem)

	describeFrom = func(depth int, f sql.FromItem) {
		switch x := f.(type) {
		case nil:
			return
		case *sql.TableRef:
			name := x.Name
			if x.Alias != "" {
				name += " AS " + x.Alias
			}
			emit(depth, "Scan: "+name)
		case *sql.SubqueryRef:
			emit(depth, "Subquery AS "+x.Alias)
			describeStmt(depth+1, x.Query)
		case *sql.JoinClause:
			emit(depth, fmt.Sprintf("Join(%s)", joinTypeName(x.Type)))
			describeFrom(depth+1, x.Left)
			describeFrom(depth+1, x.Right)
		case *sql.PivotItem:
			emit(depth, "Pivot")
			describeFrom(depth+1, x.Source)
		case *sql.UnpivotItem:
			emit(depth, "Unpivot")
			describeFrom(depth+1, x.Source)
		default:
			emit(depth, fmt.Sprintf("From(%T)", f))
		}
	}

	describeCore := func(depth int, c *sql.SelectCore) {
		label := "Project"
		if c.Distinct {
			label = "Project (distinct)"
		}
		emit(depth, label)
		if c.From != nil {
			describeFrom(depth+1, c.From)
		}
		if c.Where != nil {
			emit(depth+1, "Filter")
		}
		if c.GroupBy != nil {
			emit(depth+1, "GroupBy")
		}
		if c.Having != nil {
			emit(depth+1, "Having")
		}
		if c.Qualify != nil {
			emit(depth+1, "Qualify")
		}
	}

	describeTerm = func(depth int, term sql.SetOpTerm) {
		switch t := term.(type) {
		case *sql.SelectCore:
			describeCore(depth, t)
		case *sql.SetOpNode:
			emit(depth, setOpName(t.Op, t.All))
			describeTerm(depth+1, t.Left)
			describeTerm(depth+1, t.Right)
		default:
			emit(depth, fmt.Sprintf("SetOpTerm(%T)", term))
		}
	}

	describeStmt = func(depth int, st sql.Statement) {
		switch x := st.(type) {
		case *sql.SelectStmt:
			if len(x.CTEs) > 0 {
				emit(depth, "With")
				for _, c := range x.CTEs {
					label := c.Name
					if c.Recursive {
						label += " (recursive)"
					}
					emit(depth+1, label)
					describeStmt(depth+2, c.Query)
				}
			}
			describeTerm(depth, x.Body)
			if len(x.OrderBy) > 0 {
				emit(depth, "OrderBy")
			}
			if x.Offset != nil {
				emit(depth, fmt.Sprintf("Offset %d", *x.Offset))
			}
			if x.Limit != nil {
				emit(depth, fmt.Sprintf("Limit %d", *x.Limit))
			}
		case *sql.InsertStmt:
			emit(depth, "Insert INTO "+x.Table)
		case *sql.UpdateStmt:
			emit(depth, "Update "+x.Table)
			if x.Where != nil {
				emit(depth+1, "Filter")
			}
		case *sql.DeleteStmt:
			emit(depth, "Delete FROM "+x.Table)
			if x.Where != nil {
				emit(depth+1, "Filter")
			}
		case *sql.MergeStmt:
			emit(depth, "Merge INTO "+x.Target)
			emit(depth+1, fmt.Sprintf("Using %T", x.Source))
		case *sql.CreateTableStmt:
			emit(depth, "CreateTable "+x.Name)
		case *sql.DropTableStmt:
			emit(depth, "DropTable "+x.Name)
		case *sql.AlterTableStmt:
			emit(depth, "AlterTable "+x.Name)
		case *sql.CreateViewStmt:
			emit(depth, "CreateView "+x.Name)
		case *sql.DropViewStmt:
			emit(depth, "DropView "+x.Name)
		default:
			emit(depth, fmt.Sprintf("%T", st))
		}
	}

	describeStmt(0, stmt)
	return lines
}

func joinTypeName(jt sql.JoinType) string {
	switch jt {
	case sql.JoinInner:
		return "INNER"
	case sql.JoinLeft:
		return "LEFT"
	case sql.JoinRight:
		return "RIGHT"
	case sql.JoinFull:
		return "FULL"
	case sql.JoinCross:
		return "CROSS"
	default:
		return "?"
	}
}

func setOpName(op sql.SetOpType, all bool) string {
	name := "?"
	switch op {
	case sql.SetOpUnion:
		name = "Union"
	case sql.SetOpIntersect:
		name = "Intersect"
	case sql.SetOpExcept:
		name = "Except"
	}
	if all {
		name += " All"
	}
	return name
}
