package ops

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/engine"
)

// Filter returns every row of table for which predicate (a raw SQL boolean
// expression, e.g. `"price" > 10`) evaluates TRUE.
func Filter(eng *engine.Engine, table, predicate string) (*engine.QueryResult, error) {
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s", quoteIdent(table), predicate)
	return eng.Execute(q)
}

// Sort returns every row of table ordered by orderBy (a raw SQL ORDER BY
// item list, e.g. `"amount" DESC, "name"`).
func Sort(eng *engine.Engine, table, orderBy string) (*engine.QueryResult, error) {
	q := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", quoteIdent(table), orderBy)
	return eng.Execute(q)
}

// PivotTable reshapes table: rows group by every column not named in
// pivotValues' source, aggExpr (e.g. "SUM(amount)") is computed per group,
// and forColumn's distinct listed values each become their own output
// column. A thin entry point over one SELECT ... PIVOT statement.
func PivotTable(eng *engine.Engine, table, aggExpr, forColumn string, pivotValues []string) (*engine.QueryResult, error) {
	quoted := make([]string, len(pivotValues))
	for i, v := range pivotValues {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	q := fmt.Sprintf(
		"SELECT * FROM %s PIVOT (%s FOR %s IN (%s))",
		quoteIdent(table), aggExpr, quoteIdent(forColumn), strings.Join(quoted, ", "),
	)
	return eng.Execute(q)
}
