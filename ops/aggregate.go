package ops

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/engine"
	"github.com/vegasq/memsql/value"
)

// quoteIdent wraps name in double quotes, escaping an embedded quote, so a
// column or table name with spaces or reserved words still parses.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Sum returns SUM(column) over table, optionally restricted by a WHERE
// predicate (pass "" for none). A thin entry point over one SELECT.
func Sum(eng *engine.Engine, table, column, where string) (value.Value, error) {
	return aggregateOne(eng, "SUM", table, column, where)
}

// Avg returns AVG(column) over table, optionally restricted by a WHERE
// predicate (pass "" for none).
func Avg(eng *engine.Engine, table, column, where string) (value.Value, error) {
	return aggregateOne(eng, "AVG", table, column, where)
}

func aggregateOne(eng *engine.Engine, fn, table, column, where string) (value.Value, error) {
	q := fmt.Sprintf("SELECT %s(%s) FROM %s", fn, quoteIdent(column), quoteIdent(table))
	if where != "" {
		q += " WHERE " + where
	}
	res, err := eng.Execute(q)
	if err != nil {
		return value.Value{}, err
	}
	if res.RowCount() == 0 {
		return value.NewNull(), nil
	}
	return res.Get(0, 0), nil
}
