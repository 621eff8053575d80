// Package engine is the embeddable SQL engine's façade: one Engine owns a
// catalog and a transaction manager, and Execute is the library entry
// point (`execute(sql-text) -> QueryResult | EngineError`).
//
// Parses once, dispatches on the statement's concrete type, and mutates
// shared catalog/store state, covering the full SELECT/DML/DDL/transaction/
// introspection statement set, with every mutating statement wrapped in
// txnlog's auto-commit semantics.
package engine

import (
	"fmt"
	"strings"

	"github.com/vegasq/memsql/catalog"
	"github.com/vegasq/memsql/exec"
	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/txnlog"
	"github.com/vegasq/memsql/value"
)

// Engine is one embeddable SQL engine instance: one catalog, one
// transaction manager, processing one statement at a time to completion
// (spec §5: "single-threaded, synchronous").
type Engine struct {
	Catalog *catalog.Catalog
	Txn     *txnlog.Manager
}

// New returns an empty engine: no tables, no views, no open transaction.
func New() *Engine {
	return &Engine{Catalog: catalog.New(), Txn: txnlog.NewManager()}
}

// Execute parses and runs one SQL statement, returning its result or a
// classified Error. A failing mutating statement rolls back any effects it
// performed (spec §7's propagation policy); the engine itself remains
// usable afterward.
func (e *Engine) Execute(sqlText string) (*QueryResult, error) {
	stmt, err := sql.Parse(sqlText)
	if err != nil {
		return nil, wrapError(err)
	}
	res, err := e.run(stmt)
	if err != nil {
		return nil, wrapError(err)
	}
	return res, nil
}

func (e *Engine) run(stmt sql.Statement) (*QueryResult, error) {
	switch s := stmt.(type) {
	case *sql.SelectStmt:
		ev := exec.NewEvaluator(e.Catalog)
		rows, cols, err := exec.ExecSelect(ev, s)
		if err != nil {
			return nil, err
		}
		return rowsToResult(rows, cols), nil

	case *sql.InsertStmt:
		var n int64
		err := e.Txn.AutoCommit(func() error {
			var err error
			n, err = exec.ExecInsert(exec.NewEvaluator(e.Catalog), e.Txn, s)
			return err
		})
		if err != nil {
			return nil, err
		}
		return statusResult("inserted", value.NewInt(n)), nil

	case *sql.UpdateStmt:
		var n int64
		err := e.Txn.AutoCommit(func() error {
			var err error
			n, err = exec.ExecUpdate(exec.NewEvaluator(e.Catalog), e.Txn, s)
			return err
		})
		if err != nil {
			return nil, err
		}
		return statusResult("updated", value.NewInt(n)), nil

	case *sql.DeleteStmt:
		var n int64
		err := e.Txn.AutoCommit(func() error {
			var err error
			n, err = exec.ExecDelete(exec.NewEvaluator(e.Catalog), e.Txn, s)
			return err
		})
		if err != nil {
			return nil, err
		}
		return statusResult("deleted", value.NewInt(n)), nil

	case *sql.MergeStmt:
		var n int64
		err := e.Txn.AutoCommit(func() error {
			var err error
			n, err = exec.ExecMerge(exec.NewEvaluator(e.Catalog), e.Txn, s)
			return err
		})
		if err != nil {
			return nil, err
		}
		return statusResult("affected", value.NewInt(n)), nil

	case *sql.CreateTableStmt:
		err := e.Txn.AutoCommit(func() error {
			return exec.ExecCreateTable(exec.NewEvaluator(e.Catalog), e.Txn, s)
		})
		return okOrErr(err)

	case *sql.DropTableStmt:
		err := e.Txn.AutoCommit(func() error {
			return exec.ExecDropTable(exec.NewEvaluator(e.Catalog), e.Txn, s)
		})
		return okOrErr(err)

	case *sql.AlterTableStmt:
		err := e.Txn.AutoCommit(func() error {
			return exec.ExecAlterTable(exec.NewEvaluator(e.Catalog), e.Txn, s)
		})
		return okOrErr(err)

	case *sql.CreateViewStmt:
		err := e.Txn.AutoCommit(func() error {
			return exec.ExecCreateView(exec.NewEvaluator(e.Catalog), e.Txn, s)
		})
		return okOrErr(err)

	case *sql.DropViewStmt:
		err := e.Txn.AutoCommit(func() error {
			return exec.ExecDropView(exec.NewEvaluator(e.Catalog), e.Txn, s)
		})
		return okOrErr(err)

	case *sql.BeginStmt:
		if err := e.Txn.Begin(); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.CommitStmt:
		if err := e.Txn.Commit(); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.RollbackStmt:
		if err := e.Txn.Rollback(); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.SavepointStmt:
		if err := e.Txn.Savepoint(s.Name); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.ReleaseStmt:
		if err := e.Txn.Release(s.Name); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.RollbackToStmt:
		if err := e.Txn.RollbackTo(s.Name); err != nil {
			return nil, err
		}
		return statusResult("status", value.NewString("OK")), nil

	case *sql.ShowTablesStmt:
		names := e.Catalog.TableNames()
		data := make([][]value.Value, len(names))
		for i, n := range names {
			data[i] = []value.Value{value.NewString(n)}
		}
		return &QueryResult{Cols: []string{"table_name"}, Data: data}, nil

	case *sql.DescribeStmt:
		return e.describe(s.Name)

	case *sql.ExplainStmt:
		lines := explainPlan(s.Inner)
		data := make([][]value.Value, len(lines))
		for i, l := range lines {
			data[i] = []value.Value{value.NewString(l)}
		}
		return &QueryResult{Cols: []string{"plan"}, Data: data}, nil

	default:
		return nil, fmt.Errorf("unsupported statement type %T", stmt)
	}
}

func okOrErr(err error) (*QueryResult, error) {
	if err != nil {
		return nil, err
	}
	return statusResult("status", value.NewString("OK")), nil
}

func rowsToResult(rows []exec.Row, cols []string) *QueryResult {
	data := make([][]value.Value, len(rows))
	for i, r := range rows {
		data[i] = append([]value.Value{}, r.Val...)
	}
	if cols == nil {
		cols = []string{}
	}
	return &QueryResult{Cols: cols, Data: data}
}

// describe renders one table's (or view's) columns as a synthesized
// result, per spec §6's "DESCRIBE <name>". A view has no stored column
// types, so its TYPE and CONSTRAINTS columns render empty and NULLABLE
// reports true.
func (e *Engine) describe(name string) (*QueryResult, error) {
	table, view, err := e.Catalog.Resolve(name)
	if err != nil {
		return nil, err
	}
	cols := []string{"column_name", "type", "nullable", "constraints"}
	if table != nil {
		schema := table.Schema()
		data := make([][]value.Value, len(schema.Columns))
		for i, c := range schema.Columns {
			data[i] = []value.Value{
				value.NewString(c.Name),
				value.NewString(c.Type.String()),
				value.NewBool(c.Nullable),
				value.NewString(constraintList(c)),
			}
		}
		return &QueryResult{Cols: cols, Data: data}, nil
	}
	ev := exec.NewEvaluator(e.Catalog)
	_, names, err := exec.ExecSelect(ev, view.Query)
	if err != nil {
		return nil, err
	}
	if len(view.Columns) > 0 {
		names = view.Columns
	}
	data := make([][]value.Value, len(names))
	for i, n := range names {
		data[i] = []value.Value{value.NewString(n), value.NewString(""), value.NewBool(true), value.NewString("")}
	}
	return &QueryResult{Cols: cols, Data: data}, nil
}

func constraintList(c storage.ColumnDef) string {
	names := map[storage.Constraint]string{
		storage.ConstraintNotNull:    "NOT NULL",
		storage.ConstraintUnique:     "UNIQUE",
		storage.ConstraintPrimaryKey: "PRIMARY KEY",
		storage.ConstraintCheck:      "CHECK",
	}
	var out []string
	for _, cc := range c.Constraints {
		out = append(out, names[cc])
	}
	return strings.Join(out, ", ")
}
