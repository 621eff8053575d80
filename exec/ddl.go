package exec

import (
	"github.com/vegasq/memsql/catalog"
	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/txnlog"
	"github.com/vegasq/memsql/value"
)

// toColumnDef compiles one parsed column definition into storage's
// closure-based DEFAULT/CHECK shape (storage/schema.go's ColumnDef doc comment: "the DDL
// executor compiles the parsed DEFAULT/CHECK expression once at CREATE/
// ALTER TABLE time").
func toColumnDef(ev *Evaluator, c sql.ColumnDefAst) storage.ColumnDef {
	nullable := true
	var constraints []storage.Constraint
	for _, cc := range c.Constraints {
		switch cc {
		case sql.ColNotNull:
			constraints = append(constraints, storage.ConstraintNotNull)
			nullable = false
		case sql.ColUnique:
			constraints = append(constraints, storage.ConstraintUnique)
		case sql.ColPrimaryKey:
			constraints = append(constraints, storage.ConstraintPrimaryKey)
		case sql.ColCheck:
			constraints = append(constraints, storage.ConstraintCheck)
		}
	}
	return storage.ColumnDef{
		Name:        c.Name,
		Type:        sql.DataTypeFromName(c.Type),
		DecP:        c.Type.P,
		DecS:        c.Type.S,
		Nullable:    nullable,
		Default:     compileDefault(ev, c.Default),
		Constraints: constraints,
		Check:       compileCheck(ev, c.Check),
	}
}

func compileDefault(ev *Evaluator, expr sql.Expr) func() (value.Value, error) {
	if expr == nil {
		return nil
	}
	return func() (value.Value, error) { return ev.Eval(expr, Row{}) }
}

// compileCheck wraps a CHECK expression as storage's per-row predicate. A
// CHECK passes on TRUE or UNKNOWN (NULL), failing only on a definite
// FALSE, matching the SQL standard's CHECK semantics.
func compileCheck(ev *Evaluator, expr sql.Expr) func(row []value.Value, schema *storage.Schema) (bool, error) {
	if expr == nil {
		return nil
	}
	return func(row []value.Value, schema *storage.Schema) (bool, error) {
		names := schema.Names()
		r := NewRow(len(names))
		for i, n := range names {
			r.Append("", n, row[i])
		}
		t, err := ev.EvalPredicate(expr, r)
		if err != nil {
			return false, err
		}
		return t != value.False, nil
	}
}

// ExecCreateTable runs CREATE TABLE [AS SELECT]. For CREATE TABLE AS
// SELECT, each column's type is inferred from its first materialized row
// (defaulting to Utf8 for an empty result, since there is nothing to
// infer from).
func ExecCreateTable(ev *Evaluator, txn *txnlog.Manager, stmt *sql.CreateTableStmt) error {
	if stmt.AsSelect != nil {
		rows, names, err := execSelectStmt(ev, stmt.AsSelect)
		if err != nil {
			return err
		}
		cols := make([]storage.ColumnDef, len(names))
		for i, n := range names {
			dt := value.Utf8
			if len(rows) > 0 && !value.IsNull(rows[0].Val[i]) {
				dt = rows[0].Val[i].Type
			}
			cols[i] = storage.NewColumnDef(n, dt, true)
		}
		schema, err := storage.NewSchema(cols)
		if err != nil {
			return err
		}
		ds, err := ev.Catalog.CreateTable(stmt.Name, schema, stmt.IfNotExists)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if err := ds.AppendRow(r.Val); err != nil {
				return err
			}
		}
		name := stmt.Name
		txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.DropTable(name, true) }))
		return nil
	}

	cols := make([]storage.ColumnDef, len(stmt.Columns))
	for i, c := range stmt.Columns {
		cols[i] = toColumnDef(ev, c)
	}
	schema, err := storage.NewSchema(cols)
	if err != nil {
		return err
	}
	if _, err := ev.Catalog.CreateTable(stmt.Name, schema, stmt.IfNotExists); err != nil {
		return err
	}
	name := stmt.Name
	txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.DropTable(name, true) }))
	return nil
}

// ExecDropTable captures the table's full schema and contents before
// dropping it, so a rollback can recreate it with identical data.
func ExecDropTable(ev *Evaluator, txn *txnlog.Manager, stmt *sql.DropTableStmt) error {
	ds, err := ev.Catalog.GetTable(stmt.Name)
	if err != nil {
		if stmt.IfExists {
			return nil
		}
		return err
	}
	schemaClone := ds.Schema().Clone()
	rowsCopy := make([][]value.Value, ds.RowCount())
	for i := range rowsCopy {
		rowsCopy[i] = ds.GetRow(i)
	}
	if err := ev.Catalog.DropTable(stmt.Name, stmt.IfExists); err != nil {
		return err
	}
	name := stmt.Name
	txn.Record(txnlog.UndoFunc(func() error {
		newDS, err := ev.Catalog.CreateTable(name, schemaClone, true)
		if err != nil {
			return err
		}
		for _, r := range rowsCopy {
			if err := newDS.AppendRow(r); err != nil {
				return err
			}
		}
		return nil
	}))
	return nil
}

// ExecAlterTable runs ADD/DROP/RENAME COLUMN and RENAME TO, each with its
// own undo entry.
func ExecAlterTable(ev *Evaluator, txn *txnlog.Manager, stmt *sql.AlterTableStmt) error {
	switch stmt.Kind {
	case sql.AlterAddColumn:
		ds, err := ev.Catalog.GetTable(stmt.Name)
		if err != nil {
			return err
		}
		def := toColumnDef(ev, stmt.ColumnDef)
		if err := ds.AddColumn(def); err != nil {
			return err
		}
		name := def.Name
		txn.Record(txnlog.UndoFunc(func() error { _, _, e := ds.DropColumn(name); return e }))

	case sql.AlterDropColumn:
		ds, err := ev.Catalog.GetTable(stmt.Name)
		if err != nil {
			return err
		}
		idx := ds.Schema().IndexOf(stmt.ColumnName)
		if idx < 0 {
			return &storage.SchemaError{Msg: "unknown column " + stmt.ColumnName}
		}
		def, data, err := ds.DropColumn(stmt.ColumnName)
		if err != nil {
			return err
		}
		capturedIdx := idx
		txn.Record(txnlog.UndoFunc(func() error { ds.RestoreColumn(capturedIdx, def, data); return nil }))

	case sql.AlterRenameColumn:
		ds, err := ev.Catalog.GetTable(stmt.Name)
		if err != nil {
			return err
		}
		old, newName := stmt.ColumnName, stmt.NewName
		if err := ds.RenameColumn(old, newName); err != nil {
			return err
		}
		txn.Record(txnlog.UndoFunc(func() error { return ds.RenameColumn(newName, old) }))

	case sql.AlterRenameTable:
		oldName, newName := stmt.Name, stmt.NewName
		if err := ev.Catalog.RenameTable(oldName, newName); err != nil {
			return err
		}
		txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.RenameTable(newName, oldName) }))
	}
	return nil
}

// ExecCreateView registers a view, capturing any OR REPLACE'd prior
// definition so rollback restores it instead of merely dropping the view.
func ExecCreateView(ev *Evaluator, txn *txnlog.Manager, stmt *sql.CreateViewStmt) error {
	def := &catalog.ViewDef{Query: stmt.Query, Columns: stmt.Columns}
	var priorDef *catalog.ViewDef
	if stmt.OrReplace {
		if pd, err := ev.Catalog.GetView(stmt.Name); err == nil {
			priorDef = pd
		}
	}
	if err := ev.Catalog.CreateView(stmt.Name, def, stmt.OrReplace, stmt.IfNotExists); err != nil {
		return err
	}
	name := stmt.Name
	if priorDef != nil {
		pd := priorDef
		txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.CreateView(name, pd, true, false) }))
	} else {
		txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.DropView(name, true) }))
	}
	return nil
}

// ExecDropView removes a view, capturing its definition for undo.
func ExecDropView(ev *Evaluator, txn *txnlog.Manager, stmt *sql.DropViewStmt) error {
	def, err := ev.Catalog.GetView(stmt.Name)
	if err != nil {
		if stmt.IfExists {
			return nil
		}
		return err
	}
	if err := ev.Catalog.DropView(stmt.Name, stmt.IfExists); err != nil {
		return err
	}
	name := stmt.Name
	txn.Record(txnlog.UndoFunc(func() error { return ev.Catalog.CreateView(name, def, true, false) }))
	return nil
}
