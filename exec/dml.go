package exec

import (
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/txnlog"
	"github.com/vegasq/memsql/value"
)

// ExecInsert runs INSERT INTO ... VALUES | SELECT, recording one undo
// entry per appended row. Grounded on the single-table append
// path (there is no teacher DML; the shape follows storage.DataStore's
// AppendRow contract directly) and the undo-log discipline txnlog.go
// documents.
func ExecInsert(ev *Evaluator, txn *txnlog.Manager, stmt *sql.InsertStmt) (int64, error) {
	ds, err := ev.Catalog.GetTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	if stmt.Query != nil {
		rows, _, err := execSelectStmt(ev, stmt.Query)
		if err != nil {
			return 0, err
		}
		var count int64
		for _, r := range rows {
			full, err := buildFullRow(ds.Schema(), stmt.Columns, r.Val)
			if err != nil {
				return count, err
			}
			if err := ds.AppendRow(full); err != nil {
				return count, err
			}
			txn.Record(txnlog.UndoFunc(func() error { _, e := ds.DeleteRow(ds.RowCount() - 1); return e }))
			count++
		}
		return count, nil
	}

	var count int64
	for _, rowExprs := range stmt.Rows {
		vals := make([]value.Value, len(rowExprs))
		for i, e := range rowExprs {
			v, err := ev.Eval(e, Row{})
			if err != nil {
				return count, err
			}
			vals[i] = v
		}
		full, err := buildFullRow(ds.Schema(), stmt.Columns, vals)
		if err != nil {
			return count, err
		}
		if err := ds.AppendRow(full); err != nil {
			return count, err
		}
		txn.Record(txnlog.UndoFunc(func() error { _, e := ds.DeleteRow(ds.RowCount() - 1); return e }))
		count++
	}
	return count, nil
}

// buildFullRow arranges vals (in the order of cols, or schema order when
// cols is empty) into a full schema-width slice, filling any column the
// statement didn't mention with its DEFAULT, or NULL when it has none.
func buildFullRow(schema *storage.Schema, cols []string, vals []value.Value) ([]value.Value, error) {
	schemaNames := schema.Names()
	if len(cols) == 0 {
		if len(vals) != len(schemaNames) {
			return nil, &storage.SchemaError{Msg: "INSERT column count does not match table"}
		}
		return vals, nil
	}
	full := make([]value.Value, len(schemaNames))
	for i := range full {
		full[i] = value.NewNull()
		if def := schema.Columns[i].Default; def != nil {
			dv, err := def()
			if err != nil {
				return nil, err
			}
			full[i] = dv
		}
	}
	for i, col := range cols {
		idx := indexOfName(schemaNames, col)
		if idx < 0 {
			return nil, &storage.SchemaError{Msg: "unknown column " + col}
		}
		full[idx] = vals[i]
	}
	return full, nil
}

func indexOfName(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func tableRowAt(ds *storage.DataStore, alias string, i int) Row {
	names := ds.Schema().Names()
	r := NewRow(len(names))
	for c, name := range names {
		r.Append(alias, name, ds.GetValueByIndex(i, c))
	}
	return r
}

// ExecDelete runs DELETE FROM table [WHERE ...], deleting highest index
// first so earlier indices stay valid mid-statement, and records one undo
// entry per removed row (a plain re-append: tables are unordered
// relations, so the undo doesn't need to restore physical position).
func ExecDelete(ev *Evaluator, txn *txnlog.Manager, stmt *sql.DeleteStmt) (int64, error) {
	ds, err := ev.Catalog.GetTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	var toDelete []int
	for i := 0; i < ds.RowCount(); i++ {
		row := tableRowAt(ds, stmt.Table, i)
		if stmt.Where != nil {
			t, err := ev.EvalPredicate(stmt.Where, row)
			if err != nil {
				return 0, err
			}
			if t != value.True {
				continue
			}
		}
		toDelete = append(toDelete, i)
	}
	for i := len(toDelete) - 1; i >= 0; i-- {
		removed, err := ds.DeleteRow(toDelete[i])
		if err != nil {
			return 0, err
		}
		capturedRemoved := removed
		txn.Record(txnlog.UndoFunc(func() error { return ds.AppendRow(capturedRemoved) }))
	}
	return int64(len(toDelete)), nil
}

// ExecUpdate runs UPDATE table SET ... [WHERE ...]. Every SET expression
// in one row is evaluated against that row's pre-update values (standard
// SQL simultaneous-assignment semantics), then applied and logged for
// undo column by column.
func ExecUpdate(ev *Evaluator, txn *txnlog.Manager, stmt *sql.UpdateStmt) (int64, error) {
	ds, err := ev.Catalog.GetTable(stmt.Table)
	if err != nil {
		return 0, err
	}
	names := ds.Schema().Names()
	var count int64
	for i := 0; i < ds.RowCount(); i++ {
		row := tableRowAt(ds, stmt.Table, i)
		if stmt.Where != nil {
			t, err := ev.EvalPredicate(stmt.Where, row)
			if err != nil {
				return count, err
			}
			if t != value.True {
				continue
			}
		}
		type pendingSet struct {
			colIdx int
			val    value.Value
		}
		pendings := make([]pendingSet, 0, len(stmt.Sets))
		for _, sc := range stmt.Sets {
			colIdx := indexOfName(names, sc.Column)
			if colIdx < 0 {
				return count, &PlanError{Msg: "unknown column " + sc.Column}
			}
			v, err := ev.Eval(sc.Value, row)
			if err != nil {
				return count, err
			}
			pendings = append(pendings, pendingSet{colIdx, v})
		}
		for _, p := range pendings {
			prior, err := ds.SetValue(i, p.colIdx, p.val)
			if err != nil {
				return count, err
			}
			ii, cc, pp := i, p.colIdx, prior
			txn.Record(txnlog.UndoFunc(func() error { _, e := ds.SetValue(ii, cc, pp); return e }))
		}
		count++
	}
	return count, nil
}

// ExecMerge runs MERGE INTO target USING source ON cond WHEN ... . Each
// target row is tested against every source row for a match (first match
// wins, a deliberate simplification for an unindexed in-memory join); any
// source row matching no target row instead runs its WHEN NOT MATCHED
// THEN INSERT arm. Grounded on ExecUpdate/ExecDelete/ExecInsert's own
// per-row undo discipline, composed here into one statement.
func ExecMerge(ev *Evaluator, txn *txnlog.Manager, stmt *sql.MergeStmt) (int64, error) {
	targetDS, err := ev.Catalog.GetTable(stmt.Target)
	if err != nil {
		return 0, err
	}
	targetAlias := stmt.TargetAlias
	if targetAlias == "" {
		targetAlias = stmt.Target
	}
	sourceRows, err := resolveFrom(ev, stmt.Source)
	if err != nil {
		return 0, err
	}
	targetNames := targetDS.Schema().Names()

	matchedSource := make([]bool, len(sourceRows))
	var toDelete []int
	var affected int64

	for ti := 0; ti < targetDS.RowCount(); ti++ {
		trow := tableRowAt(targetDS, targetAlias, ti)
		for si, srow := range sourceRows {
			merged := Merge(trow, srow)
			t, err := ev.EvalPredicate(stmt.On, merged)
			if err != nil {
				return affected, err
			}
			if t != value.True {
				continue
			}
			matchedSource[si] = true
			for _, w := range stmt.Whens {
				if !w.Matched {
					continue
				}
				if w.AndCond != nil {
					ct, err := ev.EvalPredicate(w.AndCond, merged)
					if err != nil {
						return affected, err
					}
					if ct != value.True {
						continue
					}
				}
				switch w.Action.Kind {
				case sql.MergeUpdate:
					type pendingSet struct {
						colIdx int
						val    value.Value
					}
					pendings := make([]pendingSet, 0, len(w.Action.Sets))
					for _, sc := range w.Action.Sets {
						colIdx := indexOfName(targetNames, sc.Column)
						if colIdx < 0 {
							return affected, &PlanError{Msg: "unknown column " + sc.Column}
						}
						v, err := ev.Eval(sc.Value, merged)
						if err != nil {
							return affected, err
						}
						pendings = append(pendings, pendingSet{colIdx, v})
					}
					for _, p := range pendings {
						prior, err := targetDS.SetValue(ti, p.colIdx, p.val)
						if err != nil {
							return affected, err
						}
						tii, cc, pp := ti, p.colIdx, prior
						txn.Record(txnlog.UndoFunc(func() error { _, e := targetDS.SetValue(tii, cc, pp); return e }))
					}
					affected++
				case sql.MergeDelete:
					toDelete = append(toDelete, ti)
					affected++
				}
				break
			}
			break
		}
	}

	for i := len(toDelete) - 1; i >= 0; i-- {
		removed, err := targetDS.DeleteRow(toDelete[i])
		if err != nil {
			return affected, err
		}
		capturedRemoved := removed
		txn.Record(txnlog.UndoFunc(func() error { return targetDS.AppendRow(capturedRemoved) }))
	}

	for si, srow := range sourceRows {
		if matchedSource[si] {
			continue
		}
		for _, w := range stmt.Whens {
			if w.Matched || w.Action.Kind != sql.MergeInsert {
				continue
			}
			if w.AndCond != nil {
				ct, err := ev.EvalPredicate(w.AndCond, srow)
				if err != nil {
					return affected, err
				}
				if ct != value.True {
					continue
				}
			}
			vals := make([]value.Value, len(w.Action.Values))
			for i, e := range w.Action.Values {
				v, err := ev.Eval(e, srow)
				if err != nil {
					return affected, err
				}
				vals[i] = v
			}
			full, err := buildFullRow(targetDS.Schema(), w.Action.Columns, vals)
			if err != nil {
				return affected, err
			}
			if err := targetDS.AppendRow(full); err != nil {
				return affected, err
			}
			txn.Record(txnlog.UndoFunc(func() error { _, e := targetDS.DeleteRow(targetDS.RowCount() - 1); return e }))
			affected++
			break
		}
	}

	return affected, nil
}
