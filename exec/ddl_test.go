package exec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vegasq/memsql/catalog"
	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/txnlog"
	"github.com/vegasq/memsql/value"
)

func mustParse(t *testing.T, text string) sql.Statement {
	t.Helper()
	stmt, err := sql.Parse(text)
	require.NoError(t, err)
	return stmt
}

func TestExecCreateTableAndInsert(t *testing.T) {
	cat := catalog.New()
	txn := txnlog.NewManager()
	ev := NewEvaluator(cat)

	create := mustParse(t, `CREATE TABLE widgets (id INTEGER NOT NULL, name VARCHAR DEFAULT 'unnamed')`).(*sql.CreateTableStmt)
	require.NoError(t, ExecCreateTable(ev, txn, create))

	ds, err := cat.GetTable("widgets")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "name"}, ds.Schema().Names())

	insert := mustParse(t, `INSERT INTO widgets (id) VALUES (1)`).(*sql.InsertStmt)
	n, err := ExecInsert(ev, txn, insert)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	row := ds.GetRow(0)
	require.Equal(t, value.NewInt(1), row[0])
	require.Equal(t, value.NewString("unnamed"), row[1])
}

func TestExecCreateTableAsSelect(t *testing.T) {
	cat := catalog.New()
	txn := txnlog.NewManager()
	ev := NewEvaluator(cat)

	require.NoError(t, ExecCreateTable(ev, txn, mustParse(t, `CREATE TABLE src (id INTEGER, label VARCHAR)`).(*sql.CreateTableStmt)))
	_, err := ExecInsert(ev, txn, mustParse(t, `INSERT INTO src (id, label) VALUES (1, 'a')`).(*sql.InsertStmt))
	require.NoError(t, err)

	cta := mustParse(t, `CREATE TABLE copy AS SELECT id, label FROM src`).(*sql.CreateTableStmt)
	require.NoError(t, ExecCreateTable(ev, txn, cta))

	ds, err := cat.GetTable("copy")
	require.NoError(t, err)
	require.Equal(t, 1, ds.RowCount())
	require.Equal(t, value.NewInt(1), ds.GetRow(0)[0])
}

func TestExecAlterTableAddDropRenameColumn(t *testing.T) {
	cat := catalog.New()
	txn := txnlog.NewManager()
	ev := NewEvaluator(cat)

	require.NoError(t, ExecCreateTable(ev, txn, mustParse(t, `CREATE TABLE t (id INTEGER)`).(*sql.CreateTableStmt)))
	_, err := ExecInsert(ev, txn, mustParse(t, `INSERT INTO t (id) VALUES (1)`).(*sql.InsertStmt))
	require.NoError(t, err)

	require.NoError(t, ExecAlterTable(ev, txn, mustParse(t, `ALTER TABLE t ADD COLUMN label VARCHAR`).(*sql.AlterTableStmt)))
	ds, err := cat.GetTable("t")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "label"}, ds.Schema().Names())

	require.NoError(t, ExecAlterTable(ev, txn, mustParse(t, `ALTER TABLE t RENAME COLUMN label TO tag`).(*sql.AlterTableStmt)))
	require.Equal(t, []string{"id", "tag"}, ds.Schema().Names())

	require.NoError(t, ExecAlterTable(ev, txn, mustParse(t, `ALTER TABLE t DROP COLUMN tag`).(*sql.AlterTableStmt)))
	require.Equal(t, []string{"id"}, ds.Schema().Names())

	require.NoError(t, ExecAlterTable(ev, txn, mustParse(t, `ALTER TABLE t RENAME TO renamed`).(*sql.AlterTableStmt)))
	require.True(t, cat.TableExists("renamed"))
	require.False(t, cat.TableExists("t"))
}

func TestExecDropTableUndo(t *testing.T) {
	cat := catalog.New()
	txn := txnlog.NewManager()
	ev := NewEvaluator(cat)

	require.NoError(t, ExecCreateTable(ev, txn, mustParse(t, `CREATE TABLE t (id INTEGER)`).(*sql.CreateTableStmt)))
	_, err := ExecInsert(ev, txn, mustParse(t, `INSERT INTO t (id) VALUES (1)`).(*sql.InsertStmt))
	require.NoError(t, err)

	require.NoError(t, txn.Begin())
	require.NoError(t, ExecDropTable(ev, txn, mustParse(t, `DROP TABLE t`).(*sql.DropTableStmt)))
	require.False(t, cat.TableExists("t"))
	require.NoError(t, txn.Rollback())

	require.True(t, cat.TableExists("t"))
	ds, err := cat.GetTable("t")
	require.NoError(t, err)
	require.Equal(t, 1, ds.RowCount())
}

func TestExecCheckConstraintRejectsViolation(t *testing.T) {
	cat := catalog.New()
	txn := txnlog.NewManager()
	ev := NewEvaluator(cat)

	require.NoError(t, ExecCreateTable(ev, txn, mustParse(t, `CREATE TABLE t (qty INTEGER CHECK (qty > 0))`).(*sql.CreateTableStmt)))

	_, err := ExecInsert(ev, txn, mustParse(t, `INSERT INTO t (qty) VALUES (5)`).(*sql.InsertStmt))
	require.NoError(t, err)

	_, err = ExecInsert(ev, txn, mustParse(t, `INSERT INTO t (qty) VALUES (-1)`).(*sql.InsertStmt))
	require.Error(t, err)
}
