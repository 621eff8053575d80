package catalog

import (
	"testing"

	"github.com/vegasq/memsql/storage"
	"github.com/vegasq/memsql/value"
)

func schemaFor(t *testing.T, cols ...string) *storage.Schema {
	t.Helper()
	var defs []storage.ColumnDef
	for _, c := range cols {
		defs = append(defs, storage.NewColumnDef(c, value.Int64, true))
	}
	s, err := storage.NewSchema(defs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCatalog_CreateAndGetTable(t *testing.T) {
	c := New()
	s := schemaFor(t, "a")
	if _, err := c.CreateTable("Users", s, false); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetTable("users"); err != nil {
		t.Errorf("case-insensitive lookup failed: %v", err)
	}
	if _, err := c.CreateTable("USERS", s, false); err == nil {
		t.Error("expected ErrExists on duplicate create")
	}
	if _, err := c.CreateTable("USERS", s, true); err != nil {
		t.Errorf("IF NOT EXISTS should not error: %v", err)
	}
}

func TestCatalog_DropTable(t *testing.T) {
	c := New()
	s := schemaFor(t, "a")
	c.CreateTable("t", s, false)
	if err := c.DropTable("T", false); err != nil {
		t.Fatal(err)
	}
	if c.TableExists("t") {
		t.Error("table should be gone")
	}
	if err := c.DropTable("t", false); err == nil {
		t.Error("expected ErrNotFound")
	}
	if err := c.DropTable("t", true); err != nil {
		t.Errorf("IF EXISTS should not error: %v", err)
	}
}

func TestCatalog_ViewsAndTablesDistinctNamespaceKind(t *testing.T) {
	c := New()
	s := schemaFor(t, "a")
	c.CreateTable("t", s, false)
	if err := c.CreateView("t", &ViewDef{}, false, false); err == nil {
		t.Error("expected ErrWrongKind creating view over existing table")
	}
	if err := c.CreateView("v", &ViewDef{}, false, false); err != nil {
		t.Fatal(err)
	}
	if err := c.CreateView("v", &ViewDef{}, false, false); err == nil {
		t.Error("expected ErrExists on duplicate view")
	}
	if err := c.CreateView("v", &ViewDef{}, true, false); err != nil {
		t.Errorf("OR REPLACE should succeed: %v", err)
	}
}

func TestCatalog_DisplayNamePreservesCase(t *testing.T) {
	c := New()
	s := schemaFor(t, "a")
	c.CreateTable("MyTable", s, false)
	if got := c.DisplayName("mytable"); got != "MyTable" {
		t.Errorf("DisplayName = %q, want MyTable", got)
	}
	names := c.TableNames()
	if len(names) != 1 || names[0] != "MyTable" {
		t.Errorf("TableNames = %v", names)
	}
}

func TestCatalog_RenameTable(t *testing.T) {
	c := New()
	s := schemaFor(t, "a")
	c.CreateTable("old", s, false)
	if err := c.RenameTable("old", "new"); err != nil {
		t.Fatal(err)
	}
	if c.TableExists("old") {
		t.Error("old name should no longer exist")
	}
	if !c.TableExists("new") {
		t.Error("new name should exist")
	}
}
