// Package catalog tracks the live set of tables and views by name (C6).
//
// Grounded on original_source/src/sql/catalog.rs's uppercase-keyed HashMap
// shape (create_table/drop_table/get_table/table_exists/table_names),
// extended with view entries (the original had none) and with
// case-preserving display names, since spec §3's catalog is
// case-insensitive for lookup but SHOW TABLES/DESCRIBE must echo back the
// name as it was created.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/storage"
)

// ViewDef is a stored view: its defining query and optional explicit
// column aliases.
type ViewDef struct {
	Query   *sql.SelectStmt
	Columns []string
}

type entryKind int

const (
	kindTable entryKind = iota
	kindView
)

type entry struct {
	kind    entryKind
	display string
	table   *storage.DataStore
	view    *ViewDef
}

// Catalog is the process-wide name registry: one DataStore or ViewDef per
// name, keyed case-insensitively.
type Catalog struct {
	entries map[string]*entry
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*entry)}
}

func key(name string) string { return strings.ToUpper(name) }

// ErrExists is returned by CreateTable/CreateView when the name is already
// registered and the statement did not specify IF NOT EXISTS / OR REPLACE.
type ErrExists struct{ Name string }

func (e *ErrExists) Error() string { return fmt.Sprintf("object %q already exists", e.Name) }

// ErrNotFound is returned when a name isn't registered.
type ErrNotFound struct{ Name string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("object %q does not exist", e.Name) }

// ErrWrongKind is returned when an operation expecting a table hits a view
// or vice versa.
type ErrWrongKind struct {
	Name string
	Want string
}

func (e *ErrWrongKind) Error() string {
	return fmt.Sprintf("%q is not a %s", e.Name, e.Want)
}

// CreateTable registers a new table. ifNotExists suppresses ErrExists and
// returns the existing table instead of replacing it.
func (c *Catalog) CreateTable(name string, schema *storage.Schema, ifNotExists bool) (*storage.DataStore, error) {
	k := key(name)
	if existing, ok := c.entries[k]; ok {
		if ifNotExists && existing.kind == kindTable {
			return existing.table, nil
		}
		return nil, &ErrExists{Name: name}
	}
	ds := storage.NewDataStore(schema)
	c.entries[k] = &entry{kind: kindTable, display: name, table: ds}
	return ds, nil
}

// DropTable removes a table. ifExists suppresses ErrNotFound.
func (c *Catalog) DropTable(name string, ifExists bool) error {
	k := key(name)
	e, ok := c.entries[k]
	if !ok {
		if ifExists {
			return nil
		}
		return &ErrNotFound{Name: name}
	}
	if e.kind != kindTable {
		return &ErrWrongKind{Name: name, Want: "table"}
	}
	delete(c.entries, k)
	return nil
}

// GetTable resolves name to its DataStore.
func (c *Catalog) GetTable(name string) (*storage.DataStore, error) {
	e, ok := c.entries[key(name)]
	if !ok {
		return nil, &ErrNotFound{Name: name}
	}
	if e.kind != kindTable {
		return nil, &ErrWrongKind{Name: name, Want: "table"}
	}
	return e.table, nil
}

// RenameTable renames a table, preserving its storage. Fails if the new
// name is already taken.
func (c *Catalog) RenameTable(oldName, newName string) error {
	oldKey := key(oldName)
	e, ok := c.entries[oldKey]
	if !ok || e.kind != kindTable {
		return &ErrNotFound{Name: oldName}
	}
	newKey := key(newName)
	if newKey != oldKey {
		if _, exists := c.entries[newKey]; exists {
			return &ErrExists{Name: newName}
		}
	}
	delete(c.entries, oldKey)
	e.display = newName
	c.entries[newKey] = e
	return nil
}

// TableExists reports whether name is a registered table.
func (c *Catalog) TableExists(name string) bool {
	e, ok := c.entries[key(name)]
	return ok && e.kind == kindTable
}

// CreateView registers a view. orReplace overwrites an existing view of the
// same name (but not a table); ifNotExists is a no-op when the name exists.
func (c *Catalog) CreateView(name string, def *ViewDef, orReplace, ifNotExists bool) error {
	k := key(name)
	if existing, ok := c.entries[k]; ok {
		if existing.kind != kindView {
			return &ErrWrongKind{Name: name, Want: "view"}
		}
		if ifNotExists {
			return nil
		}
		if !orReplace {
			return &ErrExists{Name: name}
		}
	}
	c.entries[k] = &entry{kind: kindView, display: name, view: def}
	return nil
}

// DropView removes a view. ifExists suppresses ErrNotFound.
func (c *Catalog) DropView(name string, ifExists bool) error {
	k := key(name)
	e, ok := c.entries[k]
	if !ok {
		if ifExists {
			return nil
		}
		return &ErrNotFound{Name: name}
	}
	if e.kind != kindView {
		return &ErrWrongKind{Name: name, Want: "view"}
	}
	delete(c.entries, k)
	return nil
}

// GetView resolves name to its ViewDef.
func (c *Catalog) GetView(name string) (*ViewDef, error) {
	e, ok := c.entries[key(name)]
	if !ok {
		return nil, &ErrNotFound{Name: name}
	}
	if e.kind != kindView {
		return nil, &ErrWrongKind{Name: name, Want: "view"}
	}
	return e.view, nil
}

// Resolve looks up name as either a table or a view, reporting which.
func (c *Catalog) Resolve(name string) (table *storage.DataStore, view *ViewDef, err error) {
	e, ok := c.entries[key(name)]
	if !ok {
		return nil, nil, &ErrNotFound{Name: name}
	}
	if e.kind == kindTable {
		return e.table, nil, nil
	}
	return nil, e.view, nil
}

// TableNames returns the display names of all registered tables, sorted.
func (c *Catalog) TableNames() []string {
	var out []string
	for _, e := range c.entries {
		if e.kind == kindTable {
			out = append(out, e.display)
		}
	}
	sort.Strings(out)
	return out
}

// ViewNames returns the display names of all registered views, sorted.
func (c *Catalog) ViewNames() []string {
	var out []string
	for _, e := range c.entries {
		if e.kind == kindView {
			out = append(out, e.display)
		}
	}
	sort.Strings(out)
	return out
}

// DisplayName returns the name as it was registered, or the input
// unchanged if nothing is registered under it.
func (c *Catalog) DisplayName(name string) string {
	if e, ok := c.entries[key(name)]; ok {
		return e.display
	}
	return name
}
