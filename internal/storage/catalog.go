package storage

import (
	"sort"

	"github.com/brindledb/brindle/internal/pager"
	"github.com/samber/lo"
)

// Table is one catalog entry: a user (or master) table's schema plus its
// open B+-tree and the state persisted into the master table's own row
// for it (§4.13, §4.14).
type Table struct {
	Name      string
	SQL       string // the original CREATE TABLE statement, verbatim
	Schema    *Schema
	Tree      *pager.BTree
	NextRowID int32 // only meaningful for tables with no explicit PRIMARY KEY
}

// Catalog (C14) is the in-memory directory of open tables, keyed by name.
// Grounded on the teacher's Catalog (internal/storage/catalog.go), pared
// down to what this spec's single-writer, single-database process needs:
// no locking, since brindle (C15) serializes all access through one
// process-wide registry entry per open database.
type Catalog struct {
	tables map[string]*Table
}

// NewCatalog builds an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Get looks up a table by name.
func (c *Catalog) Get(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Put registers or replaces a table entry.
func (c *Catalog) Put(t *Table) { c.tables[t.Name] = t }

// Remove drops a table entry.
func (c *Catalog) Remove(name string) { delete(c.tables, name) }

// Names returns every registered table name, sorted, for listing commands
// and master-table bootstrap diagnostics.
func (c *Catalog) Names() []string {
	names := lo.Keys(c.tables)
	sort.Strings(names)
	return names
}

// UserTables returns every table except the master table itself, the set
// Database.Close() must persist a master-table row update for.
func (c *Catalog) UserTables() []*Table {
	return lo.Filter(lo.Values(c.tables), func(t *Table, _ int) bool {
		return t.Name != MasterTableName
	})
}
