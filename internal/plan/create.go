package plan

import (
	"fmt"

	"github.com/brindledb/brindle/internal/pager"
	"github.com/brindledb/brindle/internal/storage"
)

// Create installs a new table in the catalog on its first Next call and
// returns false thereafter; Current is undefined (§4.11).
type Create struct {
	db     *storage.Database
	name   string
	sql    string
	schema *storage.Schema
	fired  bool
	count  int
}

// NewCreate builds a Create iterator for CREATE TABLE name (schema),
// remembering the original SQL text for the master-table bookkeeping row.
func NewCreate(db *storage.Database, name, sql string, schema *storage.Schema) *Create {
	return &Create{db: db, name: name, sql: sql, schema: schema}
}

func (c *Create) Next() (bool, error) {
	if c.fired {
		return false, nil
	}
	c.fired = true
	if _, exists := c.db.Catalog().Get(c.name); exists {
		return false, storage.ErrTableExists
	}
	tree, err := pager.NewBTree(c.db.FrameManager(), c.schema.KeyCodec(), c.schema.RowSize(), pager.NoPage)
	if err != nil {
		return false, err
	}
	table := &storage.Table{Name: c.name, SQL: c.sql, Schema: c.schema, Tree: tree}
	// RegisterTable's master-table insert is the "privileged path" of §4.14:
	// it writes directly through storage, bypassing the validator's
	// master-table-reference guard entirely rather than re-entering the SQL
	// engine with the guard disabled.
	if err := c.db.RegisterTable(table, true); err != nil {
		return false, err
	}
	c.count = 1
	return true, nil
}

func (c *Create) Current() (storage.RowView, error) {
	return storage.RowView{}, fmt.Errorf("plan: Create has no current row")
}

func (c *Create) Count() int { return c.count }
