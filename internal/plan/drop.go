package plan

import (
	"fmt"

	"github.com/brindledb/brindle/internal/storage"
)

// Drop is symmetric with Create: removes a table from the catalog on its
// first Next call (§4.11).
type Drop struct {
	db    *storage.Database
	name  string
	fired bool
	count int
}

// NewDrop builds a Drop iterator for DROP TABLE name.
func NewDrop(db *storage.Database, name string) *Drop {
	return &Drop{db: db, name: name}
}

func (d *Drop) Next() (bool, error) {
	if d.fired {
		return false, nil
	}
	d.fired = true
	if err := d.db.DropTable(d.name); err != nil {
		return false, err
	}
	d.count = 1
	return true, nil
}

func (d *Drop) Current() (storage.RowView, error) {
	return storage.RowView{}, fmt.Errorf("plan: Drop has no current row")
}

func (d *Drop) Count() int { return d.count }
