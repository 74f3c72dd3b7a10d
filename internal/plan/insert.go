package plan

import "github.com/brindledb/brindle/internal/storage"

// Insert pulls each row from child (typically a Values iterator) and
// delegates to the cursor's duplicate-checked insert (§4.11 "for each
// child row: seek the cursor to the row's primary key, invoke
// cursor-insert").
type Insert struct {
	child  Iterator
	cursor *storage.Cursor
	schema *storage.Schema
	count  int
	last   *storage.Row
}

// NewInsert builds an Insert iterator writing child's rows through cursor.
func NewInsert(child Iterator, cursor *storage.Cursor, schema *storage.Schema) *Insert {
	return &Insert{child: child, cursor: cursor, schema: schema}
}

func (ins *Insert) Next() (bool, error) {
	ok, err := ins.child.Next()
	if err != nil || !ok {
		return false, err
	}
	view, err := ins.child.Current()
	if err != nil {
		return false, err
	}
	row, err := view.Materialize()
	if err != nil {
		return false, err
	}
	if err := ins.cursor.Insert(row); err != nil {
		return false, err
	}
	ins.last = row
	ins.count++
	return true, nil
}

func (ins *Insert) Current() (storage.RowView, error) {
	if ins.last == nil {
		return storage.RowView{}, storage.ErrEndOfCursor
	}
	buf, err := ins.last.Serialize()
	if err != nil {
		return storage.RowView{}, err
	}
	return storage.WrapRowView(ins.schema, buf), nil
}

func (ins *Insert) Count() int { return ins.count }
