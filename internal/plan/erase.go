package plan

import "github.com/brindledb/brindle/internal/storage"

// Erase pulls each row from child and invokes cursor-erase; child must
// have been built atop the same cursor (a bare scan or a Filter over one),
// so erasing the cursor's current position removes exactly the row child
// just produced and leaves the cursor correctly re-seeked for the next
// pull (§4.11 "the cursor is shared with the underlying scan").
type Erase struct {
	child  Iterator
	cursor *storage.Cursor
	schema *storage.Schema
	count  int
	last   *storage.Row
}

// NewErase builds an Erase iterator removing each of child's rows via
// cursor.
func NewErase(child Iterator, cursor *storage.Cursor, schema *storage.Schema) *Erase {
	return &Erase{child: child, cursor: cursor, schema: schema}
}

func (e *Erase) Next() (bool, error) {
	ok, err := e.child.Next()
	if err != nil || !ok {
		return false, err
	}
	view, err := e.child.Current()
	if err != nil {
		return false, err
	}
	row, err := view.Materialize()
	if err != nil {
		return false, err
	}
	if err := e.cursor.Erase(); err != nil {
		return false, err
	}
	e.last = row
	e.count++
	return true, nil
}

func (e *Erase) Current() (storage.RowView, error) {
	if e.last == nil {
		return storage.RowView{}, storage.ErrEndOfCursor
	}
	buf, err := e.last.Serialize()
	if err != nil {
		return storage.RowView{}, err
	}
	return storage.WrapRowView(e.schema, buf), nil
}

func (e *Erase) Count() int { return e.count }
