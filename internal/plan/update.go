package plan

import "github.com/brindledb/brindle/internal/storage"

// Update pulls each row from child (a scan, possibly filtered) and applies
// a compiled modifier in place on the current leaf slot (§4.11). child
// must share its cursor with whatever scan produced it, so mutating the
// slot in place is safe (the same leaf frame is still pinned).
type Update struct {
	child    Iterator
	modifier Modifier
	schema   *storage.Schema
	count    int
	last     *storage.Row
}

// NewUpdate builds an Update iterator applying modifier to each of
// child's rows.
func NewUpdate(child Iterator, modifier Modifier, schema *storage.Schema) *Update {
	return &Update{child: child, modifier: modifier, schema: schema}
}

func (u *Update) Next() (bool, error) {
	ok, err := u.child.Next()
	if err != nil || !ok {
		return false, err
	}
	view, err := u.child.Current()
	if err != nil {
		return false, err
	}
	if err := u.modifier(view); err != nil {
		return false, err
	}
	row, err := view.Materialize()
	if err != nil {
		return false, err
	}
	u.last = row
	u.count++
	return true, nil
}

func (u *Update) Current() (storage.RowView, error) {
	if u.last == nil {
		return storage.RowView{}, storage.ErrEndOfCursor
	}
	buf, err := u.last.Serialize()
	if err != nil {
		return storage.RowView{}, err
	}
	return storage.WrapRowView(u.schema, buf), nil
}

func (u *Update) Count() int { return u.count }
