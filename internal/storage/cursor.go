package storage

import "github.com/brindledb/brindle/internal/pager"

// Cursor (C11) is the single mechanism the plan package's scan, insert,
// update and delete iterators all build on: a schema-aware walk over one
// B+-tree's leaves, in ascending primary-key order starting from an
// origin key (§4.10, §4.11). It owns at most one pinned leaf frame at a
// time, closing the previous leaf before pinning the next as iteration
// crosses a leaf boundary — the discipline the frame/cache layer requires
// (§5 "Discipline for borrowing into pages").
//
// Grounded on the teacher's Pager-backed table iterator shape
// (internal/storage/pager/cursor.go), reworked to the single-origin-key
// reseek-after-mutation contract §4.10/§4.11 actually specify.
type Cursor struct {
	tree   *pager.BTree
	schema *Schema

	origin Key
	leaf   *pager.LeafNode
	slot   int
	atEnd  bool
}

// Key is a re-export so callers outside this package never need to reach
// into internal/pager directly to build one.
type Key = pager.Key

// NewCursor builds an unopened cursor over tree using schema's column
// layout to decode leaf bytes.
func NewCursor(tree *pager.BTree, schema *Schema) *Cursor {
	return &Cursor{tree: tree, schema: schema}
}

// Open (re)positions the cursor at origin: the next call to Next() will
// land on the first row with key >= origin, or report no row if none
// exists.
func (c *Cursor) Open(origin Key) {
	c.origin = origin
	c.leaf = nil
	c.atEnd = false
}

// OpenMin opens at the schema's primary-key-kind minimum, for an
// unconditioned full-table scan (§4.10 "table scan with no predicate").
func (c *Cursor) OpenMin() {
	c.Open(c.schema.KeyCodec().MinKey())
}

func (c *Cursor) closeLeaf() error {
	if c.leaf == nil {
		return nil
	}
	err := c.leaf.Close()
	c.leaf = nil
	return err
}

// Next advances to the next row in ascending key order, pinning the next
// leaf and releasing the previous one as needed. It returns false (with a
// nil error) once iteration is exhausted.
func (c *Cursor) Next() (bool, error) {
	if c.atEnd {
		return false, nil
	}
	if c.leaf == nil {
		leaf, err := c.tree.SeekLeaf(c.origin)
		if err != nil {
			return false, err
		}
		c.leaf = leaf
		c.slot = pager.SeekSlot(leaf.SlotCount(), leaf.Key, c.origin)
	} else {
		c.slot++
	}

	for c.slot >= c.leaf.SlotCount() {
		next := c.leaf.NextLeaf()
		if err := c.closeLeaf(); err != nil {
			return false, err
		}
		if next == pager.NoPage {
			c.atEnd = true
			return false, nil
		}
		leaf, err := c.tree.OpenLeaf(next)
		if err != nil {
			return false, err
		}
		c.leaf = leaf
		c.slot = 0
	}
	return true, nil
}

// Current returns the row the cursor is positioned on. The returned
// RowView is only valid until the next Next()/Erase()/Close() call.
func (c *Cursor) Current() (RowView, error) {
	if c.leaf == nil || c.atEnd {
		return RowView{}, ErrEndOfCursor
	}
	leaf := c.leaf
	slot := c.slot
	return WrapMutableRowView(c.schema, leaf.SlotView(slot), leaf.MarkDirty), nil
}

// Insert rejects row if its primary key already exists, else delegates to
// the B+-tree's leaf-insert (§4.10 "insert(row_view)"). Insert does not
// require the cursor to be Open(); it always seeks fresh to row's key.
func (c *Cursor) Insert(row *Row) error {
	if err := c.closeLeaf(); err != nil {
		return err
	}
	c.atEnd = false
	key, err := c.schema.ValueToKey(row.Primary())
	if err != nil {
		return err
	}
	exists, err := c.tree.Contains(key)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateKey
	}
	bytes, err := row.Serialize()
	if err != nil {
		return err
	}
	return c.tree.Insert(bytes)
}

// Erase removes the row the cursor is currently positioned on, then
// re-seeks to the key that was one slot to the right — peeking into the
// next leaf if the erased row was a leaf's last — so a caller driving
// Next() in a loop sees every surviving row exactly once across the
// mutation (§4.11 "stable iteration across removals").
func (c *Cursor) Erase() error {
	if c.leaf == nil || c.atEnd {
		return ErrEndOfCursor
	}

	var nextKey Key
	hasNext := false
	if c.slot+1 < c.leaf.SlotCount() {
		nextKey = c.leaf.Key(c.slot + 1)
		hasNext = true
	} else if next := c.leaf.NextLeaf(); next != pager.NoPage {
		peek, err := c.tree.OpenLeaf(next)
		if err != nil {
			return err
		}
		if peek.SlotCount() > 0 {
			nextKey = peek.Key(0)
			hasNext = true
		}
		if err := peek.Close(); err != nil {
			return err
		}
	}

	leaf, slot := c.leaf, c.slot
	c.leaf = nil
	if err := c.tree.EraseAt(leaf, slot); err != nil {
		return err
	}
	if !hasNext {
		c.atEnd = true
		return nil
	}
	c.Open(nextKey)
	return nil
}

// Close releases any pinned leaf frame without consuming the rest of the
// iteration, for callers that stop early (e.g. LIMIT, or an error
// elsewhere in the plan tree).
func (c *Cursor) Close() error { return c.closeLeaf() }
