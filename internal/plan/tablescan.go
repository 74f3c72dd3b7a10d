package plan

import "github.com/brindledb/brindle/internal/storage"

// TableScan opens its cursor at the primary-key type's minimum and walks
// every row in the tree (§4.11). Grounded on the teacher's full-table scan
// shape (internal/storage/pager/cursor.go's unconditioned walk).
type TableScan struct {
	cursor  *storage.Cursor
	started bool
	count   int
}

// NewTableScan builds a scan over cursor (already bound to a table's
// B+-tree and schema by the caller).
func NewTableScan(cursor *storage.Cursor) *TableScan {
	return &TableScan{cursor: cursor}
}

func (s *TableScan) Next() (bool, error) {
	if !s.started {
		s.cursor.OpenMin()
		s.started = true
	}
	ok, err := s.cursor.Next()
	if err != nil {
		return false, err
	}
	if ok {
		s.count++
	}
	return ok, nil
}

func (s *TableScan) Current() (storage.RowView, error) { return s.cursor.Current() }
func (s *TableScan) Count() int                         { return s.count }
