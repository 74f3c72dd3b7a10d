package plan

import "github.com/brindledb/brindle/internal/storage"

// IndexScan walks a primary-key range [lb, ub] (either bound optional,
// each independently inclusive or exclusive), pushed down by the plan
// builder from an equality or range predicate on the primary column
// (§4.11, §4.12). Grounded on the teacher's range-scan cursor usage in
// internal/storage/pager/cursor.go.
type IndexScan struct {
	cursor  *storage.Cursor
	schema  *storage.Schema
	lb      *storage.Value
	inclLB  bool
	ub      *storage.Value
	inclUB  bool
	started bool
	done    bool
	count   int
}

// NewIndexScan builds a bounded scan. lb/ub may be nil for an open bound.
func NewIndexScan(cursor *storage.Cursor, schema *storage.Schema, lb *storage.Value, inclLB bool, ub *storage.Value, inclUB bool) *IndexScan {
	return &IndexScan{cursor: cursor, schema: schema, lb: lb, inclLB: inclLB, ub: ub, inclUB: inclUB}
}

func (s *IndexScan) Next() (bool, error) {
	if s.done {
		return false, nil
	}
	if !s.started {
		s.started = true
		if s.lb != nil {
			key, err := s.schema.ValueToKey(*s.lb)
			if err != nil {
				return false, err
			}
			s.cursor.Open(key)
		} else {
			s.cursor.OpenMin()
		}
	}
	for {
		ok, err := s.cursor.Next()
		if err != nil {
			return false, err
		}
		if !ok {
			s.done = true
			return false, nil
		}
		view, err := s.cursor.Current()
		if err != nil {
			return false, err
		}
		pk, err := view.Primary()
		if err != nil {
			return false, err
		}
		if s.lb != nil && !s.inclLB && pk.Equal(*s.lb) {
			continue // skip the first tuple past a non-inclusive lower bound
		}
		if s.ub != nil {
			if s.inclUB {
				if (*s.ub).Less(pk) {
					s.done = true
					return false, nil
				}
			} else if !pk.Less(*s.ub) {
				s.done = true
				return false, nil
			}
		}
		s.count++
		return true, nil
	}
}

func (s *IndexScan) Current() (storage.RowView, error) { return s.cursor.Current() }
func (s *IndexScan) Count() int                         { return s.count }
