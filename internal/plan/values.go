package plan

import "github.com/brindledb/brindle/internal/storage"

// Values yields a fixed list of pre-materialized rows one at a time,
// serialized through schema (§4.11), feeding an Insert iterator for
// INSERT statements.
type Values struct {
	rows   []*storage.Row
	schema *storage.Schema
	idx    int
	count  int
}

// NewValues builds a Values iterator over rows, all assumed to already
// match schema.
func NewValues(rows []*storage.Row, schema *storage.Schema) *Values {
	return &Values{rows: rows, schema: schema, idx: -1}
}

func (v *Values) Next() (bool, error) {
	v.idx++
	if v.idx >= len(v.rows) {
		return false, nil
	}
	v.count++
	return true, nil
}

func (v *Values) Current() (storage.RowView, error) {
	if v.idx < 0 || v.idx >= len(v.rows) {
		return storage.RowView{}, storage.ErrEndOfCursor
	}
	buf, err := v.rows[v.idx].Serialize()
	if err != nil {
		return storage.RowView{}, err
	}
	return storage.WrapRowView(v.schema, buf), nil
}

func (v *Values) Count() int { return v.count }
