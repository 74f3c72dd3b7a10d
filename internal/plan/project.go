package plan

import "github.com/brindledb/brindle/internal/storage"

// Project re-wraps each tuple the child produces under a narrower,
// recomputed-offset schema (§4.11), for a SELECT with an explicit column
// list. Reading by name off the child's view and re-serializing keeps
// Project correct regardless of how the underlying row's bytes are laid
// out — it never reinterprets child bytes under the projected offsets.
type Project struct {
	child  Iterator
	schema *storage.Schema
	count  int
}

// NewProject wraps child, re-shaping each row to schema.
func NewProject(child Iterator, schema *storage.Schema) *Project {
	return &Project{child: child, schema: schema}
}

func (p *Project) Next() (bool, error) {
	ok, err := p.child.Next()
	if err != nil || !ok {
		return false, err
	}
	p.count++
	return true, nil
}

func (p *Project) Current() (storage.RowView, error) {
	childView, err := p.child.Current()
	if err != nil {
		return storage.RowView{}, err
	}
	values := make([]storage.Value, len(p.schema.Columns))
	for i, c := range p.schema.Columns {
		v, err := childView.FieldByName(c.Name)
		if err != nil {
			return storage.RowView{}, err
		}
		values[i] = v
	}
	row, err := storage.NewRow(p.schema, values)
	if err != nil {
		return storage.RowView{}, err
	}
	buf, err := row.Serialize()
	if err != nil {
		return storage.RowView{}, err
	}
	return storage.WrapRowView(p.schema, buf), nil
}

func (p *Project) Count() int { return p.count }
