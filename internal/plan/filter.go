package plan

import "github.com/brindledb/brindle/internal/storage"

// Filter pulls from child until the compiled predicate accepts a tuple
// (§4.11). Non-primary-column conditions, and any primary-column
// condition the builder couldn't fold into an IndexScan bound, all end up
// here.
type Filter struct {
	child Iterator
	pred  Predicate
	count int
}

// NewFilter wraps child, keeping only tuples pred accepts.
func NewFilter(child Iterator, pred Predicate) *Filter {
	return &Filter{child: child, pred: pred}
}

func (f *Filter) Next() (bool, error) {
	for {
		ok, err := f.child.Next()
		if err != nil || !ok {
			return false, err
		}
		view, err := f.child.Current()
		if err != nil {
			return false, err
		}
		accept, err := f.pred(view)
		if err != nil {
			return false, err
		}
		if accept {
			f.count++
			return true, nil
		}
	}
}

func (f *Filter) Current() (storage.RowView, error) { return f.child.Current() }
func (f *Filter) Count() int                         { return f.count }
