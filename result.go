package brindle

import (
	"github.com/brindledb/brindle/internal/plan"
	"github.com/brindledb/brindle/internal/storage"
)

// Result is the query result-set wrapper returned by Query (§4.14 "wrap
// the plan in a result-set object that exposes iteration and row
// materialization"). It is a thin pull-through over the underlying plan
// iterator; callers drive it with Next/Row exactly like the iterators
// underneath drive their cursors.
type Result struct {
	it     plan.Iterator
	schema *storage.Schema
}

func newResult(it plan.Iterator, schema *storage.Schema) *Result {
	return &Result{it: it, schema: schema}
}

// Schema is the result set's column layout: the table's full schema for
// `SELECT *`, or the narrower projected schema for an explicit column
// list.
func (r *Result) Schema() *storage.Schema { return r.schema }

// Next advances to the next row, returning false once exhausted.
func (r *Result) Next() (bool, error) { return r.it.Next() }

// Row materializes the current row into an owning, detached copy (safe
// to retain past the next Next() call, unlike the view returned by the
// plan iterator directly — see §5 "Discipline for borrowing into pages").
func (r *Result) Row() (*storage.Row, error) {
	view, err := r.it.Current()
	if err != nil {
		return nil, err
	}
	return view.Materialize()
}

// Count returns the number of rows Next has successfully produced so far.
func (r *Result) Count() int { return r.it.Count() }
