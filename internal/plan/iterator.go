// Package plan implements the pull-based (Volcano-style) query execution
// iterators and the builder that lowers a validated query into a tree of
// them (§4.11, §4.12).
package plan

import "github.com/brindledb/brindle/internal/storage"

// Iterator is the pull contract every plan node implements: advance,
// fetch the current tuple, and report how many tuples have been produced
// so far (the user-visible affected-row count for DML statements).
type Iterator interface {
	Next() (bool, error)
	Current() (storage.RowView, error)
	Count() int
}

// Drain pulls next() until it returns false, for exec()'s "run to
// completion, discard rows, report the count" contract (§4.14).
func Drain(it Iterator) (int, error) {
	for {
		ok, err := it.Next()
		if err != nil {
			return it.Count(), err
		}
		if !ok {
			return it.Count(), nil
		}
	}
}
