package pager

import "github.com/pkg/errors"

// Engine-family failures: invariant violations that should never happen in a
// correctly-functioning process. They are wrapped with github.com/pkg/errors
// so the first frame that notices the violation captures a stack trace,
// since these are the failures an operator actually needs to debug rather
// than simply display to a user.

// ByteIOError reports an out-of-range fixed-width read/write attempt.
type ByteIOError struct {
	Action string // "read" or "write"
	Needed int
	Got    int
}

func (e *ByteIOError) Error() string {
	return errors.Errorf("byteio: %s needs %d bytes, got %d", e.Action, e.Needed, e.Got).Error()
}

func newByteIOError(action string, needed, got int) error {
	return errors.WithStack(&ByteIOError{Action: action, Needed: needed, Got: got})
}

// DiskError reports a disk-manager invariant violation: file length mismatch
// or I/O addressed beyond page_count.
type DiskError struct {
	Expected int64
	Got      int64
}

func (e *DiskError) Error() string {
	return errors.Errorf("disk: expected size %d, got %d", e.Expected, e.Got).Error()
}

func newDiskError(expected, got int64) error {
	return errors.WithStack(&DiskError{Expected: expected, Got: got})
}

// CacheCapacityError reports that every frame in the cache is pinned and a
// new page cannot be admitted.
type CacheCapacityError struct {
	Capacity int
}

func (e *CacheCapacityError) Error() string {
	return errors.Errorf("cache: all %d frames are pinned", e.Capacity).Error()
}

func newCacheCapacityError(capacity int) error {
	return errors.WithStack(&CacheCapacityError{Capacity: capacity})
}

// CacheUnpinError reports an unpin of a page that is not resident or not
// pinned.
type CacheUnpinError struct {
	PageID PageID
}

func (e *CacheUnpinError) Error() string {
	return errors.Errorf("cache: unpin of page %d which is not pinned", e.PageID).Error()
}

func newCacheUnpinError(pid PageID) error {
	return errors.WithStack(&CacheUnpinError{PageID: pid})
}

// BadMagicError reports a page whose header magic did not match what the
// caller expected to find there.
type BadMagicError struct {
	Want Magic
	Got  Magic
}

func (e *BadMagicError) Error() string {
	return errors.Errorf("pager: bad magic: want %v, got %v", e.Want, e.Got).Error()
}

func newBadMagicError(want, got Magic) error {
	return errors.WithStack(&BadMagicError{Want: want, Got: got})
}

// IncompatibleNodeError reports two nodes whose key_size/slot_size differ
// being passed to a transfer/merge operation that requires them to match.
type IncompatibleNodeError struct {
	Reason string
}

func (e *IncompatibleNodeError) Error() string {
	return errors.Errorf("pager: incompatible nodes: %s", e.Reason).Error()
}

func newIncompatibleNodeError(reason string) error {
	return errors.WithStack(&IncompatibleNodeError{Reason: reason})
}

// EndOfTreeError reports a cursor operation that required a current slot
// while positioned past the end of the tree.
type EndOfTreeError struct{}

func (e *EndOfTreeError) Error() string { return "pager: end of tree" }

func newEndOfTreeError() error {
	return errors.WithStack(&EndOfTreeError{})
}

// FreeListEmptyError reports a pop() on an empty free list; frame managers
// should treat this as "extend the disk" rather than surface it further.
type FreeListEmptyError struct{}

func (e *FreeListEmptyError) Error() string { return "pager: free list is empty" }

func newFreeListEmptyError() error {
	return errors.WithStack(&FreeListEmptyError{})
}
