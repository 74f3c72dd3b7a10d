package storage

import "errors"

// Query-family errors (§ "two error families"): surfaced to a caller as
// ordinary values via fmt.Errorf/%w, never wrapped with a stack trace,
// since these represent expected, recoverable conditions a client query
// can legitimately hit.

// ErrDuplicateKey reports an INSERT whose primary key already exists.
var ErrDuplicateKey = errors.New("storage: duplicate primary key")

// ErrNoSuchKey reports an UPDATE/DELETE whose target row does not exist.
var ErrNoSuchKey = errors.New("storage: no row with that key")

// ErrEndOfCursor reports Current() called on a cursor with no row
// positioned (before the first Next(), or past the last row).
var ErrEndOfCursor = errors.New("storage: cursor has no current row")

// ErrNoSuchTable reports a catalog lookup miss.
var ErrNoSuchTable = errors.New("storage: no such table")

// ErrTableExists reports CREATE TABLE for a name already in the catalog.
var ErrTableExists = errors.New("storage: table already exists")
