package pager

// Frame (C5) is a scoped reference to one pinned page. Unlike the source's
// RAII handle (original_source/src/frame_manager/cache/frame_view.hpp),
// Go has no destructors, so the pin is released deterministically by an
// explicit Close call instead of going out of scope; callers are expected
// to `defer fr.Close()` immediately after a successful Pin, the idiomatic
// Go analogue of a scope-bounded RAII handle.
type Frame struct {
	cache   *Cache
	f       *frame
	dirty   bool
	deleted bool
}

// PageID returns the id of the pinned page.
func (fr *Frame) PageID() PageID { return fr.f.id }

// PageSize returns the page's fixed byte width.
func (fr *Frame) PageSize() int { return len(fr.f.buf) }

// Data exposes the raw page bytes for callers (node façades) that need to
// slice into the buffer directly rather than go through the byte-codec
// helpers one field at a time.
func (fr *Frame) Data() []byte { return fr.f.buf }

// ViewUint8/ViewUint16/ViewUint32/ViewUint64/ViewFloat64/ViewBytes read a
// typed value at offset, delegating to the byte codec (C1).
func (fr *Frame) ViewUint8(offset int) (uint8, error)  { return ViewUint8(fr.f.buf, offset) }
func (fr *Frame) ViewUint16(offset int) (uint16, error) { return ViewUint16(fr.f.buf, offset) }
func (fr *Frame) ViewUint32(offset int) (uint32, error) { return ViewUint32(fr.f.buf, offset) }
func (fr *Frame) ViewInt32(offset int) (int32, error)   { return ViewInt32(fr.f.buf, offset) }
func (fr *Frame) ViewUint64(offset int) (uint64, error) { return ViewUint64(fr.f.buf, offset) }
func (fr *Frame) ViewFloat64(offset int) (float64, error) {
	return ViewFloat64(fr.f.buf, offset)
}
func (fr *Frame) ViewBytes(offset, size int) ([]byte, error) {
	return ViewBytes(fr.f.buf, offset, size)
}

// WriteUint8/... write a typed value at offset and mark the frame dirty.
func (fr *Frame) WriteUint8(offset int, v uint8) error {
	fr.dirty = true
	return WriteUint8(fr.f.buf, offset, v)
}
func (fr *Frame) WriteUint16(offset int, v uint16) error {
	fr.dirty = true
	return WriteUint16(fr.f.buf, offset, v)
}
func (fr *Frame) WriteUint32(offset int, v uint32) error {
	fr.dirty = true
	return WriteUint32(fr.f.buf, offset, v)
}
func (fr *Frame) WriteInt32(offset int, v int32) error {
	fr.dirty = true
	return WriteInt32(fr.f.buf, offset, v)
}
func (fr *Frame) WriteUint64(offset int, v uint64) error {
	fr.dirty = true
	return WriteUint64(fr.f.buf, offset, v)
}
func (fr *Frame) WriteFloat64(offset int, v float64) error {
	fr.dirty = true
	return WriteFloat64(fr.f.buf, offset, v)
}
func (fr *Frame) WriteBytes(offset int, src []byte) error {
	fr.dirty = true
	return WriteBytes(fr.f.buf, offset, src)
}

// Touch marks the frame dirty without going through a byte-codec write,
// used by the B+-tree node layer (C8) when it memmoves whole runs of slots
// directly against the backing buffer (shift/transfer) rather than one
// field at a time.
func (fr *Frame) Touch() { fr.dirty = true }

// MarkDeleted flags the page as logically deleted: eviction and flush must
// not write it back, since its bytes are about to be repurposed (pushed to
// the free list, or reused as a new node/free-list-block header).
func (fr *Frame) MarkDeleted() { fr.deleted = true }

// Close unpins the frame, merging the handle's accumulated dirtiness into
// the cache-resident frame — unless MarkDeleted was called, in which case
// the frame is dropped from the cache without being queued for a write-back.
func (fr *Frame) Close() error {
	if fr.deleted {
		fr.cache.forget(fr.f)
		return nil
	}
	return fr.cache.unpin(fr.f, fr.dirty)
}
