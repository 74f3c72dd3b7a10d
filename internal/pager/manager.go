package pager

import "errors"

// FrameManager (C7) composes the disk manager, page cache and free list:
// the single entry point the B+-tree and cursor layers use to pin,
// allocate, deallocate and flush pages. Grounded on the teacher's Pager
// (internal/storage/pager/pager.go), which plays the same composing role
// over its own disk/cache/free-list trio.
type FrameManager struct {
	disk  *DiskManager
	cache *Cache
	free  *FreeList
}

// NewFrameManager composes an already-open disk manager, a cache sized per
// cfg, and a free list rooted at firstFreeListBlock (NoPage if empty).
func NewFrameManager(disk *DiskManager, cfg CacheConfig, firstFreeListBlock PageID) *FrameManager {
	return &FrameManager{
		disk:  disk,
		cache: NewCache(disk, cfg),
		free:  NewFreeList(firstFreeListBlock),
	}
}

// Pin delegates to the cache.
func (m *FrameManager) Pin(pid PageID) (*Frame, error) { return m.cache.Pin(pid) }

// Allocate returns a pinned, zero-filled frame for a brand new page: popped
// from the free list if one is available, else a fresh page appended to the
// disk file (§4.6).
func (m *FrameManager) Allocate() (*Frame, error) {
	pid, err := m.free.Pop(m.cache)
	if err == nil {
		fr, perr := m.cache.Pin(pid)
		if perr != nil {
			return nil, perr
		}
		for i := range fr.Data() {
			fr.Data()[i] = 0
		}
		fr.Touch()
		return fr, nil
	}
	var flEmpty *FreeListEmptyError
	if !errors.As(err, &flEmpty) {
		return nil, err
	}
	newPid, err := m.disk.Extend()
	if err != nil {
		return nil, err
	}
	return m.cache.Pin(newPid)
}

// Deallocate pushes pid onto the free list. The caller is responsible for
// having already marked pid's frame deleted (via Frame.MarkDeleted, while
// that frame handle was still open) if it held dirty, now-obsolete bytes
// (§4.6).
func (m *FrameManager) Deallocate(pid PageID) error {
	return m.free.Push(m.cache, pid)
}

// FlushAll writes every dirty frame to disk.
func (m *FrameManager) FlushAll() error { return m.cache.FlushAll() }

// PageCount reports the number of pages currently backed by the file.
func (m *FrameManager) PageCount() uint32 { return m.disk.PageCount() }

// PageSize reports the fixed page size for this file.
func (m *FrameManager) PageSize() int { return m.disk.PageSize() }

// FirstFreeListBlock reports the current free-list chain head, for
// persisting into the database header on close.
func (m *FrameManager) FirstFreeListBlock() PageID { return m.free.Head() }

// Sync flushes OS-level buffers for the underlying file.
func (m *FrameManager) Sync() error { return m.disk.Sync() }

// Close closes the underlying disk file. Callers must FlushAll first.
func (m *FrameManager) Close() error { return m.disk.Close() }
