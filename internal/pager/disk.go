package pager

import (
	"os"
)

// PageID identifies a page within one database file. NoPage is the sentinel
// "none" value (the maximum of the type), matching §3's "sentinel is the
// maximum value of that type".
type PageID uint32

// NoPage is the sentinel meaning "no page" wherever a PageID field may be
// absent (an empty free list, a root-less parent, an absent next_leaf, …).
const NoPage PageID = ^PageID(0)

// DefaultPageSize is the reference page size named in §6 ("compile-time
// constants: page size = 4096").
const DefaultPageSize = 4096

// DiskManager (C3) wraps a random-access file opened for read/write. It
// holds base_offset, page_size and page_count and enforces that every I/O
// stays within [0, page_count).
//
// Grounded on the teacher's internal/storage/pager.Pager file-handling
// half (internal/storage/pager/pager.go), stripped of WAL/checkpoint/LSN
// bookkeeping which this spec explicitly excludes (no crash-atomic
// durability, §1).
type DiskManager struct {
	file       *os.File
	baseOffset int64
	pageSize   int
	pageCount  uint32
}

// OpenDiskManager opens (or creates) path and validates that its length
// equals baseOffset + pageSize*pageCount; pageCount is derived from the
// actual file length when the file pre-exists, so callers pass the
// pageCount they expect to find for fresh-file creation only.
func OpenDiskManager(path string, baseOffset int64, pageSize int, expectedIfNew uint32) (*DiskManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	dm := &DiskManager{file: f, baseOffset: baseOffset, pageSize: pageSize}

	if info.Size() == 0 {
		dm.pageCount = expectedIfNew
		want := baseOffset + int64(pageSize)*int64(expectedIfNew)
		if want > 0 {
			if err := f.Truncate(want); err != nil {
				f.Close()
				return nil, err
			}
		}
		return dm, nil
	}

	remaining := info.Size() - baseOffset
	if remaining < 0 || remaining%int64(pageSize) != 0 {
		f.Close()
		nearest := baseOffset + (remaining/int64(pageSize))*int64(pageSize)
		return nil, newDiskError(nearest, info.Size())
	}
	dm.pageCount = uint32(remaining / int64(pageSize))
	return dm, nil
}

// PageCount returns the number of pages currently backed by the file.
func (d *DiskManager) PageCount() uint32 { return d.pageCount }

// PageSize returns the fixed page size for this file.
func (d *DiskManager) PageSize() int { return d.pageSize }

func (d *DiskManager) offsetOf(pid PageID) int64 {
	return d.baseOffset + int64(pid)*int64(d.pageSize)
}

// Read fills dst (len(dst) must equal page_size) with page pid's bytes.
func (d *DiskManager) Read(pid PageID, dst []byte) error {
	if uint32(pid) >= d.pageCount {
		return newDiskError(int64(d.pageCount), int64(pid)+1)
	}
	_, err := d.file.ReadAt(dst, d.offsetOf(pid))
	return err
}

// Write persists src (len(src) must equal page_size) as page pid's bytes.
func (d *DiskManager) Write(pid PageID, src []byte) error {
	if uint32(pid) >= d.pageCount {
		return newDiskError(int64(d.pageCount), int64(pid)+1)
	}
	_, err := d.file.WriteAt(src, d.offsetOf(pid))
	return err
}

// Extend appends one zero-filled page and returns its id.
func (d *DiskManager) Extend() (PageID, error) {
	pid := PageID(d.pageCount)
	zero := make([]byte, d.pageSize)
	if _, err := d.file.WriteAt(zero, d.offsetOf(pid)); err != nil {
		return 0, err
	}
	d.pageCount++
	return pid, nil
}

// Sync flushes OS buffers for the underlying file.
func (d *DiskManager) Sync() error { return d.file.Sync() }

// Close closes the underlying file.
func (d *DiskManager) Close() error { return d.file.Close() }
