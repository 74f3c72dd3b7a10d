package pager

import (
	"path/filepath"
	"testing"
)

func openTestCache(t *testing.T, capacity int, pageCount uint32) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, pageCount)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return NewCache(dm, CacheConfig{Capacity: capacity})
}

func TestCacheDefaultsCapacityWhenUnset(t *testing.T) {
	c := openTestCache(t, 0, 1)
	if c.Capacity() != DefaultCacheCapacity {
		t.Fatalf("Capacity: got %d, want %d", c.Capacity(), DefaultCacheCapacity)
	}
}

func TestPinTwiceReturnsSameDataWithoutExtraDiskRead(t *testing.T) {
	c := openTestCache(t, 4, 2)
	fr1, err := c.Pin(0)
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	fr1.Touch()
	copy(fr1.Data(), "marker")
	if err := fr1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fr2, err := c.Pin(0)
	if err != nil {
		t.Fatalf("second Pin: %v", err)
	}
	defer fr2.Close()
	if string(fr2.Data()[:6]) != "marker" {
		t.Fatalf("expected the second pin to see the first pin's in-memory write, got %q", fr2.Data()[:6])
	}
}

func TestEvictionFlushesDirtyVictim(t *testing.T) {
	c := openTestCache(t, 1, 2)
	fr0, err := c.Pin(0)
	if err != nil {
		t.Fatalf("Pin(0): %v", err)
	}
	copy(fr0.Data(), "dirty-page-zero")
	fr0.Touch()
	if err := fr0.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Pinning page 1 with capacity 1 forces page 0 to be evicted and, since
	// it was dirty, flushed to disk first.
	fr1, err := c.Pin(1)
	if err != nil {
		t.Fatalf("Pin(1): %v", err)
	}
	if err := fr1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fr0Again, err := c.Pin(0)
	if err != nil {
		t.Fatalf("re-Pin(0): %v", err)
	}
	defer fr0Again.Close()
	if string(fr0Again.Data()[:15]) != "dirty-page-zero" {
		t.Fatalf("expected the evicted dirty page to have been flushed and reread, got %q", fr0Again.Data()[:15])
	}
}

func TestCacheCapacityErrorWhenEverythingPinned(t *testing.T) {
	c := openTestCache(t, 1, 2)
	fr0, err := c.Pin(0)
	if err != nil {
		t.Fatalf("Pin(0): %v", err)
	}
	defer fr0.Close()

	if _, err := c.Pin(1); err == nil {
		t.Fatal("expected Pin to fail when the cache is full and the only resident frame is still pinned")
	}
}

func TestUnpinOfNotPinnedFrameFails(t *testing.T) {
	c := openTestCache(t, 1, 1)
	fr, err := c.Pin(0)
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if err := fr.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := fr.Close(); err == nil {
		t.Fatal("expected closing an already-unpinned Frame handle to fail")
	}
}

func TestMarkDeletedFrameIsNotFlushedOnEviction(t *testing.T) {
	c := openTestCache(t, 1, 2)
	fr0, err := c.Pin(0)
	if err != nil {
		t.Fatalf("Pin(0): %v", err)
	}
	copy(fr0.Data(), "should-not-persist")
	fr0.Touch()
	fr0.MarkDeleted()
	if err := fr0.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fr1, err := c.Pin(1)
	if err != nil {
		t.Fatalf("Pin(1): %v", err)
	}
	if err := fr1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fr0Again, err := c.Pin(0)
	if err != nil {
		t.Fatalf("re-Pin(0): %v", err)
	}
	defer fr0Again.Close()
	for i, b := range fr0Again.Data()[:18] {
		if b != 0 {
			t.Fatalf("expected a MarkDeleted frame to never be written back, found stale byte %d at %d", b, i)
		}
	}
}
