package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func truncateBy(path string, shrinkBy int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Truncate(path, info.Size()-shrinkBy)
}

func TestOpenDiskManagerCreatesFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, 3)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	defer dm.Close()
	if dm.PageCount() != 3 {
		t.Fatalf("PageCount: got %d, want 3", dm.PageCount())
	}
	if dm.PageSize() != DefaultPageSize {
		t.Fatalf("PageSize: got %d, want %d", dm.PageSize(), DefaultPageSize)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rw.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, 2)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	defer dm.Close()

	page := make([]byte, DefaultPageSize)
	copy(page, "hello page 1")
	if err := dm.Write(1, page); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got := make([]byte, DefaultPageSize)
	if err := dm.Read(1, got); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got[:12]) != "hello page 1" {
		t.Fatalf("got %q", got[:12])
	}
}

func TestReadBeyondPageCountFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bounds.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, 1)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	defer dm.Close()

	buf := make([]byte, DefaultPageSize)
	if err := dm.Read(5, buf); err == nil {
		t.Fatal("expected a read beyond page_count to fail")
	}
}

func TestExtendAppendsZeroedPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extend.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, 1)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	defer dm.Close()

	pid, err := dm.Extend()
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if pid != 1 {
		t.Fatalf("Extend returned page %d, want 1", pid)
	}
	if dm.PageCount() != 2 {
		t.Fatalf("PageCount after Extend: got %d, want 2", dm.PageCount())
	}

	buf := make([]byte, DefaultPageSize)
	if err := dm.Read(pid, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("extended page not zero-filled at byte %d", i)
		}
	}
}

func TestReopenExistingFileDerivesPageCountFromLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	dm1, err := OpenDiskManager(path, 0, DefaultPageSize, 4)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	if err := dm1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dm2, err := OpenDiskManager(path, 0, DefaultPageSize, 0)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer dm2.Close()
	if dm2.PageCount() != 4 {
		t.Fatalf("PageCount on reopen: got %d, want 4 (derived from file length, ignoring expectedIfNew)", dm2.PageCount())
	}
}

func TestOpenDiskManagerRejectsMisalignedLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "misaligned.db")
	dm, err := OpenDiskManager(path, 0, DefaultPageSize, 1)
	if err != nil {
		t.Fatalf("OpenDiskManager: %v", err)
	}
	if err := dm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := truncateBy(path, 7); err != nil {
		t.Fatalf("truncating test fixture: %v", err)
	}
	if _, err := OpenDiskManager(path, 0, DefaultPageSize, 0); err == nil {
		t.Fatal("expected reopening a file whose length is not a multiple of page_size to fail")
	}
}
