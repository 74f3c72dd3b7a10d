package pager

// Free-list block header (§3 "Free-list block"):
//
//	magic(1) | stack_pointer(2) | next_block(4)
const (
	offFLStackPointer = 1
	offFLNextBlock    = 3
	flBlockHeaderSize = 7
)

func flCapacity(pageSize int) int { return (pageSize - flBlockHeaderSize) / 4 }

func flInit(fr *Frame, next PageID) {
	_ = fr.WriteUint8(offMagic, uint8(MagicFreeListBlock))
	_ = fr.WriteUint16(offFLStackPointer, uint16(flBlockHeaderSize))
	_ = fr.WriteUint32(offFLNextBlock, uint32(next))
}

func flStackPointer(fr *Frame) int {
	v, _ := fr.ViewUint16(offFLStackPointer)
	return int(v)
}
func flSetStackPointer(fr *Frame, v int) { _ = fr.WriteUint16(offFLStackPointer, uint16(v)) }
func flNext(fr *Frame) PageID {
	v, _ := fr.ViewUint32(offFLNextBlock)
	return PageID(v)
}
func flSetNext(fr *Frame, pid PageID) { _ = fr.WriteUint32(offFLNextBlock, uint32(pid)) }

// flIsFull reports whether one more push would overflow the page (§4.5
// "full when pushing one more id would exceed the page").
func flIsFull(fr *Frame) bool { return flStackPointer(fr)+4 > fr.PageSize() }

// flIsEmpty reports whether the block holds zero ids (§4.5 "empty when it
// equals the header size").
func flIsEmpty(fr *Frame) bool { return flStackPointer(fr) == flBlockHeaderSize }

func flPush(fr *Frame, pid PageID) {
	sp := flStackPointer(fr)
	_ = fr.WriteUint32(sp, uint32(pid))
	flSetStackPointer(fr, sp+4)
}

func flPop(fr *Frame) PageID {
	sp := flStackPointer(fr) - 4
	v, _ := fr.ViewUint32(sp)
	flSetStackPointer(fr, sp)
	return PageID(v)
}

// FreeList (C6) is a persistent stack of reusable page ids spanning one or
// more free-list blocks chained by next_block, the head being the block
// whose page id is the database header's first_free_list_block.
//
// Grounded on the teacher's FreeManager (internal/storage/pager/freelist.go)
// for the overall shape (in-memory-set-plus-disk-chain), reworked into the
// exact stack discipline §4.5 requires: unlike the teacher, a page pushed
// onto an empty or full-tail list *becomes* a block itself rather than
// being recorded as an entry inside one, so the structure never needs an
// extra page purely for bookkeeping.
type FreeList struct {
	head PageID
}

// NewFreeList wraps an existing chain (or an empty one, head == NoPage).
func NewFreeList(head PageID) *FreeList { return &FreeList{head: head} }

// Head returns the database-header-persisted chain head.
func (fl *FreeList) Head() PageID { return fl.head }

// Push implements §4.5 push(pid).
func (fl *FreeList) Push(cache *Cache, pid PageID) error {
	if fl.head == NoPage {
		fr, err := cache.Pin(pid)
		if err != nil {
			return err
		}
		flInit(fr, NoPage)
		fl.head = pid
		return fr.Close()
	}

	cur := fl.head
	for {
		fr, err := cache.Pin(cur)
		if err != nil {
			return err
		}
		if next := flNext(fr); next != NoPage {
			if err := fr.Close(); err != nil {
				return err
			}
			cur = next
			continue
		}

		// cur is the tail block.
		if !flIsFull(fr) {
			flPush(fr, pid)
			return fr.Close()
		}
		flSetNext(fr, pid)
		if err := fr.Close(); err != nil {
			return err
		}
		tail, err := cache.Pin(pid)
		if err != nil {
			return err
		}
		flInit(tail, NoPage)
		return tail.Close()
	}
}

// Pop implements §4.5 pop() -> pid.
func (fl *FreeList) Pop(cache *Cache) (PageID, error) {
	if fl.head == NoPage {
		return NoPage, newFreeListEmptyError()
	}

	predID := NoPage
	cur := fl.head
	for {
		fr, err := cache.Pin(cur)
		if err != nil {
			return NoPage, err
		}
		if next := flNext(fr); next != NoPage {
			if err := fr.Close(); err != nil {
				return NoPage, err
			}
			predID = cur
			cur = next
			continue
		}

		// cur is the tail block.
		if !flIsEmpty(fr) {
			pid := flPop(fr)
			return pid, fr.Close()
		}

		// The tail is empty: its own page is the reclaimed page.
		fr.MarkDeleted()
		if err := fr.Close(); err != nil {
			return NoPage, err
		}
		if predID == NoPage {
			fl.head = NoPage
			return cur, nil
		}
		pred, err := cache.Pin(predID)
		if err != nil {
			return NoPage, err
		}
		flSetNext(pred, NoPage)
		if err := pred.Close(); err != nil {
			return NoPage, err
		}
		return cur, nil
	}
}
