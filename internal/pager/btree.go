package pager

// BTree (C9) maps fixed-width primary keys to fixed-width row payloads.
// It is generic over the primary key's byte type via the KeyCodec built at
// construction (Design Notes §9): every descent, split and merge decision
// goes through codec.Decode/Key.Less rather than caring whether the key is
// an INT, REAL or TEXT(n).
//
// Grounded on the teacher's BTree (internal/storage/pager/btree.go) for the
// overall seek/insert/erase shape; the split/merge rules themselves follow
// §4.8 and the original_source resolution of the middle-key ambiguity
// (SPEC_FULL.md §SUPPLEMENTED FEATURES item 1).
type BTree struct {
	fm       *FrameManager
	codec    KeyCodec
	slotSize int
	root     PageID
}

// NewBTree opens an existing tree rooted at root, or — if root is NoPage —
// allocates a fresh empty leaf and adopts it as the root (§4.8
// "On construction with a nil root, allocates a new empty leaf").
func NewBTree(fm *FrameManager, codec KeyCodec, slotSize int, root PageID) (*BTree, error) {
	t := &BTree{fm: fm, codec: codec, slotSize: slotSize, root: root}
	if root == NoPage {
		fr, err := fm.Allocate()
		if err != nil {
			return nil, err
		}
		initLeafHeader(fr, codec.Size, slotSize, NoPage, NoPage)
		t.root = fr.PageID()
		if err := fr.Close(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Root returns the tree's current root page id, for persisting into the
// master table / database header.
func (t *BTree) Root() PageID { return t.root }

// KeySize returns the fixed primary-key width.
func (t *BTree) KeySize() int { return t.codec.Size }

// SlotSize returns the fixed serialized-row width.
func (t *BTree) SlotSize() int { return t.slotSize }

func (t *BTree) leafMax() int { return (t.fm.PageSize() - leafHeaderSize) / t.slotSize }
func (t *BTree) leafMinNonRoot() int { return t.leafMax() / 2 }

func (t *BTree) internalMax() int {
	return (t.fm.PageSize() - internalHeaderSize) / (t.codec.Size + 4)
}
func (t *BTree) internalMinNonRoot() int {
	f := t.internalMax()
	return (f+1)/2 - 1
}

// OpenLeaf pins pid as a LeafNode (exported for the cursor layer, C11).
func (t *BTree) OpenLeaf(pid PageID) (*LeafNode, error) { return openLeaf(t.fm, pid, t.codec) }

// OpenInternal pins pid as an InternalNode.
func (t *BTree) OpenInternal(pid PageID) (*InternalNode, error) { return openInternal(t.fm, pid, t.codec) }

// SeekSlot is the exported binary search over an already-open node's keys
// (used directly by the cursor layer once it has a leaf open).
func SeekSlot(count int, keyAt func(int) Key, target Key) int { return seekSlot(count, keyAt, target) }

// SeekLeaf descends from the root to the leaf that would contain target,
// returning it pinned (§4.8 "seek_leaf"). Exactly one node is open at a
// time during the descent (§4.8 "Iteration / cursor support").
func (t *BTree) SeekLeaf(target Key) (*LeafNode, error) {
	cur := t.root
	for {
		fr, err := t.fm.Pin(cur)
		if err != nil {
			return nil, err
		}
		m, _ := fr.ViewUint8(offMagic)
		if Magic(m) == MagicLeafNode {
			return &LeafNode{nodeCommon{fr: fr, codec: t.codec}}, nil
		}
		if Magic(m) != MagicInternalNode {
			_ = fr.Close()
			return nil, newBadMagicError(MagicInternalNode, Magic(m))
		}
		in := &InternalNode{nodeCommon{fr: fr, codec: t.codec}}
		s := seekSlot(in.SlotCount(), in.Key, target)
		child := in.Child(s - 1)
		if err := in.Close(); err != nil {
			return nil, err
		}
		cur = child
	}
}

// Insert serializes row at its primary key's correct leaf slot, splitting
// nodes up the tree as needed (§4.8 "Insert into leaf"/"Insert into
// internal"). row must be exactly SlotSize() bytes with the primary key at
// offset 0.
func (t *BTree) Insert(row []byte) error {
	key, err := t.codec.Decode(row, 0)
	if err != nil {
		return err
	}
	leaf, err := t.SeekLeaf(key)
	if err != nil {
		return err
	}
	slot := seekSlot(leaf.SlotCount(), leaf.Key, key)
	return t.insertIntoLeaf(leaf, slot, row)
}

// Contains reports whether key already has a row in the tree, used by the
// cursor layer to reject duplicate-primary-key inserts (§4.10).
func (t *BTree) Contains(key Key) (bool, error) {
	leaf, err := t.SeekLeaf(key)
	if err != nil {
		return false, err
	}
	slot := seekSlot(leaf.SlotCount(), leaf.Key, key)
	found := slot < leaf.SlotCount() && leaf.Key(slot).Equal(key)
	return found, leaf.Close()
}

func (t *BTree) insertIntoLeaf(leaf *LeafNode, slot int, row []byte) error {
	if leaf.SlotCount() < t.leafMax() {
		leaf.Insert(slot, row)
		return leaf.Close()
	}

	newFr, err := t.fm.Allocate()
	if err != nil {
		_ = leaf.Close()
		return err
	}
	initLeafHeader(newFr, t.codec.Size, t.slotSize, leaf.Parent(), leaf.NextLeaf())
	newLeaf := &LeafNode{nodeCommon{fr: newFr, codec: t.codec}}

	oldCount := leaf.SlotCount()
	n := oldCount - oldCount/2 // back half: ceil(L/2) records move right
	if err := transferBackToFront(leaf, newLeaf, n); err != nil {
		_ = leaf.Close()
		_ = newLeaf.Close()
		return err
	}
	leaf.SetNextLeaf(newFr.PageID())

	splitPoint := oldCount - n
	if slot > splitPoint {
		newLeaf.Insert(slot-splitPoint, row)
	} else {
		leaf.Insert(slot, row)
	}

	wasRoot := leaf.PageID() == t.root
	var parentPid PageID
	if wasRoot {
		rootFr, err := t.fm.Allocate()
		if err != nil {
			_ = leaf.Close()
			_ = newLeaf.Close()
			return err
		}
		initInternalHeader(rootFr, t.codec.Size, leaf.PageID(), NoPage)
		parentPid = rootFr.PageID()
		t.root = parentPid
		if err := rootFr.Close(); err != nil {
			_ = leaf.Close()
			_ = newLeaf.Close()
			return err
		}
		leaf.SetParent(parentPid)
	} else {
		parentPid = leaf.Parent()
	}
	newLeaf.SetParent(parentPid)

	separator := leaf.Key(leaf.SlotCount() - 1)
	newLeafPid := newFr.PageID()

	if err := leaf.Close(); err != nil {
		_ = newLeaf.Close()
		return err
	}
	if err := newLeaf.Close(); err != nil {
		return err
	}

	parent, err := openInternal(t.fm, parentPid, t.codec)
	if err != nil {
		return err
	}
	pslot := seekSlot(parent.SlotCount(), parent.Key, separator)
	return t.insertIntoInternal(parent, pslot, separator, newLeafPid)
}

func reparentChildren(fm *FrameManager, n *InternalNode, newParent PageID) error {
	children := make([]PageID, 0, n.SlotCount()+1)
	children = append(children, n.FirstChild())
	for i := 0; i < n.SlotCount(); i++ {
		children = append(children, n.Child(i))
	}
	for _, cpid := range children {
		fr, err := fm.Pin(cpid)
		if err != nil {
			return err
		}
		_ = fr.WriteUint32(offParent, uint32(newParent))
		if err := fr.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (t *BTree) insertIntoInternal(n *InternalNode, slot int, key Key, child PageID) error {
	if n.SlotCount() < t.internalMax() {
		n.Insert(slot, key, child)
		return n.Close()
	}

	newFr, err := t.fm.Allocate()
	if err != nil {
		_ = n.Close()
		return err
	}
	initInternalHeader(newFr, t.codec.Size, NoPage, n.Parent())
	newNode := &InternalNode{nodeCommon{fr: newFr, codec: t.codec}}

	c := n.SlotCount()
	mid := c/2 + c%2 - 1
	midKey := n.Key(mid)
	midChild := n.Child(mid)
	newNode.SetFirstChild(midChild)

	right := c - mid - 1
	if right > 0 {
		if err := transferBackToFront(n, newNode, right); err != nil {
			_ = n.Close()
			_ = newNode.Close()
			return err
		}
	}
	n.eraseSlot(mid)

	if slot > mid {
		newNode.Insert(slot-mid-1, key, child)
	} else {
		n.Insert(slot, key, child)
	}

	newPid := newFr.PageID()
	if err := reparentChildren(t.fm, newNode, newPid); err != nil {
		_ = n.Close()
		_ = newNode.Close()
		return err
	}

	wasRoot := n.PageID() == t.root
	var parentPid PageID
	if wasRoot {
		rootFr, err := t.fm.Allocate()
		if err != nil {
			_ = n.Close()
			_ = newNode.Close()
			return err
		}
		initInternalHeader(rootFr, t.codec.Size, n.PageID(), NoPage)
		parentPid = rootFr.PageID()
		t.root = parentPid
		if err := rootFr.Close(); err != nil {
			_ = n.Close()
			_ = newNode.Close()
			return err
		}
		n.SetParent(parentPid)
	} else {
		parentPid = n.Parent()
	}
	newNode.SetParent(parentPid)

	if err := n.Close(); err != nil {
		_ = newNode.Close()
		return err
	}
	if err := newNode.Close(); err != nil {
		return err
	}

	parent, err := openInternal(t.fm, parentPid, t.codec)
	if err != nil {
		return err
	}
	pslot := seekSlot(parent.SlotCount(), parent.Key, midKey)
	return t.insertIntoInternal(parent, pslot, midKey, newPid)
}

// childSlotOf returns the slot in parent whose child pointer references
// childPid, or -1 if childPid is parent's FirstChild.
func childSlotOf(parent *InternalNode, childPid PageID) int {
	if parent.FirstChild() == childPid {
		return -1
	}
	for i := 0; i < parent.SlotCount(); i++ {
		if parent.Child(i) == childPid {
			return i
		}
	}
	return -1
}

// Erase removes the row keyed by key, if present, rebalancing up the tree
// as needed (§4.8 "Erase from leaf"/"Erase from internal"). It is a no-op
// if key is absent.
func (t *BTree) Erase(key Key) error {
	leaf, err := t.SeekLeaf(key)
	if err != nil {
		return err
	}
	slot := seekSlot(leaf.SlotCount(), leaf.Key, key)
	if slot >= leaf.SlotCount() || !leaf.Key(slot).Equal(key) {
		return leaf.Close()
	}
	return t.eraseFromLeaf(leaf, slot)
}

// EraseAt is used by the cursor layer when it already knows the leaf and
// slot to remove (it has a pinned leaf in hand from iteration).
func (t *BTree) EraseAt(leaf *LeafNode, slot int) error {
	return t.eraseFromLeaf(leaf, slot)
}

func (t *BTree) eraseFromLeaf(leaf *LeafNode, slot int) error {
	isRoot := leaf.PageID() == t.root
	if isRoot || leaf.SlotCount() > t.leafMinNonRoot() {
		leaf.eraseSlot(slot)
		return leaf.Close()
	}

	minL := t.leafMinNonRoot()
	parentPid := leaf.Parent()
	parent, err := openInternal(t.fm, parentPid, t.codec)
	if err != nil {
		_ = leaf.Close()
		return err
	}
	leafPid := leaf.PageID()
	cslot := childSlotOf(parent, leafPid)

	// Try borrowing from the left sibling.
	if cslot >= 0 {
		leftPid := parent.Child(cslot - 1)
		left, err := openLeaf(t.fm, leftPid, t.codec)
		if err != nil {
			_ = leaf.Close()
			_ = parent.Close()
			return err
		}
		if left.SlotCount() > minL {
			if err := transferBackToFront(left, leaf, 1); err != nil {
				return err
			}
			leaf.eraseSlot(slot + 1)
			parent.SetKey(cslot, left.Key(left.SlotCount()-1))
			if err := left.Close(); err != nil {
				return err
			}
			if err := leaf.Close(); err != nil {
				return err
			}
			return parent.Close()
		}
		if err := left.Close(); err != nil {
			return err
		}
	}

	// Try borrowing from the right sibling.
	if cslot+1 < parent.SlotCount() {
		rightPid := parent.Child(cslot + 1)
		right, err := openLeaf(t.fm, rightPid, t.codec)
		if err != nil {
			_ = leaf.Close()
			_ = parent.Close()
			return err
		}
		if right.SlotCount() > minL {
			if err := transferFrontToBack(right, leaf, 1); err != nil {
				return err
			}
			leaf.eraseSlot(slot)
			parent.SetKey(cslot+1, leaf.Key(leaf.SlotCount()-1))
			if err := right.Close(); err != nil {
				return err
			}
			if err := leaf.Close(); err != nil {
				return err
			}
			return parent.Close()
		}
		if err := right.Close(); err != nil {
			return err
		}
	}

	// Merge. Prefer the left sibling; if there is none (cslot == -1),
	// merge the right sibling into this leaf instead (§4.8).
	if cslot >= 0 {
		leftPid := parent.Child(cslot - 1)
		left, err := openLeaf(t.fm, leftPid, t.codec)
		if err != nil {
			_ = leaf.Close()
			_ = parent.Close()
			return err
		}
		leftOldCount := left.SlotCount()
		if err := transferFrontToBack(leaf, left, leaf.SlotCount()); err != nil {
			return err
		}
		left.SetNextLeaf(leaf.NextLeaf())
		leaf.MarkDeletedFrame()
		if err := leaf.Close(); err != nil {
			_ = left.Close()
			return err
		}
		left.eraseSlot(leftOldCount + slot)
		if err := left.Close(); err != nil {
			return err
		}
		if err := t.fm.Deallocate(leafPid); err != nil {
			_ = parent.Close()
			return err
		}
		return t.eraseFromInternal(parent, cslot)
	}

	rightPid := parent.Child(cslot + 1)
	right, err := openLeaf(t.fm, rightPid, t.codec)
	if err != nil {
		_ = leaf.Close()
		_ = parent.Close()
		return err
	}
	if err := transferFrontToBack(right, leaf, right.SlotCount()); err != nil {
		return err
	}
	leaf.SetNextLeaf(right.NextLeaf())
	rightPidClosed := right.PageID()
	right.MarkDeletedFrame()
	if err := right.Close(); err != nil {
		_ = leaf.Close()
		return err
	}
	leaf.eraseSlot(slot)
	if err := leaf.Close(); err != nil {
		return err
	}
	if err := t.fm.Deallocate(rightPidClosed); err != nil {
		_ = parent.Close()
		return err
	}
	return t.eraseFromInternal(parent, 0)
}

// MarkDeletedFrame exposes Frame.MarkDeleted through the node façade so
// btree.go can flag a page's frame as logically deleted immediately before
// pushing it onto the free list (§4.5 "leave the cache's dirty-write path
// clean").
func (n *LeafNode) MarkDeletedFrame() { n.fr.MarkDeleted() }

// MarkDeletedFrame for internal nodes, used when an internal node is
// dropped during root collapse or merge.
func (n *InternalNode) MarkDeletedFrame() { n.fr.MarkDeleted() }

func (t *BTree) eraseFromInternal(n *InternalNode, slot int) error {
	isRoot := n.PageID() == t.root
	if isRoot {
		if n.SlotCount() > 1 {
			n.eraseSlot(slot)
			return n.Close()
		}
		// Root at minimum (1 key): replace the root with its sole
		// remaining child. This branch only runs with n.SlotCount() == 1,
		// which forces slot == 0 on every call; the surviving child is
		// always FirstChild() (both the merge-left and merge-right
		// recursions leave the merged survivor there), and Child(0) is the
		// page that was just merged away and deallocated.
		newRoot := n.FirstChild()
		oldRoot := n.PageID()
		n.MarkDeletedFrame()
		if err := n.Close(); err != nil {
			return err
		}
		t.root = newRoot
		childFr, err := t.fm.Pin(newRoot)
		if err != nil {
			return err
		}
		_ = childFr.WriteUint32(offParent, uint32(NoPage))
		if err := childFr.Close(); err != nil {
			return err
		}
		return t.fm.Deallocate(oldRoot)
	}

	minF := t.internalMinNonRoot()
	if n.SlotCount() > minF {
		n.eraseSlot(slot)
		return n.Close()
	}

	parentPid := n.Parent()
	parent, err := openInternal(t.fm, parentPid, t.codec)
	if err != nil {
		_ = n.Close()
		return err
	}
	nPid := n.PageID()
	cslot := childSlotOf(parent, nPid)

	// Try borrowing from the left sibling: rotate through the parent
	// separator (§4.8 "Borrow-from-left rotates via the parent separator").
	if cslot >= 0 {
		leftPid := parent.Child(cslot - 1)
		left, err := openInternal(t.fm, leftPid, t.codec)
		if err != nil {
			_ = n.Close()
			_ = parent.Close()
			return err
		}
		if left.SlotCount() > minF {
			n.eraseSlot(slot)
			shiftSlots(n, 0, 1)
			n.SetKey(0, parent.Key(cslot))
			n.SetChild(0, n.FirstChild())
			movedChild := left.Child(left.SlotCount() - 1)
			n.SetFirstChild(movedChild)
			parent.SetKey(cslot, left.Key(left.SlotCount()-1))
			left.eraseSlot(left.SlotCount() - 1)
			if err := reparentOne(t.fm, movedChild, nPid); err != nil {
				return err
			}
			if err := left.Close(); err != nil {
				return err
			}
			if err := n.Close(); err != nil {
				return err
			}
			return parent.Close()
		}
		if err := left.Close(); err != nil {
			return err
		}
	}

	// Try borrowing from the right sibling (symmetric).
	if cslot+1 < parent.SlotCount() {
		rightPid := parent.Child(cslot + 1)
		right, err := openInternal(t.fm, rightPid, t.codec)
		if err != nil {
			_ = n.Close()
			_ = parent.Close()
			return err
		}
		if right.SlotCount() > minF {
			n.eraseSlot(slot)
			movedChild := right.FirstChild()
			n.Insert(n.SlotCount(), parent.Key(cslot+1), movedChild)
			parent.SetKey(cslot+1, right.Key(0))
			right.SetFirstChild(right.Child(0))
			right.eraseSlot(0)
			if err := reparentOne(t.fm, movedChild, nPid); err != nil {
				return err
			}
			if err := right.Close(); err != nil {
				return err
			}
			if err := n.Close(); err != nil {
				return err
			}
			return parent.Close()
		}
		if err := right.Close(); err != nil {
			return err
		}
	}

	// Merge: concatenate this | parent_separator | sibling.
	if cslot >= 0 {
		leftPid := parent.Child(cslot - 1)
		left, err := openInternal(t.fm, leftPid, t.codec)
		if err != nil {
			_ = n.Close()
			_ = parent.Close()
			return err
		}
		n.eraseSlot(slot)
		sep := parent.Key(cslot)
		leftOldCount := left.SlotCount()
		left.Insert(leftOldCount, sep, n.FirstChild())
		if n.SlotCount() > 0 {
			if err := transferFrontToBack(n, left, n.SlotCount()); err != nil {
				return err
			}
		}
		if err := reparentChildren(t.fm, left, left.PageID()); err != nil {
			return err
		}
		n.MarkDeletedFrame()
		if err := n.Close(); err != nil {
			_ = left.Close()
			return err
		}
		if err := left.Close(); err != nil {
			return err
		}
		if err := t.fm.Deallocate(nPid); err != nil {
			_ = parent.Close()
			return err
		}
		return t.eraseFromInternal(parent, cslot)
	}

	rightPid := parent.Child(cslot + 1)
	right, err := openInternal(t.fm, rightPid, t.codec)
	if err != nil {
		_ = n.Close()
		_ = parent.Close()
		return err
	}
	n.eraseSlot(slot)
	sep := parent.Key(cslot + 1)
	nOldCount := n.SlotCount()
	n.Insert(nOldCount, sep, right.FirstChild())
	if right.SlotCount() > 0 {
		if err := transferFrontToBack(right, n, right.SlotCount()); err != nil {
			return err
		}
	}
	if err := reparentChildren(t.fm, n, n.PageID()); err != nil {
		return err
	}
	rightPidClosed := right.PageID()
	right.MarkDeletedFrame()
	if err := right.Close(); err != nil {
		_ = n.Close()
		return err
	}
	if err := n.Close(); err != nil {
		return err
	}
	if err := t.fm.Deallocate(rightPidClosed); err != nil {
		_ = parent.Close()
		return err
	}
	return t.eraseFromInternal(parent, 0)
}

func reparentOne(fm *FrameManager, pid, newParent PageID) error {
	fr, err := fm.Pin(pid)
	if err != nil {
		return err
	}
	_ = fr.WriteUint32(offParent, uint32(newParent))
	return fr.Close()
}

// Destroy deallocates every page reachable from the tree's root via an
// explicit-stack post-order traversal (§4.8 "Destroy tree"; Design Notes
// §9 "prefer an explicit stack to avoid host-stack blowup").
func (t *BTree) Destroy() error {
	type frame struct {
		pid      PageID
		visited  bool
	}
	stack := []frame{{pid: t.root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.visited {
			pid := top.pid
			stack = stack[:len(stack)-1]
			if err := t.fm.Deallocate(pid); err != nil {
				return err
			}
			continue
		}
		top.visited = true
		pid := top.pid
		fr, err := t.fm.Pin(pid)
		if err != nil {
			return err
		}
		m, _ := fr.ViewUint8(offMagic)
		if Magic(m) != MagicInternalNode {
			if err := fr.Close(); err != nil {
				return err
			}
			continue
		}
		in := &InternalNode{nodeCommon{fr: fr, codec: t.codec}}
		children := make([]PageID, 0, in.SlotCount()+1)
		children = append(children, in.FirstChild())
		for i := 0; i < in.SlotCount(); i++ {
			children = append(children, in.Child(i))
		}
		if err := in.Close(); err != nil {
			return err
		}
		for _, c := range children {
			stack = append(stack, frame{pid: c})
		}
	}
	return nil
}
