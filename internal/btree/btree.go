// Package btree implements the single-table B+-tree: keyed lookup,
// in-order iteration via Cursor, and insertion with leaf splitting and
// root promotion. Only leaf splits are implemented (spec §1 Non-goals);
// splitting a non-root leaf is a fatal, not-yet-implemented condition.
package btree

import (
	"github.com/sirupsen/logrus"

	"btreedb/internal/dberrors"
	"btreedb/internal/page"
	"btreedb/internal/pager"
	"btreedb/internal/row"
)

// BTree is the single-table index: a pager plus the page number of the
// current root (which moves on root promotion).
type BTree struct {
	pager       *pager.Pager
	rootPageNum uint32
}

// Open wraps an existing pager as a B+-tree rooted at rootPageNum. The
// caller (internal/database) is responsible for initializing page
// rootPageNum as an empty leaf when the underlying file is new.
func Open(p *pager.Pager, rootPageNum uint32) *BTree {
	return &BTree{pager: p, rootPageNum: rootPageNum}
}

// RootPageNum reports the tree's current root page.
func (t *BTree) RootPageNum() uint32 { return t.rootPageNum }

// Cursor is a positional (page, cell) handle. It is a value, not a
// long-lived borrow: any Insert that splits a leaf invalidates outstanding
// cursors (spec §5). Callers must not retain a cursor across an insert.
type Cursor struct {
	tree       *BTree
	pageNum    uint32
	cellNum    uint32
	endOfTable bool
}

// PageNum reports the cursor's current leaf page.
func (c *Cursor) PageNum() uint32 { return c.pageNum }

// CellNum reports the cursor's current cell index within its leaf.
func (c *Cursor) CellNum() uint32 { return c.cellNum }

// EndOfTable reports whether the cursor has advanced past the last row.
func (c *Cursor) EndOfTable() bool { return c.endOfTable }

// Value decodes and returns the row stored in the cell the cursor points at.
func (c *Cursor) Value() (row.Row, error) {
	buf, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return row.Row{}, err
	}
	return row.Deserialize(page.LeafValue(buf[:], c.cellNum))
}

// Advance moves the cursor to the next cell in its current leaf. Leaves are
// not linked (spec §9), so advancing past the last cell of a leaf ends
// iteration rather than continuing into a sibling.
func (c *Cursor) Advance() error {
	buf, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}
	c.cellNum++
	c.endOfTable = c.cellNum >= page.LeafNumCells(buf[:])
	return nil
}

// Start returns a cursor positioned at the first row of the table.
//
// This carries forward a known limitation (spec §9 item 1): it always reads
// the root page's leaf-header cell count without checking the node type.
// While the tree has never split, the root is a leaf and this is correct.
// After a root promotion the root becomes an internal node, and start()
// still treats it as a leaf — iteration from the start is broken in a
// split tree. A correct implementation would descend to the leftmost leaf
// instead; this one does not, by design fidelity to the source behavior.
func (t *BTree) Start() (*Cursor, error) {
	buf, err := t.pager.GetPage(t.rootPageNum)
	if err != nil {
		return nil, err
	}
	numCells := page.LeafNumCells(buf[:])
	return &Cursor{
		tree:       t,
		pageNum:    t.rootPageNum,
		cellNum:    0,
		endOfTable: numCells == 0,
	}, nil
}

// Find descends from the root to locate key, returning a cursor. If key is
// present the cursor points at its cell; otherwise it points at the
// insertion point (the first cell with a key greater than the target).
func (t *BTree) Find(key uint32) (*Cursor, error) {
	return t.findFrom(t.rootPageNum, key)
}

func (t *BTree) findFrom(pageNum uint32, key uint32) (*Cursor, error) {
	buf, err := t.pager.GetPage(pageNum)
	if err != nil {
		return nil, err
	}

	if page.GetNodeType(buf[:]) == page.Leaf {
		return t.findInLeaf(pageNum, buf[:], key)
	}
	child := internalSearchChild(buf[:], key)
	return t.findFrom(child, key)
}

// findInLeaf binary-searches a leaf node for key using the invariant
// min_idx < one_past_max_idx, matching spec §4.4 exactly.
func (t *BTree) findInLeaf(pageNum uint32, buf []byte, key uint32) (*Cursor, error) {
	numCells := page.LeafNumCells(buf)
	minIdx, onePastMaxIdx := uint32(0), numCells
	for onePastMaxIdx != minIdx {
		idx := (minIdx + onePastMaxIdx) / 2
		keyAtIdx := page.LeafKey(buf, idx)
		if key == keyAtIdx {
			return &Cursor{tree: t, pageNum: pageNum, cellNum: idx}, nil
		}
		if key < keyAtIdx {
			onePastMaxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}
	return &Cursor{tree: t, pageNum: pageNum, cellNum: minIdx}, nil
}

// internalSearchChild implements the internal binary search rule from spec
// §4.4: over [0, num_keys], if key_to_right <= target then min = idx+1 else
// max = idx. This picks the child left of the smallest key strictly greater
// than target, or the right_child when no key is greater. A target equal to
// a separator key therefore descends into the child to the right of it.
func internalSearchChild(buf []byte, key uint32) uint32 {
	numKeys := page.InternalNumKeys(buf)
	minIdx, maxIdx := uint32(0), numKeys
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		keyToRight := page.InternalKey(buf, idx)
		if keyToRight <= key {
			minIdx = idx + 1
		} else {
			maxIdx = idx
		}
	}
	return page.InternalChild(buf, minIdx)
}

// Exists reports whether the cursor returned by Find actually points at key
// rather than at an insertion point.
func (c *Cursor) Exists(key uint32) (bool, error) {
	buf, err := c.tree.pager.GetPage(c.pageNum)
	if err != nil {
		return false, err
	}
	numCells := page.LeafNumCells(buf[:])
	if c.cellNum >= numCells {
		return false, nil
	}
	return page.LeafKey(buf[:], c.cellNum) == key, nil
}

// Insert writes key/r at the position cursor points to, splitting the leaf
// and promoting a new root if it is full. The caller must have already
// rejected duplicate keys (see Exists) — Insert does not re-check.
func (t *BTree) Insert(c *Cursor, key uint32, r row.Row) error {
	buf, err := t.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}

	numCells := page.LeafNumCells(buf[:])
	if numCells < page.LeafMaxCells {
		return t.leafInsert(buf[:], c.cellNum, numCells, key, r)
	}
	return t.leafSplitAndInsert(c, key, r)
}

func (t *BTree) leafInsert(buf []byte, cellNum, numCells uint32, key uint32, r row.Row) error {
	if cellNum < numCells {
		for i := numCells; i > cellNum; i-- {
			copy(page.LeafCell(buf, i), page.LeafCell(buf, i-1))
		}
	}
	page.SetLeafNumCells(buf, numCells+1)
	page.SetLeafKey(buf, cellNum, key)
	return row.Serialize(r, page.LeafValue(buf, cellNum))
}

// leafSplitAndInsert redistributes the full leaf's MAX_CELLS cells plus the
// new one across the old leaf and a freshly allocated sibling, 7 cells each
// (spec §4.4), then promotes a new root if the old leaf was the root.
// Splitting a non-root leaf is not implemented; see spec §9.
func (t *BTree) leafSplitAndInsert(c *Cursor, key uint32, r row.Row) error {
	oldBuf, err := t.pager.GetPage(c.pageNum)
	if err != nil {
		return err
	}
	wasRoot := page.IsRoot(oldBuf[:])

	newPageNum := t.pager.GetUnusedPageNum()
	if wasRoot && newPageNum+1 >= pager.MaxPages {
		// A root split needs this page and the left page createNewRoot
		// allocates right after it; out of frames here means the 100-page
		// cap (spec §5's size cap) has been reached, a well-formed insert
		// that simply can't fit rather than an invariant violation.
		return dberrors.NewExecution("table full")
	}
	if !wasRoot && newPageNum >= pager.MaxPages {
		return dberrors.NewExecution("table full")
	}
	newBuf, err := t.pager.GetPage(newPageNum)
	if err != nil {
		return err
	}
	page.InitializeLeaf(newBuf[:])

	newRowBuf := make([]byte, row.Size)
	if err := row.Serialize(r, newRowBuf); err != nil {
		return err
	}

	// Copy MAX+1 logical cells (old leaf's existing MAX cells plus the new
	// one at cursor.cellNum) into the two leaves, walking from the end so
	// the old leaf's own cells are never overwritten before being read.
	for i := int(page.LeafMaxCells); i >= 0; i-- {
		var destBuf []byte
		if uint32(i) >= page.LeftSplitCount {
			destBuf = newBuf[:]
		} else {
			destBuf = oldBuf[:]
		}
		destIdx := uint32(i) % page.LeftSplitCount

		switch {
		case uint32(i) == c.cellNum:
			page.SetLeafKey(destBuf, destIdx, key)
			copy(page.LeafValue(destBuf, destIdx), newRowBuf)
		case uint32(i) > c.cellNum:
			copy(page.LeafCell(destBuf, destIdx), page.LeafCell(oldBuf[:], uint32(i)-1))
		default:
			copy(page.LeafCell(destBuf, destIdx), page.LeafCell(oldBuf[:], uint32(i)))
		}
	}

	page.SetLeafNumCells(oldBuf[:], page.LeftSplitCount)
	page.SetLeafNumCells(newBuf[:], page.RightSplitCount)

	if wasRoot {
		return t.createNewRoot(newPageNum)
	}
	logrus.WithFields(logrus.Fields{"component": "btree", "page": c.pageNum}).
		Error("split of a non-root leaf is not implemented")
	return dberrors.NewFatal("need to implement updating parent after split")
}

// createNewRoot converts a full root leaf into an internal node pointing at
// two child leaves, per spec §4.4: the old root's contents move to a fresh
// left page, and the root page is reinitialized as an internal node with
// one key separating left from rightChildPageNum.
func (t *BTree) createNewRoot(rightChildPageNum uint32) error {
	rootBuf, err := t.pager.GetPage(t.rootPageNum)
	if err != nil {
		return err
	}

	// get_unused_page_num evaluates after the new (right) leaf has already
	// been allocated, so the left page is the page immediately after it.
	leftPageNum := t.pager.GetUnusedPageNum()
	leftBuf, err := t.pager.GetPage(leftPageNum)
	if err != nil {
		return err
	}
	*leftBuf = *rootBuf
	page.SetIsRoot(leftBuf[:], false)

	page.InitializeInternal(rootBuf[:])
	page.SetIsRoot(rootBuf[:], true)
	page.SetInternalNumKeys(rootBuf[:], 1)
	page.SetInternalChild(rootBuf[:], 0, leftPageNum)
	page.SetInternalKey(rootBuf[:], 0, page.MaxKey(leftBuf[:]))
	page.SetInternalRightChild(rootBuf[:], rightChildPageNum)

	return nil
}
