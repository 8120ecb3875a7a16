/*
Table is the table heap proper: it turns a relation's pages into an
unordered collection of (TupleMeta, data) tuples addressed by RID.

Grounded on the teacher's am/ access-method layer for the shape of the
operation set (insert/select/update), adapted to this design's simpler
scope -- no xmin/xmax visibility here, that moved to package transaction
-- and fixing the bug in the teacher's am.Manager, which called
m.dm.GetNPageID from HeapSequentialScan despite never holding a dm field
(confirmed: am.Manager only embeds bm/sm/fsm). Free-space search is a
linear scan over the relation's allocated pages via buffer.Manager.NPages,
not a tree-indexed free space map: the teacher's storage/fsm package is a
separate page-tree structure disproportionate to a table heap that exists
here only to exercise the buffer pool and MVCC core (the query
planner/optimizer that would make FSM lookups hot is explicitly out of
scope), so it is not adapted in -- see DESIGN.md.
*/
package heap

import (
	"coredb/common"
	"coredb/storage/buffer"
	"coredb/storage/disk"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// Table is a table heap backed by the shared buffer pool.
type Table struct {
	bpm *buffer.Manager
	rel common.Relation
}

// NewTable wraps rel's main fork as a table heap.
func NewTable(bpm *buffer.Manager, rel common.Relation) *Table {
	return &Table{bpm: bpm, rel: rel}
}

// InsertTuple appends a new tuple and returns its RID.
func (t *Table) InsertTuple(meta TupleMeta, data []byte) (common.RID, error) {
	item := marshalTuple(meta, data)

	guard, isNewPage, err := t.pageWithRoomFor(len(item))
	if err != nil {
		return common.InvalidRID, errors.Wrap(err, "pageWithRoomFor failed")
	}
	defer guard.Drop()
	if isNewPage {
		page.InitializePage(guard.Page(), 0)
	}

	idx, err := page.NextFreeSlotIndex(guard.Page())
	if err != nil {
		return common.InvalidRID, errors.Wrap(err, "NextFreeSlotIndex failed")
	}
	if err := page.AddItem(guard.Page(), item, idx); err != nil {
		return common.InvalidRID, errors.Wrap(err, "AddItem failed")
	}
	guard.SetDirty()

	return common.RID{PageID: common.PageID(guard.PageID()), Slot: uint16(idx)}, nil
}

// pageWithRoomFor returns a write-locked guard over a page with at least
// size bytes free, extending the relation with a fresh page if none of the
// existing pages have room.
func (t *Table) pageWithRoomFor(size int) (*buffer.WritePageGuard, bool, error) {
	npid, err := t.bpm.NPages(t.rel, disk.ForkNumberMain)
	if err != nil {
		return nil, false, errors.Wrap(err, "NPages failed")
	}
	if npid != page.InvalidPageID {
		for pid := page.FirstPageID; pid <= npid; pid++ {
			guard, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberMain, pid)
			if err != nil {
				return nil, false, errors.Wrap(err, "FetchPageWrite failed")
			}
			// +4 covers the slot array entry a brand new slot would need;
			// this may turn down a page that could actually fit by reusing
			// a freed slot, which just means one more page gets allocated.
			if page.CalculateFreeSpace(guard.Page()) >= size+4 {
				return guard, false, nil
			}
			guard.Drop()
		}
	}
	guard, err := t.bpm.NewPageWrite(t.rel, disk.ForkNumberMain)
	if err != nil {
		return nil, false, errors.Wrap(err, "NewPageWrite failed")
	}
	return guard, true, nil
}

// GetTuple returns the tuple at rid.
func (t *Table) GetTuple(rid common.RID) (TupleMeta, []byte, error) {
	guard, err := t.bpm.FetchPageRead(t.rel, disk.ForkNumberMain, page.PageID(rid.PageID))
	if err != nil {
		return TupleMeta{}, nil, errors.Wrap(err, "FetchPageRead failed")
	}
	defer guard.Drop()

	item, err := page.GetItem(guard.Page(), page.SlotIndex(rid.Slot))
	if err != nil {
		return TupleMeta{}, nil, errors.Wrap(err, "GetItem failed")
	}
	return unmarshalTuple(item)
}

// UpdateTupleMeta overwrites rid's header in place, leaving its data bytes
// untouched.
func (t *Table) UpdateTupleMeta(rid common.RID, meta TupleMeta) error {
	guard, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberMain, page.PageID(rid.PageID))
	if err != nil {
		return errors.Wrap(err, "FetchPageWrite failed")
	}
	defer guard.Drop()

	item, err := page.GetItem(guard.Page(), page.SlotIndex(rid.Slot))
	if err != nil {
		return errors.Wrap(err, "GetItem failed")
	}
	marshalMeta(item, meta)
	guard.SetDirty()
	return nil
}

// UpdateTupleInPlace overwrites rid's tuple with new data of the same
// length. The caller (transaction manager) is responsible for only taking
// this path when it already holds an exclusive version-link lock on rid
// and the new value's length matches the old one; this table heap has no
// free-space relocation for in-place updates of a different size.
func (t *Table) UpdateTupleInPlace(rid common.RID, meta TupleMeta, data []byte) error {
	guard, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberMain, page.PageID(rid.PageID))
	if err != nil {
		return errors.Wrap(err, "FetchPageWrite failed")
	}
	defer guard.Drop()

	item, err := page.GetItem(guard.Page(), page.SlotIndex(rid.Slot))
	if err != nil {
		return errors.Wrap(err, "GetItem failed")
	}
	if len(item) != tupleHeaderSize+len(data) {
		return errors.Errorf("UpdateTupleInPlace: size mismatch, have %d want %d", len(item), tupleHeaderSize+len(data))
	}
	marshalMeta(item, meta)
	copy(item[tupleHeaderSize:], data)
	guard.SetDirty()
	return nil
}
