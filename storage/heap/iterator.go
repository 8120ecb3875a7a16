package heap

import (
	"coredb/common"
	"coredb/storage/disk"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// Iterator walks a table heap's tuples in RID order (page id, then slot
// index), skipping unused slots left behind by deletes. It does not apply
// any MVCC visibility filtering -- callers needing visibility wrap this
// with the transaction manager's read-visibility rule.
type Iterator struct {
	t       *Table
	npid    page.PageID
	started bool
	cur     common.RID
}

// NewIterator returns an iterator positioned before the first tuple.
func (t *Table) NewIterator() (*Iterator, error) {
	npid, err := t.bpm.NPages(t.rel, disk.ForkNumberMain)
	if err != nil {
		return nil, errors.Wrap(err, "NPages failed")
	}
	return &Iterator{t: t, npid: npid, cur: common.InvalidRID}, nil
}

// Next advances the iterator and reports whether a tuple was found.
func (it *Iterator) Next() (bool, error) {
	if it.npid == page.InvalidPageID {
		return false, nil
	}
	pid := page.FirstPageID
	slot := page.SlotIndex(0)
	if it.started {
		pid = page.PageID(it.cur.PageID)
		slot = page.SlotIndex(it.cur.Slot) + 1
	}
	it.started = true

	for pid <= it.npid {
		guard, err := it.t.bpm.FetchPageRead(it.t.rel, disk.ForkNumberMain, pid)
		if err != nil {
			return false, errors.Wrap(err, "FetchPageRead failed")
		}
		nidx := page.GetNSlotIndex(guard.Page())
		for nidx != page.InvalidSlotIndex && slot <= nidx {
			s, err := page.GetSlot(guard.Page(), slot)
			if err != nil {
				guard.Drop()
				return false, errors.Wrap(err, "GetSlot failed")
			}
			if !page.IsUnused(s) {
				it.cur = common.RID{PageID: common.PageID(pid), Slot: uint16(slot)}
				guard.Drop()
				return true, nil
			}
			slot++
		}
		guard.Drop()
		pid++
		slot = 0
	}
	return false, nil
}

// RID returns the current tuple's RID. Only valid after Next returns true.
func (it *Iterator) RID() common.RID {
	return it.cur
}

// Tuple returns the current tuple's meta and data.
func (it *Iterator) Tuple() (TupleMeta, []byte, error) {
	return it.t.GetTuple(it.cur)
}
