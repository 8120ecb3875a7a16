/*
`item` is used interchangeably with "tuple": a heap tuple, a hash bucket
entry, or anything else slotted into the item area of a page.

GetItem/AddItem are the two operations everything else in storage/ is built
on top of:
  - GetItem(page, slotIndex) resolves a slot to the item bytes it currently
    points at (indirection that lets CompactPage move items around without
    invalidating any RID pointing at the slot).
  - AddItem(page, item, slotIndex) inserts item into the page, reusing a
    freed slot when one exists and idx is InvalidSlotIndex, extending the
    slot array otherwise, or writing into a caller-chosen slot directly.
*/
package page

import (
	"github.com/pkg/errors"
)

// ItemPtr points to an item's bytes within a page. Item length is variable.
type ItemPtr []byte

// itemOffset is the byte offset of an item within a page, as stored in a
// Slot.
type itemOffset uint16

// itemSize is the byte size of an item, as stored in a Slot.
type itemSize uint16

// GetItem returns the item slotIndex's slot points at.
func GetItem(p PagePtr, idx SlotIndex) (ItemPtr, error) {
	slot, err := GetSlot(p, idx)
	if err != nil {
		return nil, errors.Wrap(err, "GetSlot failed")
	}
	if IsUnused(slot) {
		return nil, errors.Errorf("slot %d is unused", idx)
	}
	io := getItemOffset(slot)
	is := getItemSize(slot)
	return ItemPtr(p[io : io+itemOffset(is)]), nil
}

/*
AddItem inserts item into the page.

When idx is InvalidSlotIndex, AddItem picks the slot itself: it reuses the
lowest-numbered unused slot if one exists, otherwise it extends the slot
array by one. When idx names a specific slot, AddItem writes into that
slot directly, and extends the slot array up to idx if idx lies past its
current end -- the caller is responsible for idx being a slot that should
be (re)written; the table heap's InsertTuple and the hash bucket rewrite
pass the index NextFreeSlotIndex returned.
*/
func AddItem(p PagePtr, item ItemPtr, idx SlotIndex) error {
	size := itemSize(len(item))
	needed := int(size)

	if idx == InvalidSlotIndex {
		free, err := findFreeSlot(p)
		if err != nil {
			return errors.Wrap(err, "findFreeSlot failed")
		}
		if free == InvalidSlotIndex {
			needed += slotSize
			free, err = extendSlot(p)
			if err != nil {
				return errors.Wrap(err, "extendSlot failed")
			}
		}
		idx = free
	}

	if CalculateFreeSpace(p) < needed {
		return errors.Errorf("page has no room for a %d byte item", needed)
	}

	upper := GetUpperOffset(p)
	newUpper := upper - offset(size)
	copy(p[newUpper:upper], item)
	insertSlot(p, idx, itemOffset(newUpper), size)
	SetUpperOffset(p, newUpper)

	newLower := slotsOffset + offset(idx+1)*slotSize
	if newLower > GetLowerOffset(p) {
		SetLowerOffset(p, newLower)
	}
	return nil
}
