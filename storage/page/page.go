/*
Page is the fixed-size unit of I/O everything above the disk manager works
with: table-heap pages and the extendible hash index's header/directory/
bucket pages are all one Page type, differing only in how their body (the
space between the header and the special space) is interpreted.

Grounded on the teacher's storage/page package: the same slotted-page shape
(header, slot array growing down from the header, item bytes growing up
from the end of the page, special space reserved at the tail) and the same
0-filled-until-InitializePage convention. The teacher's header also carried
a WAL LSN field for postgres-style full-page-write recovery; this design
has no recovery/logging (an explicit non-goal), so that field is dropped.
*/
package page

import (
	"math"

	"github.com/pkg/errors"
)

// PageSize is the byte size of every page.
const PageSize = 8192

// PageID is the unique identifier given to each page within a relation fork.
type PageID uint32

const (
	// FirstPageID is the first page id within a fork's file.
	FirstPageID PageID = 0
	// InvalidPageID marks the absence of a page.
	InvalidPageID PageID = math.MaxUint32
	// MaxPageID is the largest page id that can be allocated.
	MaxPageID PageID = math.MaxUint32 - 1
)

// PagePtr is a pointer to a page's bytes. Pages are passed by pointer
// throughout -- copying 8KB per call would be slow, and would silently
// break every latch discipline built around "the buffer pool owns this
// memory."
type PagePtr *[PageSize]byte

// NewPagePtr returns a 0-filled page pointer.
func NewPagePtr() PagePtr {
	p := &[PageSize]byte{}
	return PagePtr(p)
}

// InitializePage initializes a freshly 0-filled page so it can be used,
// reserving specialSpaceSize bytes at the tail for whatever the access
// method on top wants to store there (table heap and hash bucket pages
// pass 0 and reserve nothing).
func InitializePage(p PagePtr, specialSpaceSize uint16) {
	SetFlags(p, 0)
	SetLowerOffset(p, slotsOffset)
	upper := offset(PageSize - specialSpaceSize)
	SetUpperOffset(p, upper)
	SetSpecialSpaceOffset(p, upper)
}

// IsInitialized reports whether InitializePage has run on p.
func IsInitialized(p PagePtr) bool {
	return GetUpperOffset(p) != 0
}

// CalculateFileOffset calculates pageID's byte offset within its fork's file.
func CalculateFileOffset(pageID PageID) int64 {
	return int64(pageID) * int64(PageSize)
}

// CalculateFreeSpace calculates the free space between the slot array and
// the item area.
func CalculateFreeSpace(p PagePtr) int {
	lower := GetLowerOffset(p)
	upper := GetUpperOffset(p)
	return int(upper - lower)
}

/*
CompactPage defragments the item area of a slotted page, reclaiming the
space left behind by slots that have been marked unused. It does not
compact the slot array itself: an unused slot stays allocated, at the same
index, even after the items around it are compacted.
*/
func CompactPage(p PagePtr) error {
	upperOffset := GetSpecialSpaceOffset(p)
	var constructed []byte

	nidx := GetNSlotIndex(p)
	if nidx == InvalidSlotIndex {
		return nil
	}
	for i := int(nidx); i >= int(FirstSlotIndex); i-- {
		slot, err := GetSlot(p, SlotIndex(i))
		if err != nil {
			return errors.Wrap(err, "GetSlot failed")
		}
		if IsUnused(slot) {
			continue
		}
		io := getItemOffset(slot)
		is := getItemSize(slot)
		item := p[io : io+itemOffset(is)]
		constructed = append(append([]byte(nil), item...), constructed...)

		upperOffset = upperOffset - offset(is)
		setItemOffset(slot, itemOffset(upperOffset))
	}
	size := len(constructed)
	copy(p[upperOffset:upperOffset+offset(size)], constructed)
	SetUpperOffset(p, offset(upperOffset))
	return nil
}
