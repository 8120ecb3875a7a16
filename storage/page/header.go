/*
Page is laid out as a slotted page, the same structure postgres uses:

  +----------------+---------------------------------+
  | PageHeaderData | linp1 linp2 linp3 ...            |
  +-----------+----+---------------------------------+
  | ... linpN |                                       |
  +-----------+---------------------------------------+
  |           ^ lowerOffset                           |
  |                                                    |
  |             v upperOffset                         |
  +-------------+--------------------------------------+
  |             | itemN ...                            |
  +-------------+------------------+-------------------+
  |       ... item3 item2 item1    | "special space"   |
  +---------------------------------+-------------------+

`linp` in the figure is a slot. The space between lowerOffset and
upperOffset is free space new items are inserted into. Slots grow down
from the header; items grow up from the end of the page.

Grounded on the teacher's storage/page/header.go. The teacher's header
also carried a postgres-style pd_lsn field, used to decide whether a dirty
page needs its WAL record flushed before write-back (the steal/no-force
buffer policy). There is no WAL here -- recovery/logging is an explicit
non-goal -- so the header drops straight to flags/lowerOffset/upperOffset/
specialSpaceOffset.
*/
package page

import "encoding/binary"

// offset is a byte offset within the page.
type offset uint16

// byte offsets of the page header fields.
const (
	flagsOffset              offset = 0
	lowerOffsetOffset        offset = flagsOffset + 2
	upperOffsetOffset        offset = lowerOffsetOffset + 2
	specialSpaceOffsetOffset offset = upperOffsetOffset + 2
	slotsOffset              offset = specialSpaceOffsetOffset + 2
)

// GetFlags returns the page's flags.
func GetFlags(p PagePtr) uint16 {
	return binary.LittleEndian.Uint16(p[flagsOffset:lowerOffsetOffset])
}

// SetFlags sets the page's flags.
func SetFlags(p PagePtr, flags uint16) {
	binary.LittleEndian.PutUint16(p[flagsOffset:lowerOffsetOffset], flags)
}

// GetLowerOffset returns the lower offset.
func GetLowerOffset(p PagePtr) offset {
	loc := binary.LittleEndian.Uint16(p[lowerOffsetOffset:upperOffsetOffset])
	return offset(loc)
}

// SetLowerOffset sets the lower offset.
func SetLowerOffset(p PagePtr, o offset) {
	binary.LittleEndian.PutUint16(p[lowerOffsetOffset:upperOffsetOffset], uint16(o))
}

// GetUpperOffset returns the upper offset.
func GetUpperOffset(p PagePtr) offset {
	loc := binary.LittleEndian.Uint16(p[upperOffsetOffset:specialSpaceOffsetOffset])
	return offset(loc)
}

// SetUpperOffset sets the upper offset.
func SetUpperOffset(p PagePtr, o offset) {
	binary.LittleEndian.PutUint16(p[upperOffsetOffset:specialSpaceOffsetOffset], uint16(o))
}

// GetSpecialSpaceOffset returns the special space offset.
func GetSpecialSpaceOffset(p PagePtr) offset {
	loc := binary.LittleEndian.Uint16(p[specialSpaceOffsetOffset:slotsOffset])
	return offset(loc)
}

// SetSpecialSpaceOffset sets the special space offset.
func SetSpecialSpaceOffset(p PagePtr, o offset) {
	binary.LittleEndian.PutUint16(p[specialSpaceOffsetOffset:slotsOffset], uint16(o))
}

// flags bits.
const (
	allVisible = 0x01
)

// IsAllVisible reports whether the allVisible flag is set.
func IsAllVisible(p PagePtr) bool {
	return GetFlags(p)&allVisible != 0
}

// SetAllVisible sets the allVisible flag.
func SetAllVisible(p PagePtr) {
	SetFlags(p, GetFlags(p)|allVisible)
}

// ClearAllVisible clears the allVisible flag.
func ClearAllVisible(p PagePtr) {
	SetFlags(p, GetFlags(p)&^allVisible)
}
