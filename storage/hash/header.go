/*
Package hash is the on-disk extendible hash table: a header page fanning
out to directory pages, each fanning out to bucket pages, so the table can
grow one bucket split at a time instead of rehashing everything at once.

Grounded on _examples/original_source/src/storage/page/
extendible_htable_header_page.cpp/extendible_htable_directory_page.cpp/
extendible_htable_bucket_page.cpp and
_examples/original_source/src/container/disk/hash/
disk_extendible_hash_table.cpp (CMU 15-445/BusTub), rewritten on top of
this module's storage/page slotted-page primitives: the teacher repo has
no hash index at all, so this package follows the teacher's marshaling
technique (fixed fields packed with binary.LittleEndian at constant
offsets, the same way storage/page/header.go and storage/tuple/heap.go
do it) rather than the teacher's own (nonexistent) hash code. Bucket
entries go through page.AddItem/page.GetItem so bucket pages share the
same slot bookkeeping table heap pages use, instead of a second hand-rolled
array format.

A header/directory page has no item/slot area of its own. page.InitializePage
is called with specialSpaceSize sized to the page's fields, but the fields
themselves are written at fixed offsets counted from the start of the page,
so they overlay the standard page header rather than sitting in the special
space at the page's tail.
*/
package hash

import (
	"encoding/binary"
	"math/bits"

	"coredb/storage/page"

	"github.com/pkg/errors"
)

const (
	headerDepthOffset    = 0
	headerCapacityOffset = 1
	headerDirIDsOffset   = 3
)

// headerSpecialSpaceSize returns how much of the page the header's fields
// occupy, given it can address up to 2^maxDepth directory pages.
func headerSpecialSpaceSize(maxDepth uint8) uint16 {
	capacity := uint32(1) << maxDepth
	return uint16(headerDirIDsOffset) + uint16(capacity)*4
}

// InitHeaderPage initializes a fresh header page with room for 2^maxDepth
// directory page ids, all unset.
func InitHeaderPage(p page.PagePtr, maxDepth uint8) error {
	size := headerSpecialSpaceSize(maxDepth)
	if int(size) > page.PageSize {
		return errors.Errorf("header max depth %d needs more space than one page has", maxDepth)
	}
	page.InitializePage(p, size)
	capacity := uint32(1) << maxDepth
	binary.LittleEndian.PutUint16(p[headerCapacityOffset:headerDirIDsOffset], uint16(capacity))
	setHeaderDepth(p, 0)
	for i := uint32(0); i < capacity; i++ {
		SetDirectoryPageID(p, i, page.InvalidPageID)
	}
	return nil
}

// headerCapacity returns 2^maxDepth, the number of directory slots the
// header was initialized with.
func headerCapacity(p page.PagePtr) uint32 {
	return uint32(binary.LittleEndian.Uint16(p[headerCapacityOffset:headerDirIDsOffset]))
}

// GetHeaderDepth returns the number of top hash bits currently used to
// index into the directory array.
func GetHeaderDepth(p page.PagePtr) uint8 {
	return p[headerDepthOffset]
}

func setHeaderDepth(p page.PagePtr, depth uint8) {
	p[headerDepthOffset] = depth
}

// HashToDirectoryIndex maps a hash to its directory slot using the header's
// top bits.
func HashToDirectoryIndex(p page.PagePtr, hash uint32) uint32 {
	depth := GetHeaderDepth(p)
	if depth == 0 {
		return 0
	}
	return hash >> (32 - depth)
}

// MaxHeaderDepth returns the depth at which the header's directory array is
// fully used, i.e. no more distinct directory pages can be created.
func MaxHeaderDepth(p page.PagePtr) uint8 {
	return uint8(bits.Len32(headerCapacity(p)) - 1)
}

func dirIDOffset(idx uint32) int {
	return headerDirIDsOffset + int(idx)*4
}

// GetDirectoryPageID returns the directory page id stored at idx.
func GetDirectoryPageID(p page.PagePtr, idx uint32) page.PageID {
	off := dirIDOffset(idx)
	return page.PageID(binary.LittleEndian.Uint32(p[off : off+4]))
}

// SetDirectoryPageID sets the directory page id stored at idx.
func SetDirectoryPageID(p page.PagePtr, idx uint32, id page.PageID) {
	off := dirIDOffset(idx)
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(id))
}

// IncrHeaderDepth grows the header by one bit, doubling the number of
// directory slots in use. It fails once the header's preallocated capacity
// (set at InitHeaderPage time) is exhausted.
func IncrHeaderDepth(p page.PagePtr) error {
	depth := GetHeaderDepth(p)
	if uint32(1)<<(depth+1) > headerCapacity(p) {
		return errors.New("header depth already at max")
	}
	setHeaderDepth(p, depth+1)
	return nil
}
