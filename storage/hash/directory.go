package hash

import (
	"encoding/binary"
	"math/bits"

	"coredb/storage/page"

	"github.com/pkg/errors"
)

const (
	dirGlobalDepthOffset = 0
	dirCapacityOffset    = 1
	dirBucketIDsOffset   = 3
)

func directorySpecialSpaceSize(maxDepth uint8) uint16 {
	capacity := uint32(1) << maxDepth
	// bucket page ids (4 bytes each) followed by local depths (1 byte each).
	return uint16(dirBucketIDsOffset) + uint16(capacity)*5
}

// InitDirectoryPage initializes a fresh directory page with room for
// 2^maxDepth buckets, all unset.
func InitDirectoryPage(p page.PagePtr, maxDepth uint8) error {
	size := directorySpecialSpaceSize(maxDepth)
	if int(size) > page.PageSize {
		return errors.Errorf("directory max depth %d needs more space than one page has", maxDepth)
	}
	page.InitializePage(p, size)
	capacity := uint32(1) << maxDepth
	binary.LittleEndian.PutUint16(p[dirCapacityOffset:dirBucketIDsOffset], uint16(capacity))
	setGlobalDepth(p, 0)
	for i := uint32(0); i < capacity; i++ {
		SetBucketPageID(p, i, page.InvalidPageID)
		setLocalDepth(p, i, 0)
	}
	return nil
}

func directoryCapacity(p page.PagePtr) uint32 {
	return uint32(binary.LittleEndian.Uint16(p[dirCapacityOffset:dirBucketIDsOffset]))
}

func localDepthsOffset(p page.PagePtr) int {
	return dirBucketIDsOffset + int(directoryCapacity(p))*4
}

// GlobalDepth returns the number of low hash bits currently used to index
// into the bucket array.
func GlobalDepth(p page.PagePtr) uint8 {
	return p[dirGlobalDepthOffset]
}

func setGlobalDepth(p page.PagePtr, depth uint8) {
	p[dirGlobalDepthOffset] = depth
}

// MaxDepth returns the depth at which the directory's bucket array is fully
// used.
func MaxDepth(p page.PagePtr) uint8 {
	return uint8(bits.Len32(directoryCapacity(p)) - 1)
}

// HashToBucketIndex maps a hash to its bucket slot using the directory's
// low globalDepth bits.
func HashToBucketIndex(p page.PagePtr, hash uint32) uint32 {
	depth := GlobalDepth(p)
	if depth == 0 {
		return 0
	}
	return hash & (uint32(1)<<depth - 1)
}

func bucketIDOffset(idx uint32) int {
	return dirBucketIDsOffset + int(idx)*4
}

// GetBucketPageID returns the bucket page id stored at idx.
func GetBucketPageID(p page.PagePtr, idx uint32) page.PageID {
	off := bucketIDOffset(idx)
	return page.PageID(binary.LittleEndian.Uint32(p[off : off+4]))
}

// SetBucketPageID sets the bucket page id stored at idx.
func SetBucketPageID(p page.PagePtr, idx uint32, id page.PageID) {
	off := bucketIDOffset(idx)
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(id))
}

// LocalDepth returns the local depth of the bucket at idx.
func LocalDepth(p page.PagePtr, idx uint32) uint8 {
	return p[localDepthsOffset(p)+int(idx)]
}

func setLocalDepth(p page.PagePtr, idx uint32, depth uint8) {
	p[localDepthsOffset(p)+int(idx)] = depth
}

// SetLocalDepth sets the local depth of the bucket at idx.
func SetLocalDepth(p page.PagePtr, idx uint32, depth uint8) {
	setLocalDepth(p, idx, depth)
}

// IncrLocalDepth increments the local depth of the bucket at idx.
func IncrLocalDepth(p page.PagePtr, idx uint32) {
	setLocalDepth(p, idx, LocalDepth(p, idx)+1)
}

// DecrLocalDepth decrements the local depth of the bucket at idx.
func DecrLocalDepth(p page.PagePtr, idx uint32) {
	setLocalDepth(p, idx, LocalDepth(p, idx)-1)
}

// IncrGlobalDepth doubles the directory by growing its depth by one bit.
// Every existing slot idx is mirrored into idx+2^oldDepth, pointing at the
// same bucket with the same local depth, per the standard extendible
// hashing directory-doubling rule.
func IncrGlobalDepth(p page.PagePtr) error {
	depth := GlobalDepth(p)
	newSize := uint32(1) << (depth + 1)
	if newSize > directoryCapacity(p) {
		return errors.New("directory global depth already at max")
	}
	oldSize := uint32(1) << depth
	if depth == 0 {
		oldSize = 1
	}
	for i := uint32(0); i < oldSize; i++ {
		SetBucketPageID(p, i+oldSize, GetBucketPageID(p, i))
		setLocalDepth(p, i+oldSize, LocalDepth(p, i))
	}
	setGlobalDepth(p, depth+1)
	return nil
}

// CanShrink reports whether every bucket's local depth is strictly less
// than the directory's global depth, meaning DecrGlobalDepth would leave no
// bucket referenced by more than one directory slot than it started with.
func CanShrink(p page.PagePtr) bool {
	depth := GlobalDepth(p)
	if depth == 0 {
		return false
	}
	size := uint32(1) << depth
	for i := uint32(0); i < size; i++ {
		if LocalDepth(p, i) == depth {
			return false
		}
	}
	return true
}

// DecrGlobalDepth halves the directory, shrinking its depth by one bit.
func DecrGlobalDepth(p page.PagePtr) {
	setGlobalDepth(p, GlobalDepth(p)-1)
}

// Size returns the number of directory slots currently in use (2^globalDepth).
func Size(p page.PagePtr) uint32 {
	return uint32(1) << GlobalDepth(p)
}

// GetSplitImageIndex returns the directory index that bucketIdx's split
// partner occupies once bucketIdx's bucket is split: flipping the bit just
// below the bucket's local depth.
func GetSplitImageIndex(p page.PagePtr, bucketIdx uint32) uint32 {
	ld := LocalDepth(p, bucketIdx)
	if ld == 0 {
		return bucketIdx
	}
	return bucketIdx ^ (uint32(1) << (ld - 1))
}
