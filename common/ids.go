// Package common defines the identifier types shared by every layer of the
// storage core: the page/relation ids crossed by the disk and buffer layers,
// and the transaction/timestamp ids crossed by the MVCC layer.
package common

import "math"

// Relation is the identifier of a table or index the disk/buffer layers
// persist pages for. ppdb called this an oid; here it is just an opaque
// handle allocated by whatever owns the catalog (out of scope for this core).
type Relation uint32

// PageID is the unique identifier of a page within a relation fork.
// It is monotonic and never reused while any directory/header still
// references it.
type PageID uint32

const (
	// FirstPageID is the first page id ever allocated within a fork.
	FirstPageID PageID = 0
	// InvalidPageID marks an unallocated slot (header/directory entries,
	// free frame tags).
	InvalidPageID PageID = math.MaxUint32
	// NewPageID is passed by a caller that wants a fresh page extended
	// at fetch time, mirroring the teacher's ReadBuffer(NewPageID) idiom.
	NewPageID PageID = math.MaxUint32 - 1
)

// RID (row id / tuple id) identifies a tuple's slot within a table heap page.
type RID struct {
	PageID PageID
	Slot   uint16
}

// InvalidRID is the sentinel used where no row exists. It is not the zero
// RID, which addresses slot 0 of page 0.
var InvalidRID = RID{PageID: InvalidPageID, Slot: 0}

func (r RID) IsValid() bool {
	return r.PageID != InvalidPageID
}

// TxnID is a transaction identifier, assigned monotonically by the
// transaction manager's id allocator.
type TxnID uint64

const InvalidTxnID TxnID = 0

// Timestamp is either a commit timestamp (a small monotonic counter) or,
// with the high bit set, a transaction's own uncommitted "temp timestamp" —
// see TxnIDToTempTs/TempTsToTxnID.
type Timestamp uint64

const (
	// tempTsMask marks a Timestamp as an uncommitted writer's own stamp
	// rather than a committed value, so readers can tell the two apart
	// without a side table.
	tempTsMask Timestamp = 1 << 63

	// InvalidTimestamp is used for newly-inserted-then-deleted bookkeeping
	// (the abort path stamps a removed insert with timestamp 0).
	InvalidTimestamp Timestamp = 0
)

// TxnIDToTempTs converts a transaction id into the temp timestamp it stamps
// its own uncommitted writes with.
func TxnIDToTempTs(id TxnID) Timestamp {
	return Timestamp(id) | tempTsMask
}

// IsTempTs reports whether ts is an uncommitted writer's own stamp.
func IsTempTs(ts Timestamp) bool {
	return ts&tempTsMask != 0
}

// TempTsToTxnID recovers the owning transaction id from a temp timestamp.
func TempTsToTxnID(ts Timestamp) TxnID {
	return TxnID(ts &^ tempTsMask)
}
