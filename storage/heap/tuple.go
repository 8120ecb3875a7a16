/*
Package heap is the table heap: an unordered, page-organized collection
of tuples identified by RID (page id + slot index). It replaces the
teacher's xmin/xmax/ctid/infomask tuple header -- postgres-style MVCC
bookkeeping for a pure snapshot/visibility scheme -- with the single
timestamp field and deleted flag this design's timestamp-ordering MVCC
needs (see transaction/): a tuple's header records only the timestamp of
the transaction that last wrote it and whether that write was a delete.
Visibility and undo chains live one layer up, in package transaction.

Grounded on the teacher's storage/tuple/heap.go for the on-disk layout
technique (a fixed-size header marshaled with binary.LittleEndian,
followed by variable-length data, stored as one page.Item per tuple).
*/
package heap

import (
	"encoding/binary"

	"coredb/common"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// TupleMeta is a tuple's header: who wrote it last, and whether that write
// deleted it.
type TupleMeta struct {
	Ts      common.Timestamp
	Deleted bool
}

const (
	tsOffset      = 0
	deletedOffset = 8
	tupleHeaderSize = 9
)

// marshalTuple lays out meta followed by data as one on-disk item.
func marshalTuple(meta TupleMeta, data []byte) page.ItemPtr {
	b := make([]byte, 0, tupleHeaderSize+len(data))
	b = binary.LittleEndian.AppendUint64(b, uint64(meta.Ts))
	if meta.Deleted {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	b = append(b, data...)
	return page.ItemPtr(b)
}

// unmarshalTuple splits a stored item back into its meta and data.
func unmarshalTuple(item page.ItemPtr) (TupleMeta, []byte, error) {
	if len(item) < tupleHeaderSize {
		return TupleMeta{}, nil, errors.Errorf("tuple item too short: %d bytes", len(item))
	}
	meta := TupleMeta{
		Ts:      common.Timestamp(binary.LittleEndian.Uint64(item[tsOffset:deletedOffset])),
		Deleted: item[deletedOffset] != 0,
	}
	data := make([]byte, len(item)-tupleHeaderSize)
	copy(data, item[tupleHeaderSize:])
	return meta, data, nil
}

// marshalMeta overwrites just the header of an already-stored item, used by
// UpdateTupleMeta so the tuple's data bytes are left untouched.
func marshalMeta(item page.ItemPtr, meta TupleMeta) {
	binary.LittleEndian.PutUint64(item[tsOffset:deletedOffset], uint64(meta.Ts))
	if meta.Deleted {
		item[deletedOffset] = 1
	} else {
		item[deletedOffset] = 0
	}
}
