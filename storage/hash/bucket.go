package hash

import (
	"encoding/binary"
	"sort"

	"coredb/common"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// entrySize is the marshaled size of one (key, RID) bucket entry: a 4-byte
// key plus a 6-byte RID (4-byte page id, 2-byte slot index).
const entrySize = 4 + 6

// ErrDuplicateKey is returned by BucketInsert when key is already present.
// This index backs a primary key, so keys are unique within a bucket, not
// a multimap.
var ErrDuplicateKey = errors.New("duplicate key")

// InitBucketPage initializes a fresh, empty bucket page.
func InitBucketPage(p page.PagePtr) {
	page.InitializePage(p, 0)
}

func marshalEntry(key uint32, value common.RID) page.ItemPtr {
	item := make(page.ItemPtr, entrySize)
	binary.LittleEndian.PutUint32(item[0:4], key)
	binary.LittleEndian.PutUint32(item[4:8], uint32(value.PageID))
	binary.LittleEndian.PutUint16(item[8:10], value.Slot)
	return item
}

func unmarshalEntry(item page.ItemPtr) (uint32, common.RID) {
	key := binary.LittleEndian.Uint32(item[0:4])
	rid := common.RID{
		PageID: common.PageID(binary.LittleEndian.Uint32(item[4:8])),
		Slot:   binary.LittleEndian.Uint16(item[8:10]),
	}
	return key, rid
}

// BucketLookup returns the value stored under key, if any. Entries are
// kept in ascending key order (see BucketInsert), so this resolves with a
// binary search rather than a scan.
func BucketLookup(p page.PagePtr, key uint32) ([]common.RID, error) {
	keys, values, err := BucketEntries(p)
	if err != nil {
		return nil, errors.Wrap(err, "BucketEntries failed")
	}
	pos := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if pos >= len(keys) || keys[pos] != key {
		return nil, nil
	}
	return []common.RID{values[pos]}, nil
}

// BucketInsert inserts (key, value) into the bucket at its sorted
// position, rejecting the insert with ErrDuplicateKey if key is already
// present. Callers must check BucketIsFull first; this does not enforce a
// capacity itself since the configured max bucket size is a policy knob,
// not a page-format limit.
func BucketInsert(p page.PagePtr, key uint32, value common.RID) error {
	keys, values, err := BucketEntries(p)
	if err != nil {
		return errors.Wrap(err, "BucketEntries failed")
	}
	pos := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if pos < len(keys) && keys[pos] == key {
		return ErrDuplicateKey
	}

	newKeys := make([]uint32, 0, len(keys)+1)
	newKeys = append(newKeys, keys[:pos]...)
	newKeys = append(newKeys, key)
	newKeys = append(newKeys, keys[pos:]...)
	newValues := make([]common.RID, 0, len(values)+1)
	newValues = append(newValues, values[:pos]...)
	newValues = append(newValues, value)
	newValues = append(newValues, values[pos:]...)

	return rewriteBucket(p, newKeys, newValues)
}

// BucketRemove deletes the entry matching (key, value) exactly, reporting
// whether one was found. Unlike Insert/Lookup this scans linearly: it must
// match both fields, not just the key, so a binary search on key alone
// doesn't help it stop early.
func BucketRemove(p page.PagePtr, key uint32, value common.RID) (bool, error) {
	keys, values, err := BucketEntries(p)
	if err != nil {
		return false, errors.Wrap(err, "BucketEntries failed")
	}
	pos := -1
	for i, k := range keys {
		if k == key && values[i] == value {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false, nil
	}
	keys = append(keys[:pos], keys[pos+1:]...)
	values = append(values[:pos], values[pos+1:]...)

	if err := rewriteBucket(p, keys, values); err != nil {
		return false, err
	}
	return true, nil
}

// rewriteBucket reinitializes the bucket page and reinserts keys/values in
// order, so the physical slot order always matches sorted key order and
// BucketLookup/BucketInsert's binary search stays valid.
func rewriteBucket(p page.PagePtr, keys []uint32, values []common.RID) error {
	BucketClear(p)
	for i, k := range keys {
		idx, err := page.NextFreeSlotIndex(p)
		if err != nil {
			return errors.Wrap(err, "NextFreeSlotIndex failed")
		}
		if err := page.AddItem(p, marshalEntry(k, values[i]), idx); err != nil {
			return errors.Wrap(err, "AddItem failed")
		}
	}
	return nil
}

// BucketSize returns the number of live entries in the bucket.
func BucketSize(p page.PagePtr) int {
	nidx := page.GetNSlotIndex(p)
	if nidx == page.InvalidSlotIndex {
		return 0
	}
	count := 0
	for i := page.FirstSlotIndex; i <= nidx; i++ {
		slot, err := page.GetSlot(p, i)
		if err != nil {
			continue
		}
		if !page.IsUnused(slot) {
			count++
		}
	}
	return count
}

// BucketIsFull reports whether the bucket already holds maxSize entries.
func BucketIsFull(p page.PagePtr, maxSize int) bool {
	return BucketSize(p) >= maxSize
}

// BucketIsEmpty reports whether the bucket holds no entries.
func BucketIsEmpty(p page.PagePtr) bool {
	return BucketSize(p) == 0
}

// BucketEntries returns every live (key, value) pair in the bucket, used to
// redistribute entries across the two halves of a split and to merge a
// bucket's entries into its split image.
func BucketEntries(p page.PagePtr) ([]uint32, []common.RID, error) {
	nidx := page.GetNSlotIndex(p)
	if nidx == page.InvalidSlotIndex {
		return nil, nil, nil
	}
	var keys []uint32
	var values []common.RID
	for i := page.FirstSlotIndex; i <= nidx; i++ {
		slot, err := page.GetSlot(p, i)
		if err != nil {
			return nil, nil, errors.Wrap(err, "GetSlot failed")
		}
		if page.IsUnused(slot) {
			continue
		}
		item, err := page.GetItem(p, i)
		if err != nil {
			return nil, nil, errors.Wrap(err, "GetItem failed")
		}
		k, v := unmarshalEntry(item)
		keys = append(keys, k)
		values = append(values, v)
	}
	return keys, values, nil
}

// BucketClear removes every entry from the bucket by reinitializing it.
func BucketClear(p page.PagePtr) {
	page.InitializePage(p, 0)
}
