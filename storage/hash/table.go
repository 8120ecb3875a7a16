package hash

import (
	"encoding/binary"

	"coredb/common"
	"coredb/config"
	"coredb/internal/obslog"
	"coredb/storage/buffer"
	"coredb/storage/disk"
	"coredb/storage/page"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

var hashLog = obslog.For("hash")

// Table is an on-disk extendible hash table mapping uint32 keys to RIDs,
// with a single header page for the relation stored at ForkNumberHashHeader
// page 0, directory pages in ForkNumberHashDirectory, and bucket pages in
// ForkNumberHashBucket.
//
// Grounded on disk_extendible_hash_table.cpp's Insert/Remove/GetValue: hash
// the key, look up the header for the directory page, look up the
// directory for the bucket page, then operate on the bucket, splitting or
// merging directory/bucket pairs as entries overflow or buckets empty out.
type Table struct {
	bpm *buffer.Manager
	rel common.Relation
	cfg config.Options
}

const headerPageID = page.FirstPageID

// NewTable opens (and, if this is the relation's first use, initializes)
// the extendible hash index backing rel.
func NewTable(bpm *buffer.Manager, rel common.Relation, cfg config.Options) (*Table, error) {
	t := &Table{bpm: bpm, rel: rel, cfg: cfg}
	npid, err := bpm.NPages(rel, disk.ForkNumberHashHeader)
	if err != nil {
		return nil, errors.Wrap(err, "NPages failed")
	}
	if npid == page.InvalidPageID {
		guard, err := bpm.NewPageWrite(rel, disk.ForkNumberHashHeader)
		if err != nil {
			return nil, errors.Wrap(err, "NewPageWrite failed")
		}
		if guard.PageID() != headerPageID {
			guard.Drop()
			return nil, errors.Errorf("hash header page id %d, want %d", guard.PageID(), headerPageID)
		}
		if err := InitHeaderPage(guard.Page(), cfg.HeaderMaxDepth); err != nil {
			guard.Drop()
			return nil, errors.Wrap(err, "InitHeaderPage failed")
		}
		guard.SetDirty()
		guard.Drop()
	}
	return t, nil
}

func hashKey(key uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], key)
	return uint32(xxhash.Sum64(b[:]))
}

// Lookup returns every value stored under key.
func (t *Table) Lookup(key uint32) ([]common.RID, error) {
	h := hashKey(key)

	header, err := t.bpm.FetchPageRead(t.rel, disk.ForkNumberHashHeader, headerPageID)
	if err != nil {
		return nil, errors.Wrap(err, "FetchPageRead header failed")
	}
	dirIdx := HashToDirectoryIndex(header.Page(), h)
	dirPID := GetDirectoryPageID(header.Page(), dirIdx)
	header.Drop()
	if dirPID == page.InvalidPageID {
		return nil, nil
	}

	dir, err := t.bpm.FetchPageRead(t.rel, disk.ForkNumberHashDirectory, dirPID)
	if err != nil {
		return nil, errors.Wrap(err, "FetchPageRead directory failed")
	}
	bucketIdx := HashToBucketIndex(dir.Page(), h)
	bucketPID := GetBucketPageID(dir.Page(), bucketIdx)
	dir.Drop()
	if bucketPID == page.InvalidPageID {
		return nil, nil
	}

	bucket, err := t.bpm.FetchPageRead(t.rel, disk.ForkNumberHashBucket, bucketPID)
	if err != nil {
		return nil, errors.Wrap(err, "FetchPageRead bucket failed")
	}
	defer bucket.Drop()
	return BucketLookup(bucket.Page(), key)
}

// Insert adds key -> value to the table, splitting buckets and growing
// directories as needed.
func (t *Table) Insert(key uint32, value common.RID) error {
	h := hashKey(key)

	header, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashHeader, headerPageID)
	if err != nil {
		return errors.Wrap(err, "FetchPageWrite header failed")
	}
	dirIdx := HashToDirectoryIndex(header.Page(), h)
	dirPID := GetDirectoryPageID(header.Page(), dirIdx)

	if dirPID == page.InvalidPageID {
		dirGuard, err := t.bpm.NewPageWrite(t.rel, disk.ForkNumberHashDirectory)
		if err != nil {
			header.Drop()
			return errors.Wrap(err, "NewPageWrite directory failed")
		}
		if err := InitDirectoryPage(dirGuard.Page(), t.cfg.DirectoryMaxDepth); err != nil {
			dirGuard.Drop()
			header.Drop()
			return errors.Wrap(err, "InitDirectoryPage failed")
		}
		dirGuard.SetDirty()
		dirPID = dirGuard.PageID()
		SetDirectoryPageID(header.Page(), dirIdx, dirPID)
		header.SetDirty()
		dirGuard.Drop()
	}
	header.Drop()

	return t.insertIntoDirectory(dirPID, h, key, value)
}

func (t *Table) insertIntoDirectory(dirPID page.PageID, h, key uint32, value common.RID) error {
	dir, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashDirectory, dirPID)
	if err != nil {
		return errors.Wrap(err, "FetchPageWrite directory failed")
	}
	bucketIdx := HashToBucketIndex(dir.Page(), h)
	bucketPID := GetBucketPageID(dir.Page(), bucketIdx)

	if bucketPID == page.InvalidPageID {
		bucketGuard, err := t.bpm.NewPageWrite(t.rel, disk.ForkNumberHashBucket)
		if err != nil {
			dir.Drop()
			return errors.Wrap(err, "NewPageWrite bucket failed")
		}
		InitBucketPage(bucketGuard.Page())
		bucketGuard.SetDirty()
		bucketPID = bucketGuard.PageID()
		SetBucketPageID(dir.Page(), bucketIdx, bucketPID)
		dir.SetDirty()
		bucketGuard.Drop()
	}

	bucket, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashBucket, bucketPID)
	if err != nil {
		dir.Drop()
		return errors.Wrap(err, "FetchPageWrite bucket failed")
	}

	if !BucketIsFull(bucket.Page(), t.cfg.BucketMaxSize) {
		err := BucketInsert(bucket.Page(), key, value)
		bucket.SetDirty()
		bucket.Drop()
		dir.Drop()
		return err
	}

	// Bucket is full: split it, possibly growing the directory first, then
	// retry the insert against the (now non-full, or freshly re-split)
	// bucket the key lands in.
	if err := t.splitBucket(dir, bucketIdx, bucketPID, bucket); err != nil {
		return errors.Wrap(err, "splitBucket failed")
	}
	return t.insertIntoDirectory(dirPID, h, key, value)
}

// splitBucket splits the full bucket at bucketIdx into two buckets,
// growing the directory first if every slot pointing at it already sits at
// the directory's global depth. dir and bucket are write-locked on entry
// and are dropped by this function before it returns.
func (t *Table) splitBucket(dir *buffer.WritePageGuard, bucketIdx uint32, bucketPID page.PageID, bucket *buffer.WritePageGuard) error {
	localDepth := LocalDepth(dir.Page(), bucketIdx)
	if localDepth == GlobalDepth(dir.Page()) {
		if GlobalDepth(dir.Page()) >= MaxDepth(dir.Page()) {
			hashLog.WithField("global_depth", GlobalDepth(dir.Page())).Warn("directory growth capacity exhausted")
			bucket.Drop()
			dir.Drop()
			return errors.New("bucket split needs directory growth past its configured max depth")
		}
		if err := IncrGlobalDepth(dir.Page()); err != nil {
			bucket.Drop()
			dir.Drop()
			return errors.Wrap(err, "IncrGlobalDepth failed")
		}
		dir.SetDirty()
	}

	IncrLocalDepth(dir.Page(), bucketIdx)
	newLocalDepth := LocalDepth(dir.Page(), bucketIdx)
	imageIdx := GetSplitImageIndex(dir.Page(), bucketIdx)

	// Every directory slot still pointing at bucketPID aliased it at the
	// old, one-lower local depth; all of them -- not just bucketIdx and
	// imageIdx -- must agree on the new depth, or later
	// GetSplitImageIndex/CanShrink/merge bookkeeping reads a stale value
	// for the slots this loop would otherwise skip.
	size := Size(dir.Page())
	for i := uint32(0); i < size; i++ {
		if GetBucketPageID(dir.Page(), i) == bucketPID {
			SetLocalDepth(dir.Page(), i, newLocalDepth)
		}
	}

	newBucket, err := t.bpm.NewPageWrite(t.rel, disk.ForkNumberHashBucket)
	if err != nil {
		bucket.Drop()
		dir.Drop()
		return errors.Wrap(err, "NewPageWrite failed")
	}
	InitBucketPage(newBucket.Page())

	keys, values, err := BucketEntries(bucket.Page())
	if err != nil {
		newBucket.Drop()
		bucket.Drop()
		dir.Drop()
		return errors.Wrap(err, "BucketEntries failed")
	}
	BucketClear(bucket.Page())
	for i, k := range keys {
		h := hashKey(k)
		idx := HashToBucketIndex(dir.Page(), h)
		if localDepthBit(idx, newLocalDepth) == localDepthBit(imageIdx, newLocalDepth) {
			if err := BucketInsert(newBucket.Page(), k, values[i]); err != nil {
				newBucket.Drop()
				bucket.Drop()
				dir.Drop()
				return errors.Wrap(err, "BucketInsert into new bucket failed")
			}
		} else {
			if err := BucketInsert(bucket.Page(), k, values[i]); err != nil {
				newBucket.Drop()
				bucket.Drop()
				dir.Drop()
				return errors.Wrap(err, "BucketInsert into old bucket failed")
			}
		}
	}

	// Every directory slot whose bucket id currently points at bucketPID
	// and whose bit pattern matches imageIdx's low bits at newLocalDepth
	// now points at the freshly split-off bucket instead; local depth for
	// the whole aliasing group was already set above.
	for i := uint32(0); i < size; i++ {
		if GetBucketPageID(dir.Page(), i) == bucketPID && localDepthBit(i, newLocalDepth) == localDepthBit(imageIdx, newLocalDepth) {
			SetBucketPageID(dir.Page(), i, newBucket.PageID())
		}
	}

	bucket.SetDirty()
	newBucket.SetDirty()
	newBucket.Drop()
	bucket.Drop()
	dir.Drop()
	return nil
}

func localDepthBit(idx uint32, depth uint8) uint32 {
	if depth == 0 {
		return 0
	}
	return idx & (uint32(1) << (depth - 1))
}

// Remove deletes the (key, value) entry, merging the bucket into its split
// image when it becomes empty and the directory allows shrinking.
func (t *Table) Remove(key uint32, value common.RID) (bool, error) {
	h := hashKey(key)

	header, err := t.bpm.FetchPageRead(t.rel, disk.ForkNumberHashHeader, headerPageID)
	if err != nil {
		return false, errors.Wrap(err, "FetchPageRead header failed")
	}
	dirIdx := HashToDirectoryIndex(header.Page(), h)
	dirPID := GetDirectoryPageID(header.Page(), dirIdx)
	header.Drop()
	if dirPID == page.InvalidPageID {
		return false, nil
	}

	dir, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashDirectory, dirPID)
	if err != nil {
		return false, errors.Wrap(err, "FetchPageWrite directory failed")
	}
	bucketIdx := HashToBucketIndex(dir.Page(), h)
	bucketPID := GetBucketPageID(dir.Page(), bucketIdx)
	if bucketPID == page.InvalidPageID {
		dir.Drop()
		return false, nil
	}

	bucket, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashBucket, bucketPID)
	if err != nil {
		dir.Drop()
		return false, errors.Wrap(err, "FetchPageWrite bucket failed")
	}
	found, err := BucketRemove(bucket.Page(), key, value)
	if err != nil {
		bucket.Drop()
		dir.Drop()
		return false, errors.Wrap(err, "BucketRemove failed")
	}
	if !found {
		bucket.Drop()
		dir.Drop()
		return false, nil
	}
	bucket.SetDirty()

	if BucketIsEmpty(bucket.Page()) {
		return true, t.mergeEmptyBucket(dir, bucketIdx, bucketPID, bucket)
	}
	bucket.Drop()
	dir.Drop()
	return true, nil
}

// mergeEmptyBucket folds an emptied bucket into its split image, and keeps
// folding the result into further images as long as one side of each pair
// is empty and their local depths still match, cascading through as many
// merge levels as the directory allows in one call (spec's Remove "Loop"
// step). dir and bucket are write-locked on entry and are dropped by this
// function.
func (t *Table) mergeEmptyBucket(dir *buffer.WritePageGuard, bucketIdx uint32, bucketPID page.PageID, bucket *buffer.WritePageGuard) error {
	for {
		localDepth := LocalDepth(dir.Page(), bucketIdx)
		if localDepth == 0 {
			break
		}
		imageIdx := GetSplitImageIndex(dir.Page(), bucketIdx)
		if LocalDepth(dir.Page(), imageIdx) != localDepth {
			break
		}
		imagePID := GetBucketPageID(dir.Page(), imageIdx)
		if imagePID == bucketPID {
			break
		}

		image, err := t.bpm.FetchPageWrite(t.rel, disk.ForkNumberHashBucket, imagePID)
		if err != nil {
			bucket.Drop()
			dir.Drop()
			return errors.Wrap(err, "FetchPageWrite image failed")
		}
		if !BucketIsEmpty(image.Page()) && !BucketIsEmpty(bucket.Page()) {
			image.Drop()
			break
		}

		keys, values, err := BucketEntries(image.Page())
		if err != nil {
			image.Drop()
			bucket.Drop()
			dir.Drop()
			return errors.Wrap(err, "BucketEntries failed")
		}
		for i, k := range keys {
			if err := BucketInsert(bucket.Page(), k, values[i]); err != nil {
				image.Drop()
				bucket.Drop()
				dir.Drop()
				return errors.Wrap(err, "BucketInsert during merge failed")
			}
		}
		bucket.SetDirty()
		image.Drop()

		newLocalDepth := localDepth - 1
		size := Size(dir.Page())
		for i := uint32(0); i < size; i++ {
			pid := GetBucketPageID(dir.Page(), i)
			if pid == bucketPID || pid == imagePID {
				SetBucketPageID(dir.Page(), i, bucketPID)
				SetLocalDepth(dir.Page(), i, newLocalDepth)
			}
		}
		dir.SetDirty()

		if _, err := t.bpm.DeletePage(t.rel, disk.ForkNumberHashBucket, imagePID); err != nil {
			bucket.Drop()
			dir.Drop()
			return errors.Wrap(err, "DeletePage failed")
		}
	}

	for CanShrink(dir.Page()) {
		DecrGlobalDepth(dir.Page())
	}
	bucket.Drop()
	dir.Drop()
	return nil
}
