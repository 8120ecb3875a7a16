/*
descriptor carries the metadata the pool needs about one frame: which page
currently occupies it, how many pins are outstanding, whether it is dirty,
and whether a disk read/write is in flight for it.

Grounded on the teacher's storage/buffer/descriptor.go: the same idea of
packing replacement-relevant bits into one word so they can be read/set
with a CAS loop instead of a lock, and the same per-frame IO-in-progress
flag. The teacher packed pin count, usage count (clock-sweep) and a header
spin lock into the word; usage count and the header lock go away with
clock-sweep replaced by the LRU-K replacer (open question 1: no pool lock
is held while a fetched page is read in, so the IO flag -- not a held lock
-- is what callers wait on), and pin count becomes its own atomic int32
since it is read and incremented far more often than the flag bits.
*/
package buffer

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// descriptor is the metadata for one frame in the pool.
type descriptor struct {
	// tag identifies which page is currently loaded into the frame.
	// Protected by the manager's table lock, not by state.
	tag tag
	// pinCount is the number of outstanding pins on the frame. A frame
	// with pinCount > 0 must not be evicted.
	pinCount int32
	// state packs the dirty and io-in-progress flags.
	state uint32
	// contentLock protects the frame's page bytes for read/write.
	contentLock sync.RWMutex
	// nextFreeID links descriptors on the manager's free list.
	nextFreeID BufferID
}

const (
	descDirty        uint32 = 1 << 0
	descIOInProgress  uint32 = 1 << 1
)

// newDescriptors allocates poolSize descriptors, linked into a free list.
func newDescriptors(poolSize int) []*descriptor {
	descs := make([]*descriptor, poolSize)
	for i := range descs {
		descs[i] = &descriptor{nextFreeID: BufferID(i + 1)}
	}
	descs[poolSize-1].nextFreeID = freeListInvalidID
	return descs
}

func (d *descriptor) pin() {
	atomic.AddInt32(&d.pinCount, 1)
}

func (d *descriptor) unpin() int32 {
	return atomic.AddInt32(&d.pinCount, -1)
}

func (d *descriptor) pinCountValue() int32 {
	return atomic.LoadInt32(&d.pinCount)
}

func (d *descriptor) setDirty() {
	for {
		old := atomic.LoadUint32(&d.state)
		if old&descDirty != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&d.state, old, old|descDirty) {
			return
		}
	}
}

func (d *descriptor) clearDirty() {
	for {
		old := atomic.LoadUint32(&d.state)
		if old&descDirty == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&d.state, old, old&^descDirty) {
			return
		}
	}
}

func (d *descriptor) isDirty() bool {
	return atomic.LoadUint32(&d.state)&descDirty != 0
}

// setIOInProgress marks a disk read/write in flight for the frame. Other
// goroutines that want the same frame (identified by tag, before the table
// entry exists) should not observe a half-written frame; spinning on this
// flag is how they wait without holding the pool-wide table lock across a
// disk round trip.
func (d *descriptor) setIOInProgress() {
	for {
		old := atomic.LoadUint32(&d.state)
		if old&descIOInProgress != 0 {
			continue
		}
		if atomic.CompareAndSwapUint32(&d.state, old, old|descIOInProgress) {
			return
		}
	}
}

func (d *descriptor) clearIOInProgress() {
	for {
		old := atomic.LoadUint32(&d.state)
		if old&descIOInProgress == 0 {
			return
		}
		if atomic.CompareAndSwapUint32(&d.state, old, old&^descIOInProgress) {
			return
		}
	}
}

func (d *descriptor) isIOInProgress() bool {
	return atomic.LoadUint32(&d.state)&descIOInProgress != 0
}

// waitIOInProgress blocks until no disk read/write is in flight for the
// frame. A caller that found the frame's tag already installed in the
// page table -- either via the fast hit path or via allocateAndClaim's
// recheck -- hasn't necessarily waited for the winning FetchPage call's
// disk read to finish, and must not hand back a half-read frame.
func (d *descriptor) waitIOInProgress() {
	for d.isIOInProgress() {
		runtime.Gosched()
	}
}
