/*
Manager is the buffer pool: it caches fixed-size pages from relation forks
in memory, handing out pins so callers can read or mutate a page's bytes
without it being evicted out from under them, and using an LRU-K replacer
to pick a victim frame once the pool is full.

Grounded on the teacher's storage/buffer/manager.go for the overall shape
(a frame table mapping tags to buffer ids, a free list consulted before
any replacement policy runs, pin/unpin bracketing every access, a content
lock per frame for readers vs writers) and on
_examples/original_source/src/buffer/buffer_pool_manager.cpp for the
NewPage/FetchPage/UnpinPage/FlushPage/DeletePage operation set this
design asks for instead of the teacher's single ReadBuffer/ReleaseBuffer
pair. Disk I/O goes through a disk.Scheduler rather than disk.Manager
directly (open question 1: the frame being fetched is marked
IO-in-progress and every other caller waits on that flag instead of on a
held pool-wide lock, so no pool lock is held while a fetched page is read
from disk; writing back a dirty victim frame, and FlushPage, do hold
allocMu across the write).
*/
package buffer

import (
	"context"
	"sync"

	"coredb/common"
	"coredb/config"
	"coredb/internal/obslog"
	"coredb/storage/disk"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

var bufferLog = obslog.For("buffer")

// Manager is the shared buffer pool.
type Manager struct {
	dm    *disk.Manager
	sched *disk.Scheduler

	frames      []frame
	descriptors []*descriptor
	table       bufferTable
	replacer    *lruKReplacer

	// allocMu serializes victim selection so two callers racing to fetch
	// different missing pages never pick the same frame.
	allocMu  sync.Mutex
	freeList BufferID
}

// NewManager initializes the buffer pool against dm, sized and tuned by opts.
func NewManager(dm *disk.Manager, opts config.Options) *Manager {
	poolSize := opts.PoolSize
	return &Manager{
		dm:          dm,
		sched:       disk.NewScheduler(dm),
		frames:      newFrames(poolSize),
		descriptors: newDescriptors(poolSize),
		table:       bufferTable{table: make(map[tag]BufferID)},
		replacer:    newLRUKReplacer(opts.ReplacerK),
		freeList:    FirstBufferID,
	}
}

// Close stops the manager's disk scheduler.
func (m *Manager) Close() {
	m.sched.Stop()
}

// FetchPage pins and returns the buffer holding rel/forkNum/pageID, reading
// it from disk first if it isn't already cached.
func (m *Manager) FetchPage(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) (BufferID, error) {
	t := newTag(rel, forkNum, pageID)

	m.table.RLock()
	if bufID, ok := m.table.table[t]; ok {
		desc := m.descriptors[bufID]
		desc.pin()
		m.table.RUnlock()
		desc.waitIOInProgress()
		m.replacer.RecordAccess(bufID)
		m.replacer.SetEvictable(bufID, false)
		return bufID, nil
	}
	m.table.RUnlock()

	bufID, desc, claimed, err := m.allocateAndClaim(t)
	if err != nil {
		return InvalidBufferID, errors.Wrap(err, "allocateAndClaim failed")
	}
	if !claimed {
		// Another caller installed t while we waited for the allocation
		// lock: there is nothing left for us to read, just wait for its
		// read to finish before handing back the frame it claimed.
		desc.waitIOInProgress()
		m.replacer.RecordAccess(bufID)
		m.replacer.SetEvictable(bufID, false)
		return bufID, nil
	}

	desc.setIOInProgress()
	if err := m.sched.ScheduleAndWait(context.Background(), &disk.Request{
		IsWrite: false, Rel: rel, Fork: forkNum, PageID: pageID, Buffer: page.PagePtr(m.frames[bufID]),
	}); err != nil {
		desc.clearIOInProgress()
		return InvalidBufferID, errors.Wrap(err, "read page failed")
	}
	desc.clearIOInProgress()

	m.replacer.RecordAccess(bufID)
	m.replacer.SetEvictable(bufID, false)
	return bufID, nil
}

// NewPage extends forkNum with a fresh page, pins its buffer, and returns
// both.
func (m *Manager) NewPage(rel common.Relation, forkNum disk.ForkNumber) (BufferID, page.PageID, error) {
	pageID, err := m.dm.ExtendPage(rel, forkNum, false)
	if err != nil {
		return InvalidBufferID, page.InvalidPageID, errors.Wrap(err, "dm.ExtendPage failed")
	}
	t := newTag(rel, forkNum, pageID)

	bufID, _, _, err := m.allocateAndClaim(t)
	if err != nil {
		return InvalidBufferID, page.InvalidPageID, errors.Wrap(err, "allocateAndClaim failed")
	}
	*m.frames[bufID] = [frameSize]byte{}

	m.replacer.RecordAccess(bufID)
	m.replacer.SetEvictable(bufID, false)
	return bufID, pageID, nil
}

// allocateAndClaim picks a victim frame (free list first, then the
// replacer), flushing it if dirty and removing its old table entry, then
// installs t as the frame's new tag under the table lock. claimed is false
// when a racing caller already installed t's page while this call waited
// for allocMu: two callers missing the table for the same tag at once must
// not each claim a separate frame for it, so the table is rechecked here,
// under allocMu, before a victim is ever picked.
func (m *Manager) allocateAndClaim(t tag) (bufID BufferID, desc *descriptor, claimed bool, err error) {
	m.allocMu.Lock()
	defer m.allocMu.Unlock()

	m.table.RLock()
	if existing, ok := m.table.table[t]; ok {
		d := m.descriptors[existing]
		m.table.RUnlock()
		d.pin()
		return existing, d, false, nil
	}
	m.table.RUnlock()

	bufID = m.allocateFromFreeList()
	if bufID == InvalidBufferID {
		victim, ok := m.replacer.Evict()
		if !ok {
			bufferLog.WithField("pool_size", len(m.frames)).Warn("no evictable frame, pool exhausted")
			return InvalidBufferID, nil, false, errors.New("buffer pool exhausted: no evictable frame")
		}
		bufID = victim
	}
	desc = m.descriptors[bufID]

	if desc.tag.valid {
		if desc.isDirty() {
			if err := m.flushLocked(bufID); err != nil {
				bufferLog.WithField("buffer_id", bufID).WithError(err).Error("flush victim failed")
				return InvalidBufferID, nil, false, errors.Wrap(err, "flush victim failed")
			}
		}
		m.table.Lock()
		delete(m.table.table, desc.tag)
		m.table.Unlock()
	}

	desc.tag = t
	desc.pin()
	m.table.Lock()
	m.table.table[t] = bufID
	m.table.Unlock()
	return bufID, desc, true, nil
}

// UnpinPage releases one pin on bufID. isDirty marks the frame dirty if
// the caller modified the page before unpinning.
func (m *Manager) UnpinPage(bufID BufferID, isDirty bool) error {
	desc := m.descriptors[bufID]
	if isDirty {
		desc.setDirty()
	}
	remaining := desc.unpin()
	if remaining < 0 {
		return errors.Errorf("buffer %d unpinned more times than pinned", bufID)
	}
	if remaining == 0 {
		m.replacer.SetEvictable(bufID, true)
	}
	return nil
}

// FlushPage writes bufID's frame to disk regardless of its dirty bit, and
// clears the dirty bit on success.
func (m *Manager) FlushPage(bufID BufferID) error {
	m.allocMu.Lock()
	defer m.allocMu.Unlock()
	return m.flushLocked(bufID)
}

func (m *Manager) flushLocked(bufID BufferID) error {
	desc := m.descriptors[bufID]
	desc.setIOInProgress()
	defer desc.clearIOInProgress()
	if err := m.sched.ScheduleAndWait(context.Background(), &disk.Request{
		IsWrite: true, Rel: desc.tag.rel, Fork: desc.tag.forkNum, PageID: desc.tag.pageID,
		Buffer: page.PagePtr(m.frames[bufID]),
	}); err != nil {
		return errors.Wrap(err, "write page failed")
	}
	desc.clearDirty()
	return nil
}

// FlushAllPages flushes every dirty frame currently cached.
func (m *Manager) FlushAllPages() error {
	m.table.RLock()
	ids := make([]BufferID, 0, len(m.table.table))
	for _, id := range m.table.table {
		ids = append(ids, id)
	}
	m.table.RUnlock()

	for _, id := range ids {
		if m.descriptors[id].isDirty() {
			if err := m.FlushPage(id); err != nil {
				return errors.Wrap(err, "FlushPage failed")
			}
		}
	}
	return nil
}

// DeletePage evicts rel/forkNum/pageID from the pool outright, without
// writing it back. It reports false if the page is pinned and cannot be
// deleted right now.
func (m *Manager) DeletePage(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) (bool, error) {
	t := newTag(rel, forkNum, pageID)

	m.table.Lock()
	bufID, ok := m.table.table[t]
	if !ok {
		m.table.Unlock()
		return true, nil
	}
	desc := m.descriptors[bufID]
	if desc.pinCountValue() > 0 {
		m.table.Unlock()
		return false, nil
	}
	delete(m.table.table, t)
	m.table.Unlock()

	if err := m.replacer.Remove(bufID); err != nil {
		return false, errors.Wrap(err, "replacer.Remove failed")
	}
	desc.tag = tag{}
	desc.clearDirty()
	*m.frames[bufID] = [frameSize]byte{}

	m.allocMu.Lock()
	desc.nextFreeID = m.freeList
	m.freeList = bufID
	m.allocMu.Unlock()
	return true, nil
}

// NPages returns the id of the last page allocated in rel/forkNum, using
// the same convention as disk.Manager.GetNPageID: InvalidPageID means the
// fork is empty.
func (m *Manager) NPages(rel common.Relation, forkNum disk.ForkNumber) (page.PageID, error) {
	return m.dm.GetNPageID(rel, forkNum)
}

// FramePtr returns the raw page bytes behind bufID. Callers must hold the
// frame's pin and content lock (see AcquireContentLock) before touching it;
// page guards in guard.go are the intended way to do that.
func (m *Manager) FramePtr(bufID BufferID) page.PagePtr {
	return page.PagePtr(m.frames[bufID])
}

// AcquireContentLock locks bufID's content lock for read (exclusive=false)
// or write (exclusive=true).
func (m *Manager) AcquireContentLock(bufID BufferID, exclusive bool) {
	desc := m.descriptors[bufID]
	if exclusive {
		desc.contentLock.Lock()
	} else {
		desc.contentLock.RLock()
	}
}

// ReleaseContentLock releases a lock acquired by AcquireContentLock.
func (m *Manager) ReleaseContentLock(bufID BufferID, exclusive bool) {
	desc := m.descriptors[bufID]
	if exclusive {
		desc.contentLock.Unlock()
	} else {
		desc.contentLock.RUnlock()
	}
}
