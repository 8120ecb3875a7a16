/*
Page guards are the RAII-style wrapper this design uses instead of raw
FetchPage/UnpinPage pairs: a BasicPageGuard owns exactly one pin and
releases it when Drop is called, and it can be upgraded into a
ReadPageGuard or WritePageGuard that additionally holds the frame's
content lock for the guard's lifetime.

Grounded on _examples/original_source/src/storage/page/page_guard.cpp
(CMU 15-445/BusTub). C++'s move-only guards and destructors have no Go
equivalent, so ownership transfer on upgrade is modeled explicitly with a
dropped flag instead of nulling out a moved-from object, and callers are
responsible for calling Drop exactly once (usually via defer) instead of
relying on scope exit.
*/
package buffer

import (
	"coredb/common"
	"coredb/storage/disk"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// BasicPageGuard owns a single pin on a buffer. It does not hold the
// frame's content lock; callers wanting concurrency-safe access to the
// page's bytes should call UpgradeRead or UpgradeWrite.
type BasicPageGuard struct {
	m       *Manager
	bufID   BufferID
	pageID  page.PageID
	dirty   bool
	dropped bool
}

// NewPageGuarded allocates a fresh page and returns a guard owning its pin.
func (m *Manager) NewPageGuarded(rel common.Relation, forkNum disk.ForkNumber) (*BasicPageGuard, error) {
	bufID, pageID, err := m.NewPage(rel, forkNum)
	if err != nil {
		return nil, errors.Wrap(err, "NewPage failed")
	}
	return &BasicPageGuard{m: m, bufID: bufID, pageID: pageID}, nil
}

// FetchPageGuarded pins rel/forkNum/pageID and returns a guard owning that
// pin.
func (m *Manager) FetchPageGuarded(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) (*BasicPageGuard, error) {
	bufID, err := m.FetchPage(rel, forkNum, pageID)
	if err != nil {
		return nil, errors.Wrap(err, "FetchPage failed")
	}
	return &BasicPageGuard{m: m, bufID: bufID, pageID: pageID}, nil
}

// Page returns the guarded page's bytes.
func (g *BasicPageGuard) Page() page.PagePtr { return g.m.FramePtr(g.bufID) }

// PageID returns the guarded page's id.
func (g *BasicPageGuard) PageID() page.PageID { return g.pageID }

// SetDirty marks the page dirty so Drop unpins it as dirty; the pool writes
// it back when the frame is evicted or flushed.
func (g *BasicPageGuard) SetDirty() { g.dirty = true }

// Drop releases the guard's pin. It is safe to call more than once.
func (g *BasicPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	_ = g.m.UnpinPage(g.bufID, g.dirty)
}

// UpgradeRead consumes the basic guard and returns a ReadPageGuard holding
// the frame's content lock for reading.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	g.m.AcquireContentLock(g.bufID, false)
	rg := &ReadPageGuard{inner: *g}
	g.dropped = true
	return rg
}

// UpgradeWrite consumes the basic guard and returns a WritePageGuard
// holding the frame's content lock for writing.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	g.m.AcquireContentLock(g.bufID, true)
	wg := &WritePageGuard{inner: *g}
	g.dropped = true
	return wg
}

// ReadPageGuard holds a pin plus a shared content lock.
type ReadPageGuard struct {
	inner BasicPageGuard
}

// FetchPageRead pins and read-locks rel/forkNum/pageID in one call.
func (m *Manager) FetchPageRead(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) (*ReadPageGuard, error) {
	g, err := m.FetchPageGuarded(rel, forkNum, pageID)
	if err != nil {
		return nil, err
	}
	return g.UpgradeRead(), nil
}

func (g *ReadPageGuard) Page() page.PagePtr  { return g.inner.Page() }
func (g *ReadPageGuard) PageID() page.PageID { return g.inner.pageID }

// Drop releases the content lock then the pin. Safe to call more than once.
func (g *ReadPageGuard) Drop() {
	if g.inner.dropped {
		return
	}
	g.inner.m.ReleaseContentLock(g.inner.bufID, false)
	g.inner.Drop()
}

// WritePageGuard holds a pin plus an exclusive content lock.
type WritePageGuard struct {
	inner BasicPageGuard
}

// NewPageWrite allocates a fresh page and write-locks it in one call.
func (m *Manager) NewPageWrite(rel common.Relation, forkNum disk.ForkNumber) (*WritePageGuard, error) {
	g, err := m.NewPageGuarded(rel, forkNum)
	if err != nil {
		return nil, err
	}
	return g.UpgradeWrite(), nil
}

// FetchPageWrite pins and write-locks rel/forkNum/pageID in one call.
func (m *Manager) FetchPageWrite(rel common.Relation, forkNum disk.ForkNumber, pageID page.PageID) (*WritePageGuard, error) {
	g, err := m.FetchPageGuarded(rel, forkNum, pageID)
	if err != nil {
		return nil, err
	}
	return g.UpgradeWrite(), nil
}

func (g *WritePageGuard) Page() page.PagePtr  { return g.inner.Page() }
func (g *WritePageGuard) PageID() page.PageID { return g.inner.pageID }
func (g *WritePageGuard) SetDirty()           { g.inner.dirty = true }

// Drop releases the content lock then the pin, marking the page dirty
// (a write guard's page is assumed modified). Safe to call more than once.
func (g *WritePageGuard) Drop() {
	if g.inner.dropped {
		return
	}
	g.inner.dirty = true
	g.inner.m.ReleaseContentLock(g.inner.bufID, true)
	g.inner.Drop()
}
