/*
Disk manager deals with the files under the base directory: one file per
relation fork (table heap, free-space map, and the three extendible-hash
forks). It is the only component that talks to the filesystem; everything
above it goes through the buffer pool, normally via a Scheduler.

Grounded on the teacher's storage/disk package: the same base-dir/relation/
fork file layout, and the same opener/storage indirection so tests can swap
in an in-memory buffer instead of a real file without touching any caller.
ReadPage/WritePage/ExtendPage/GetNPageID are filled in here; the teacher's
version declared the Manager type but never defined them even though
storage/buffer already called them.

This does not support database/schema namespacing or segmented files,
matching the teacher's stated scope.
*/
package disk

import (
	"io"
	"os"

	"coredb/common"
	"coredb/internal/obslog"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

var diskLog = obslog.For("disk")

// baseDir is the directory every relation fork file is created under.
var baseDir = "base/database"

// Manager is the synchronous, file-backed disk manager.
type Manager struct {
	opener opener
}

// NewManager initializes the disk manager against real files on disk.
func NewManager() (*Manager, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, errors.Wrap(err, "os.MkdirAll failed")
	}
	return &Manager{opener: newFileOpener()}, nil
}

// NewInMemoryManager initializes the disk manager against in-memory buffers
// instead of real files, so tests don't perform real I/O.
func NewInMemoryManager() *Manager {
	return &Manager{opener: newBufferOpener()}
}

// ReadPage reads the page at pageID of the given relation fork into dst.
func (m *Manager) ReadPage(rel common.Relation, forkNum ForkNumber, pageID page.PageID, dst page.PagePtr) error {
	st, err := m.opener.open(rel, forkNum)
	if err != nil {
		return errors.Wrap(err, "opener.open failed")
	}
	off := page.CalculateFileOffset(pageID)
	if _, err := st.Seek(off, io.SeekStart); err != nil {
		return errors.Wrap(err, "Seek failed")
	}
	if _, err := io.ReadFull(st, dst[:]); err != nil {
		diskLog.WithFields(map[string]interface{}{"fork": forkNum, "page_id": pageID}).WithError(err).Error("read page failed")
		return errors.Wrap(err, "ReadFull failed")
	}
	return nil
}

// WritePage writes src to pageID of the given relation fork.
// When sync is true the write is fsync'd before returning.
func (m *Manager) WritePage(rel common.Relation, forkNum ForkNumber, pageID page.PageID, src page.PagePtr, sync bool) error {
	st, err := m.opener.open(rel, forkNum)
	if err != nil {
		return errors.Wrap(err, "opener.open failed")
	}
	off := page.CalculateFileOffset(pageID)
	if _, err := st.Seek(off, io.SeekStart); err != nil {
		return errors.Wrap(err, "Seek failed")
	}
	if _, err := st.Write(src[:]); err != nil {
		diskLog.WithFields(map[string]interface{}{"fork": forkNum, "page_id": pageID}).WithError(err).Error("write page failed")
		return errors.Wrap(err, "Write failed")
	}
	if sync {
		if err := st.Sync(); err != nil {
			diskLog.WithFields(map[string]interface{}{"fork": forkNum, "page_id": pageID}).WithError(err).Error("fsync failed")
			return errors.Wrap(err, "Sync failed")
		}
	}
	return nil
}

// ExtendPage appends a fresh zero-filled page to the fork and returns its id.
func (m *Manager) ExtendPage(rel common.Relation, forkNum ForkNumber, sync bool) (page.PageID, error) {
	npid, err := m.GetNPageID(rel, forkNum)
	if err != nil {
		return page.InvalidPageID, errors.Wrap(err, "GetNPageID failed")
	}
	newID := page.FirstPageID
	if npid != page.InvalidPageID {
		newID = npid + 1
	}
	if err := m.WritePage(rel, forkNum, newID, page.NewPagePtr(), sync); err != nil {
		return page.InvalidPageID, errors.Wrap(err, "WritePage failed")
	}
	return newID, nil
}

// GetNPageID returns the id of the last allocated page within the fork, or
// page.InvalidPageID when the fork is still empty.
func (m *Manager) GetNPageID(rel common.Relation, forkNum ForkNumber) (page.PageID, error) {
	st, err := m.opener.open(rel, forkNum)
	if err != nil {
		return page.InvalidPageID, errors.Wrap(err, "opener.open failed")
	}
	size, err := st.Size()
	if err != nil {
		return page.InvalidPageID, errors.Wrap(err, "Size failed")
	}
	if size < page.PageSize {
		return page.InvalidPageID, nil
	}
	npages := size / page.PageSize
	return page.PageID(npages - 1), nil
}
