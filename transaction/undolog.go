package transaction

import (
	"sync"

	"coredb/common"
)

// UndoLink points at one entry in some transaction's undo log, forming the
// reverse singly-linked chain of older versions a tuple's current row
// heads. It generalizes the teacher's ctid forward pointer run backwards:
// where postgres chains a tuple's successive versions forward via ctid,
// here each version points back at the one it replaced.
type UndoLink struct {
	PrevTxn    common.TxnID
	PrevLogIdx int
}

// InvalidUndoLink is the chain terminator: no older version exists.
var InvalidUndoLink = UndoLink{PrevTxn: common.InvalidTxnID}

// IsValid reports whether the link names a real undo log entry.
func (l UndoLink) IsValid() bool {
	return l.PrevTxn != common.InvalidTxnID
}

// UndoLog is a single prior version of a tuple: the data and meta it had
// before some transaction overwrote it, plus a link to the version before
// that.
type UndoLog struct {
	Ts      common.Timestamp
	Deleted bool
	Data    []byte
	Prev    UndoLink
}

// VersionStore maps a tuple's RID to the undo link at the head of its
// version chain. The chain's entries themselves live on the transactions
// that created them (Txn.undoLogs), not here; this is just the table of
// "which version chain does this RID's current row belong to".
//
// It also hands out the exclusive version-link lock storage/heap.go's
// UpdateTupleInPlace doc comment requires a caller hold: a striped lock
// keyed by RID, so a writer's read-check-conflict-append-undo-log-write
// sequence runs atomically against other writers of the same row without
// serializing against writers of unrelated rows.
type VersionStore struct {
	mu       sync.RWMutex
	links    map[common.RID]UndoLink
	rowLocks sync.Map // common.RID -> *sync.Mutex
}

// NewVersionStore returns an empty version store.
func NewVersionStore() *VersionStore {
	return &VersionStore{links: make(map[common.RID]UndoLink)}
}

// LockRow acquires the exclusive version-link lock for rid and returns a
// function that releases it. Callers must hold this lock across the whole
// read-modify-write sequence a write to rid performs, not just the
// individual GetUndoLink/UpdateUndoLink calls.
func (vs *VersionStore) LockRow(rid common.RID) func() {
	v, _ := vs.rowLocks.LoadOrStore(rid, &sync.Mutex{})
	l := v.(*sync.Mutex)
	l.Lock()
	return l.Unlock
}

// GetUndoLink returns the version chain head for rid, if any.
func (vs *VersionStore) GetUndoLink(rid common.RID) (UndoLink, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	link, ok := vs.links[rid]
	return link, ok
}

// UpdateUndoLink sets the version chain head for rid.
func (vs *VersionStore) UpdateUndoLink(rid common.RID, link UndoLink) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	vs.links[rid] = link
}
