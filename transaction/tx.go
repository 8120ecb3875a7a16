package transaction

import (
	"sync"

	"coredb/common"
)

// Txn is a single transaction: its id, isolation level, read/commit
// timestamps, and the bookkeeping the manager needs to commit, abort, and
// garbage-collect it.
//
// Grounded on the teacher's Tx (transaction/tx.go), generalized from a
// txid+snapshot pair to the timestamp-ordering fields this design's
// transaction manager needs: ReadTs replaces the snapshot's xip array,
// CommitTs is assigned at commit instead of stored in clog, and writeSet
// plus undoLogs replace postgres's on-tuple xmin/xmax bookkeeping.
type Txn struct {
	id    common.TxnID
	level IsolationLevel

	mu        sync.RWMutex
	state     State
	readTs    common.Timestamp
	commitTs  common.Timestamp
	writeSet  map[common.RID]struct{}
	undoLogs  []UndoLog
}

// newTxn constructs a running transaction. Only the manager calls this.
func newTxn(id common.TxnID, level IsolationLevel, readTs common.Timestamp) *Txn {
	return &Txn{
		id:       id,
		level:    level,
		state:    StateRunning,
		readTs:   readTs,
		writeSet: make(map[common.RID]struct{}),
	}
}

// ID returns the transaction id.
func (tx *Txn) ID() common.TxnID {
	return tx.id
}

// IsolationLevel returns the transaction's isolation level.
func (tx *Txn) IsolationLevel() IsolationLevel {
	return tx.level
}

// ReadTs returns the timestamp this transaction's reads are pinned to.
func (tx *Txn) ReadTs() common.Timestamp {
	return tx.readTs
}

// CommitTs returns the transaction's commit timestamp. Only meaningful
// once State returns StateCommitted.
func (tx *Txn) CommitTs() common.Timestamp {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.commitTs
}

// State returns the transaction's current lifecycle state.
func (tx *Txn) State() State {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	return tx.state
}

func (tx *Txn) setState(s State) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.state = s
}

func (tx *Txn) setCommitTs(ts common.Timestamp) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.commitTs = ts
}

// taint marks a running transaction as tainted after a write-write
// conflict. A tainted transaction can still be aborted, but never committed.
func (tx *Txn) taint() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.state == StateRunning {
		tx.state = StateTainted
	}
}

func (tx *Txn) recordWrite(rid common.RID) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.writeSet[rid] = struct{}{}
}

// WriteSet returns a snapshot of the RIDs this transaction has written.
func (tx *Txn) WriteSet() []common.RID {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	rids := make([]common.RID, 0, len(tx.writeSet))
	for rid := range tx.writeSet {
		rids = append(rids, rid)
	}
	return rids
}

// writeSetContains reports whether this transaction already holds the
// first-write undo log for rid, so a second write to the same rid within
// one transaction can skip appending another undo log entry.
func (tx *Txn) writeSetContains(rid common.RID) bool {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	_, ok := tx.writeSet[rid]
	return ok
}

// appendUndoLog appends log to this transaction's own undo log slice and
// returns its index, to be stored in a UndoLink.
func (tx *Txn) appendUndoLog(log UndoLog) int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.undoLogs = append(tx.undoLogs, log)
	return len(tx.undoLogs) - 1
}

// undoLogAt returns the undo log this transaction stored at idx.
func (tx *Txn) undoLogAt(idx int) (UndoLog, bool) {
	tx.mu.RLock()
	defer tx.mu.RUnlock()
	if idx < 0 || idx >= len(tx.undoLogs) {
		return UndoLog{}, false
	}
	return tx.undoLogs[idx], true
}
