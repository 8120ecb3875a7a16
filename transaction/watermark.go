package transaction

import (
	"sync"

	"coredb/common"
)

// Watermark tracks the oldest read timestamp any running transaction might
// still need, so the garbage collector knows which undo log versions are
// safe to drop: nothing is visible below it.
//
// Grounded on _examples/original_source/src/concurrency/watermark.cpp: a
// refcounted multiset of in-flight read timestamps, with the watermark
// itself cached so Get doesn't have to scan on every call. Its own
// shared/exclusive latch (rather than relying on a caller-held lock) is
// what lets Begin, Commit, and Abort each touch it under whatever lock
// they're already holding for their own purposes without racing each other.
type Watermark struct {
	mu         sync.RWMutex
	commitTs   common.Timestamp
	watermark  common.Timestamp
	readCounts map[common.Timestamp]int
}

// NewWatermark returns a watermark seeded at commitTs, the timestamp no
// version can ever be older than.
func NewWatermark(commitTs common.Timestamp) *Watermark {
	return &Watermark{
		commitTs:   commitTs,
		watermark:  commitTs,
		readCounts: make(map[common.Timestamp]int),
	}
}

// AddTxn registers a running transaction's read timestamp.
func (w *Watermark) AddTxn(readTs common.Timestamp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readCounts[readTs] > 0 {
		w.readCounts[readTs]++
		return
	}
	if len(w.readCounts) == 0 || readTs < w.watermark {
		w.watermark = readTs
	}
	w.readCounts[readTs] = 1
}

// RemoveTxn unregisters a transaction that just committed or aborted.
func (w *Watermark) RemoveTxn(readTs common.Timestamp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.readCounts[readTs] <= 1 {
		delete(w.readCounts, readTs)
	} else {
		w.readCounts[readTs]--
	}
	if readTs == w.watermark && len(w.readCounts) > 0 {
		w.watermark = w.minReadTs()
	}
}

// minReadTs assumes the caller already holds mu.
func (w *Watermark) minReadTs() common.Timestamp {
	min := common.Timestamp(0)
	first := true
	for ts := range w.readCounts {
		if first || ts < min {
			min = ts
			first = false
		}
	}
	return min
}

// UpdateCommitTs records the most recent commit timestamp. The caller must
// do this before RemoveTxn-ing the committing transaction's own read
// timestamp, so Get never reports a watermark newer than a just-committed
// version.
func (w *Watermark) UpdateCommitTs(commitTs common.Timestamp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.commitTs = commitTs
}

// Get returns the current watermark.
func (w *Watermark) Get() common.Timestamp {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.readCounts) == 0 {
		return w.commitTs
	}
	return w.watermark
}
