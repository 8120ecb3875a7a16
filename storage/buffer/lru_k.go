/*
LRU-K replacer picks the eviction victim among frames the pool has marked
evictable (pinCount == 0). A frame's backward k-distance is the time since
its k-th most recent access; frames with fewer than k recorded accesses
have an infinite backward k-distance and are evicted first, in the order
they were first touched.

Grounded on _examples/original_source/src/buffer/lru_k_replacer.cpp
(CMU 15-445/BusTub), translated into the teacher's idiom: a mutex-guarded
struct with the same five operations (RecordAccess/SetEvictable/Evict/
Remove/Size), rather than the C++ map-scan rewritten as anything cleverer
-- the teacher scans its full buffer set on every clock-sweep tick too, so
a linear scan over node_store on Evict matches the style of the codebase.
*/
package buffer

import (
	"sync"

	"github.com/pkg/errors"
)

type lruKNode struct {
	// history holds up to k timestamps of the most recent accesses,
	// oldest first.
	history   []uint64
	evictable bool
}

// backwardKDistanceRef returns the timestamp used to rank this node for
// eviction: the k-th most recent access if the node has been accessed at
// least k times, or the earliest recorded access otherwise.
func (n *lruKNode) backwardKDistanceRef() uint64 {
	return n.history[0]
}

func (n *lruKNode) hasKAccesses(k int) bool {
	return len(n.history) >= k
}

// lruKReplacer tracks eviction candidates for the buffer pool.
type lruKReplacer struct {
	mu        sync.Mutex
	k         int
	nodes     map[BufferID]*lruKNode
	evictable int
	clock     uint64
}

func newLRUKReplacer(k int) *lruKReplacer {
	return &lruKReplacer{k: k, nodes: make(map[BufferID]*lruKNode)}
}

// RecordAccess notes that bufID was just accessed.
func (r *lruKReplacer) RecordAccess(bufID BufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[bufID]
	if !ok {
		n = &lruKNode{}
		r.nodes[bufID] = n
	}
	n.history = append(n.history, r.clock)
	if len(n.history) > r.k {
		n.history = n.history[len(n.history)-r.k:]
	}
	r.clock++
}

// SetEvictable marks bufID as eligible (or ineligible) for eviction. The
// buffer pool calls this with false while a frame is pinned and true once
// its pin count drops to zero.
func (r *lruKReplacer) SetEvictable(bufID BufferID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[bufID]
	if !ok {
		n = &lruKNode{}
		r.nodes[bufID] = n
	}
	if n.evictable && !evictable {
		r.evictable--
	} else if !n.evictable && evictable {
		r.evictable++
	}
	n.evictable = evictable
}

// Evict picks a victim among evictable frames and removes its record.
func (r *lruKReplacer) Evict() (BufferID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.evictable == 0 {
		return InvalidBufferID, false
	}

	var victim BufferID = InvalidBufferID
	var haveLessThanK bool
	var best uint64 = ^uint64(0)

	for bufID, n := range r.nodes {
		if !n.evictable {
			continue
		}
		full := n.hasKAccesses(r.k)
		if haveLessThanK {
			if full {
				continue
			}
			if n.backwardKDistanceRef() < best {
				best = n.backwardKDistanceRef()
				victim = bufID
			}
			continue
		}
		if !full {
			haveLessThanK = true
			best = n.backwardKDistanceRef()
			victim = bufID
			continue
		}
		if n.backwardKDistanceRef() < best {
			best = n.backwardKDistanceRef()
			victim = bufID
		}
	}
	if victim == InvalidBufferID {
		return InvalidBufferID, false
	}
	delete(r.nodes, victim)
	r.evictable--
	return victim, true
}

// Remove drops bufID's record entirely, outside Evict's victim choice. The
// frame must be evictable: removing a non-evictable frame is an error, and
// removing a frame with no record is a no-op. The buffer pool calls this
// when a page is deleted outright.
func (r *lruKReplacer) Remove(bufID BufferID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[bufID]
	if !ok {
		return nil
	}
	if !n.evictable {
		return errors.Errorf("buffer %d is pinned, cannot remove from replacer", bufID)
	}
	delete(r.nodes, bufID)
	r.evictable--
	return nil
}

// Size returns the number of currently evictable frames.
func (r *lruKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictable
}
