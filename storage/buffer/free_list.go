/*
free_list.go hands out frames that have never held a page before falling
back to the LRU-K replacer. Grounded on the teacher's
storage/buffer/free_list.go.
*/
package buffer

const freeListInvalidID BufferID = -1

// allocateFromFreeList pops a frame off the free list, or returns
// InvalidBufferID if the list is empty. The caller holds m.allocMu.
func (m *Manager) allocateFromFreeList() BufferID {
	if m.freeList == freeListInvalidID {
		return InvalidBufferID
	}
	bufID := m.freeList
	m.freeList = m.descriptors[bufID].nextFreeID
	return bufID
}
