/*
bufferTable maps a page tag to the BufferID currently holding it. Grounded
on the teacher's storage/buffer/table.go: a single global map behind one
RWMutex rather than postgres's partitioned hash table.
*/
package buffer

import "sync"

type bufferTable struct {
	table map[tag]BufferID
	sync.RWMutex
}
