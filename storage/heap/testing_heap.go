package heap

import (
	"coredb/common"
	"coredb/storage/buffer"
)

// TestingNewTable wraps an in-memory buffer pool into a fresh table heap.
func TestingNewTable(poolSize, replacerK int) *Table {
	bpm := buffer.TestingNewManager(poolSize, replacerK)
	return NewTable(bpm, common.Relation(1))
}
