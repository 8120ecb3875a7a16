package transaction

import (
	"coredb/storage/hash"
	"coredb/storage/heap"
)

// TestingNewManagerAndTable returns a fresh transaction manager paired with
// a fresh in-memory table heap, the combination every test in this package
// exercises transactions against.
func TestingNewManagerAndTable() (*Manager, *heap.Table) {
	return NewManager(), heap.TestingNewTable(16, 2)
}

// TestingNewManagerTableAndIndex extends TestingNewManagerAndTable with a
// fresh primary-key index over its own pool, for tests that exercise
// InsertTuple's index-wiring path.
func TestingNewManagerTableAndIndex() (*Manager, *heap.Table, *hash.Table) {
	mgr, table := TestingNewManagerAndTable()
	return mgr, table, hash.TestingNewTable(16, 2)
}
