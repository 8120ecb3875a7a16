/*
Package executor is the thin operator layer integration tests drive the
storage and transaction core through. A real query engine's planner,
optimizer, and full operator set (joins, aggregation, sort, ...) are out
of scope -- see spec's Non-goals -- so this package only has the one
operator every other operator in such a system would be built on top of:
a table scan that walks a table heap's tuples and asks the transaction
manager whether each one is visible to the running transaction.

Grounded on the teacher's am.Manager.HeapSequentialScan for the shape of
the operation (walk pages, walk slots, check visibility, collect), fixing
its bug (it called m.dm.GetNPageID despite am.Manager never holding a dm
field) by going through storage/heap.Iterator and
transaction.Manager.ReadTuple instead of reaching into the buffer pool and
snapshot manager directly.
*/
package executor

import (
	"coredb/common"
	"coredb/storage/heap"
	"coredb/transaction"

	"github.com/pkg/errors"
)

// Operator is the capability every executor node implements: pull the next
// row, or report there are no more.
type Operator interface {
	Init() error
	Next() (common.RID, []byte, bool, error)
}

// TableScan walks every tuple in a table heap, visible or not, and
// resolves each one's MVCC-visible version for the given transaction.
type TableScan struct {
	txMgr *transaction.Manager
	txn   *transaction.Txn
	table *heap.Table
	it    *heap.Iterator
}

// NewTableScan returns a scan over table for txn, using txMgr to resolve
// visibility.
func NewTableScan(txMgr *transaction.Manager, txn *transaction.Txn, table *heap.Table) *TableScan {
	return &TableScan{txMgr: txMgr, txn: txn, table: table}
}

// Init positions the scan before the table heap's first tuple.
func (s *TableScan) Init() error {
	it, err := s.table.NewIterator()
	if err != nil {
		return errors.Wrap(err, "NewIterator failed")
	}
	s.it = it
	return nil
}

// Next returns the next visible tuple, skipping rows this scan's
// transaction cannot see. ok is false once the heap is exhausted.
func (s *TableScan) Next() (common.RID, []byte, bool, error) {
	for {
		found, err := s.it.Next()
		if err != nil {
			return common.InvalidRID, nil, false, errors.Wrap(err, "Next failed")
		}
		if !found {
			return common.InvalidRID, nil, false, nil
		}

		rid := s.it.RID()
		_, data, visible, err := s.txMgr.ReadTuple(s.txn, s.table, rid)
		if err != nil {
			return common.InvalidRID, nil, false, errors.Wrap(err, "ReadTuple failed")
		}
		if visible {
			return rid, data, true, nil
		}
	}
}
