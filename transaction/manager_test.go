package transaction

import (
	"testing"

	"coredb/common"

	"github.com/stretchr/testify/require"
)

func TestInsertAndCommitIsVisibleAfterwards(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	txn := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(txn, table, index, 1, []byte("hello"))
	require.NoError(t, err)

	meta, data, visible, err := m.ReadTuple(txn, table, rid)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("hello"), data)
	require.True(t, common.IsTempTs(meta.Ts))

	ok, err := m.Commit(txn, table)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StateCommitted, txn.State())

	reader := m.Begin(DefaultIsolationLevel)
	_, data, visible, err = m.ReadTuple(reader, table, rid)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("hello"), data)
}

func TestInsertThenAbortHidesRow(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	txn := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(txn, table, index, 1, []byte("x"))
	require.NoError(t, err)
	m.Abort(txn, table)
	require.Equal(t, StateAborted, txn.State())

	reader := m.Begin(DefaultIsolationLevel)
	_, _, visible, err := m.ReadTuple(reader, table, rid)
	require.NoError(t, err)
	require.False(t, visible)
}

func TestUpdateUncommittedByOtherTxnConflicts(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)

	other := m.Begin(DefaultIsolationLevel)
	err = m.UpdateTuple(other, table, rid, []byte("v2"))
	require.ErrorIs(t, err, ErrWriteConflict)
	require.Equal(t, StateTainted, other.State())
}

func TestUpdateAfterCommitThenAbortRestoresOldVersion(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)
	ok, err := m.Commit(writer, table)
	require.NoError(t, err)
	require.True(t, ok)

	updater := m.Begin(DefaultIsolationLevel)
	require.NoError(t, m.UpdateTuple(updater, table, rid, []byte("v2")))
	m.Abort(updater, table)

	reader := m.Begin(DefaultIsolationLevel)
	_, data, visible, err := m.ReadTuple(reader, table, rid)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("v1"), data)
}

func TestRepeatableReadSeesSnapshotNotLaterCommit(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)
	ok, err := m.Commit(writer, table)
	require.NoError(t, err)
	require.True(t, ok)

	reader := m.Begin(DefaultIsolationLevel)

	updater := m.Begin(DefaultIsolationLevel)
	require.NoError(t, m.UpdateTuple(updater, table, rid, []byte("v2")))
	ok, err = m.Commit(updater, table)
	require.NoError(t, err)
	require.True(t, ok)

	_, data, visible, err := m.ReadTuple(reader, table, rid)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("v1"), data)

	fresh := m.Begin(DefaultIsolationLevel)
	_, data, visible, err = m.ReadTuple(fresh, table, rid)
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("v2"), data)
}

func TestSerializableAbortsOnWriteWriteOverlap(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)
	ok, err := m.Commit(writer, table)
	require.NoError(t, err)
	require.True(t, ok)

	a := m.Begin(IsolationSerializable)
	require.NoError(t, m.UpdateTuple(a, table, rid, []byte("va")))
	ok, err = m.Commit(a, table)
	require.NoError(t, err)
	require.True(t, ok)

	// b began before a committed (same read ts a started from) and its
	// write set is rebuilt here directly, bypassing the live write path,
	// since any live write-write collision on the same row is already
	// caught synchronously by UpdateTuple before verify ever runs. verify
	// exists for the case a transaction's write set overlaps a row a
	// later-committing transaction wrote without the two ever racing on a
	// live UpdateTuple call -- exactly what this constructs directly.
	b := newTxn(m.nextTxnID, IsolationSerializable, writer.CommitTs())
	m.mu.Lock()
	m.txns[b.ID()] = b
	m.nextTxnID++
	m.mu.Unlock()
	b.recordWrite(rid)

	ok, err = m.Commit(b, table)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateAborted, b.State())
}

func TestDeleteTupleThenReadNotVisible(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)
	ok, err := m.Commit(writer, table)
	require.NoError(t, err)
	require.True(t, ok)

	deleter := m.Begin(DefaultIsolationLevel)
	require.NoError(t, m.DeleteTuple(deleter, table, rid))
	ok, err = m.Commit(deleter, table)
	require.NoError(t, err)
	require.True(t, ok)

	reader := m.Begin(DefaultIsolationLevel)
	_, _, visible, err := m.ReadTuple(reader, table, rid)
	require.NoError(t, err)
	require.False(t, visible)
}

func TestInsertTupleRejectsDuplicateKeyAndTaints(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	first := m.Begin(DefaultIsolationLevel)
	_, err := m.InsertTuple(first, table, index, 42, []byte("v1"))
	require.NoError(t, err)

	second := m.Begin(DefaultIsolationLevel)
	_, err = m.InsertTuple(second, table, index, 42, []byte("v2"))
	require.ErrorIs(t, err, ErrDuplicateKey)
	require.Equal(t, StateTainted, second.State())

	ok, err := m.Commit(second, table)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, StateAborted, second.State())

	ok, err = m.Commit(first, table)
	require.NoError(t, err)
	require.True(t, ok)

	reader := m.Begin(DefaultIsolationLevel)
	values, err := index.Lookup(42)
	require.NoError(t, err)
	require.Len(t, values, 1)
	_, data, visible, err := m.ReadTuple(reader, table, values[0])
	require.NoError(t, err)
	require.True(t, visible)
	require.Equal(t, []byte("v1"), data)
}

func TestGarbageCollectDropsUnreferencedCompletedTxns(t *testing.T) {
	m, table, index := TestingNewManagerTableAndIndex()

	writer := m.Begin(DefaultIsolationLevel)
	rid, err := m.InsertTuple(writer, table, index, 1, []byte("v1"))
	require.NoError(t, err)
	ok, err := m.Commit(writer, table)
	require.NoError(t, err)
	require.True(t, ok)

	updater := m.Begin(DefaultIsolationLevel)
	require.NoError(t, m.UpdateTuple(updater, table, rid, []byte("v2")))
	ok, err = m.Commit(updater, table)
	require.NoError(t, err)
	require.True(t, ok)

	_, stillTracked := m.Lookup(writer.ID())
	require.True(t, stillTracked)

	m.GarbageCollect()

	_, stillTracked = m.Lookup(writer.ID())
	require.False(t, stillTracked)
	_, stillTracked = m.Lookup(updater.ID())
	require.True(t, stillTracked)
}
