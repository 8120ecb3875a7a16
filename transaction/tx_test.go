package transaction

import (
	"testing"

	"coredb/common"

	"github.com/stretchr/testify/require"
)

func TestTxnTaintOnlyAffectsRunning(t *testing.T) {
	txn := newTxn(1, DefaultIsolationLevel, 0)
	txn.taint()
	require.Equal(t, StateTainted, txn.State())

	txn.setState(StateCommitted)
	txn.taint()
	require.Equal(t, StateCommitted, txn.State())
}

func TestTxnUndoLogRoundTrip(t *testing.T) {
	txn := newTxn(1, DefaultIsolationLevel, 0)
	idx := txn.appendUndoLog(UndoLog{Ts: 5, Data: []byte("old")})
	require.Equal(t, 0, idx)

	log, ok := txn.undoLogAt(idx)
	require.True(t, ok)
	require.Equal(t, common.Timestamp(5), log.Ts)

	_, ok = txn.undoLogAt(99)
	require.False(t, ok)
}

func TestTxnWriteSetTracksRIDs(t *testing.T) {
	txn := newTxn(1, DefaultIsolationLevel, 0)
	rid := common.RID{PageID: 1, Slot: 2}
	require.False(t, txn.writeSetContains(rid))

	txn.recordWrite(rid)
	require.True(t, txn.writeSetContains(rid))
	require.Equal(t, []common.RID{rid}, txn.WriteSet())
}
