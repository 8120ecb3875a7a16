package transaction

import (
	"testing"

	"coredb/common"

	"github.com/stretchr/testify/require"
)

func TestWatermarkTracksMinReadTs(t *testing.T) {
	w := NewWatermark(0)
	w.AddTxn(5)
	w.AddTxn(3)
	w.AddTxn(8)
	require.Equal(t, common.Timestamp(3), w.Get())

	w.RemoveTxn(3)
	require.Equal(t, common.Timestamp(5), w.Get())
}

func TestWatermarkFallsBackToCommitTs(t *testing.T) {
	w := NewWatermark(0)
	w.AddTxn(5)
	w.UpdateCommitTs(5)
	w.RemoveTxn(5)
	require.Equal(t, common.Timestamp(5), w.Get())
}

func TestWatermarkRefcountsDuplicateReadTs(t *testing.T) {
	w := NewWatermark(0)
	w.AddTxn(5)
	w.AddTxn(5)
	w.RemoveTxn(5)
	require.Equal(t, common.Timestamp(5), w.Get())
	w.RemoveTxn(5)
	require.Equal(t, common.Timestamp(0), w.Get())
}
