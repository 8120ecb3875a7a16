package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorPinUnpin(t *testing.T) {
	d := &descriptor{}
	d.pin()
	d.pin()
	require.Equal(t, int32(2), d.pinCountValue())

	require.Equal(t, int32(1), d.unpin())
	require.Equal(t, int32(0), d.unpin())
}

func TestDescriptorDirtyBit(t *testing.T) {
	d := &descriptor{}
	require.False(t, d.isDirty())
	d.setDirty()
	require.True(t, d.isDirty())
	d.clearDirty()
	require.False(t, d.isDirty())
}

func TestDescriptorIOInProgress(t *testing.T) {
	d := &descriptor{}
	require.False(t, d.isIOInProgress())
	d.setIOInProgress()
	require.True(t, d.isIOInProgress())
	d.clearIOInProgress()
	require.False(t, d.isIOInProgress())
}

func TestNewDescriptorsFreeListChain(t *testing.T) {
	descs := newDescriptors(3)
	require.Equal(t, BufferID(1), descs[0].nextFreeID)
	require.Equal(t, BufferID(2), descs[1].nextFreeID)
	require.Equal(t, freeListInvalidID, descs[2].nextFreeID)
}
