package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUKEvictsInfiniteDistanceFirst(t *testing.T) {
	r := newLRUKReplacer(2)

	r.RecordAccess(1)
	r.RecordAccess(2)
	r.RecordAccess(3)
	r.RecordAccess(1) // frame 1 now has 2 accesses, frames 2 and 3 have 1

	r.SetEvictable(1, true)
	r.SetEvictable(2, true)
	r.SetEvictable(3, true)

	require.Equal(t, 3, r.Size())

	// frames 2 and 3 both have < k accesses (infinite backward distance);
	// frame 2 was touched first, so it goes first.
	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, BufferID(2), victim)

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, BufferID(3), victim)

	// only frame 1 remains, with a real k-distance.
	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, BufferID(1), victim)

	require.Equal(t, 0, r.Size())
}

func TestLRUKPinnedFramesNotEvicted(t *testing.T) {
	r := newLRUKReplacer(2)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.SetEvictable(1, true)
	r.SetEvictable(2, false)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, BufferID(1), victim)

	_, ok = r.Evict()
	require.False(t, ok)
}

func TestLRUKSetEvictableTogglesSize(t *testing.T) {
	r := newLRUKReplacer(2)
	r.RecordAccess(1)
	require.Equal(t, 0, r.Size())

	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(1, true)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(1, false)
	require.Equal(t, 0, r.Size())
}

func TestLRUKRemove(t *testing.T) {
	r := newLRUKReplacer(2)
	r.RecordAccess(1)
	r.SetEvictable(1, true)

	require.NoError(t, r.Remove(1))
	require.Equal(t, 0, r.Size())
}

func TestLRUKRemovePinnedFails(t *testing.T) {
	r := newLRUKReplacer(2)
	r.RecordAccess(1)
	require.Error(t, r.Remove(1))
}

func TestLRUKFavorsLargerKDistance(t *testing.T) {
	r := newLRUKReplacer(2)
	// frame 1: accesses at t=0, t=2 -> k-distance ref is t=0
	// frame 2: accesses at t=1, t=3 -> k-distance ref is t=1
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.RecordAccess(1)
	r.RecordAccess(2)
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, BufferID(1), victim)
}
