package hash

import (
	"testing"

	"coredb/storage/page"

	"github.com/stretchr/testify/require"
)

func TestDirectoryGrowMirrorsSlots(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitDirectoryPage(p, 4))
	SetBucketPageID(p, 0, page.PageID(7))
	SetLocalDepth(p, 0, 0)

	require.NoError(t, IncrGlobalDepth(p))
	require.Equal(t, uint8(1), GlobalDepth(p))
	require.Equal(t, page.PageID(7), GetBucketPageID(p, 1))
	require.Equal(t, uint8(0), LocalDepth(p, 1))
}

func TestDirectorySplitImageIndex(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitDirectoryPage(p, 4))
	require.NoError(t, IncrGlobalDepth(p))
	require.NoError(t, IncrGlobalDepth(p))
	SetLocalDepth(p, 1, 2)

	require.Equal(t, uint32(3), GetSplitImageIndex(p, 1))
}

func TestDirectoryCanShrink(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitDirectoryPage(p, 4))
	require.NoError(t, IncrGlobalDepth(p))
	SetLocalDepth(p, 1, 1)
	require.False(t, CanShrink(p))

	SetLocalDepth(p, 1, 0)
	require.True(t, CanShrink(p))

	DecrGlobalDepth(p)
	require.Equal(t, uint8(0), GlobalDepth(p))
}

func TestHashToBucketIndex(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitDirectoryPage(p, 4))
	require.NoError(t, IncrGlobalDepth(p))
	require.NoError(t, IncrGlobalDepth(p))

	require.Equal(t, uint32(0), HashToBucketIndex(p, 0x00000000))
	require.Equal(t, uint32(3), HashToBucketIndex(p, 0x00000003))
	require.Equal(t, uint32(1), HashToBucketIndex(p, 0x00000005))
}
