package hash

import (
	"testing"

	"coredb/storage/page"

	"github.com/stretchr/testify/require"
)

func TestHeaderPageDirectoryIDs(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitHeaderPage(p, 3))
	require.Equal(t, uint8(0), GetHeaderDepth(p))

	require.NoError(t, IncrHeaderDepth(p))
	require.Equal(t, uint8(1), GetHeaderDepth(p))

	SetDirectoryPageID(p, 1, page.PageID(42))
	require.Equal(t, page.PageID(42), GetDirectoryPageID(p, 1))
	require.Equal(t, page.InvalidPageID, GetDirectoryPageID(p, 0))
}

func TestHeaderPageIncrDepthFailsPastMax(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitHeaderPage(p, 1))
	require.NoError(t, IncrHeaderDepth(p))
	require.Error(t, IncrHeaderDepth(p))
}

func TestHashToDirectoryIndex(t *testing.T) {
	p := page.NewPagePtr()
	require.NoError(t, InitHeaderPage(p, 4))
	require.NoError(t, IncrHeaderDepth(p))
	require.NoError(t, IncrHeaderDepth(p))

	require.Equal(t, uint32(0), HashToDirectoryIndex(p, 0x00000000))
	require.Equal(t, uint32(3), HashToDirectoryIndex(p, 0xFFFFFFFF))
	require.Equal(t, uint32(2), HashToDirectoryIndex(p, 0x80000000))
}
