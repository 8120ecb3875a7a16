package hash

import (
	"testing"

	"coredb/common"
	"coredb/storage/page"

	"github.com/stretchr/testify/require"
)

func TestBucketInsertLookupRemove(t *testing.T) {
	p := page.NewPagePtr()
	InitBucketPage(p)

	require.NoError(t, BucketInsert(p, 10, common.RID{PageID: 1, Slot: 0}))
	require.NoError(t, BucketInsert(p, 20, common.RID{PageID: 3, Slot: 0}))

	values, err := BucketLookup(p, 10)
	require.NoError(t, err)
	require.Equal(t, []common.RID{{PageID: 1, Slot: 0}}, values)

	require.Equal(t, 2, BucketSize(p))

	found, err := BucketRemove(p, 10, common.RID{PageID: 1, Slot: 0})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, BucketSize(p))

	found, err = BucketRemove(p, 10, common.RID{PageID: 1, Slot: 0})
	require.NoError(t, err)
	require.False(t, found)
}

func TestBucketInsertRejectsDuplicateKey(t *testing.T) {
	p := page.NewPagePtr()
	InitBucketPage(p)

	require.NoError(t, BucketInsert(p, 10, common.RID{PageID: 1, Slot: 0}))
	err := BucketInsert(p, 10, common.RID{PageID: 2, Slot: 0})
	require.ErrorIs(t, err, ErrDuplicateKey)

	values, err := BucketLookup(p, 10)
	require.NoError(t, err)
	require.Equal(t, []common.RID{{PageID: 1, Slot: 0}}, values)
	require.Equal(t, 1, BucketSize(p))
}

func TestBucketInsertKeepsSortedOrder(t *testing.T) {
	p := page.NewPagePtr()
	InitBucketPage(p)

	for _, k := range []uint32{30, 10, 20, 5} {
		require.NoError(t, BucketInsert(p, k, common.RID{PageID: common.PageID(k), Slot: 0}))
	}

	keys, _, err := BucketEntries(p)
	require.NoError(t, err)
	require.Equal(t, []uint32{5, 10, 20, 30}, keys)
}

func TestBucketIsFullIsEmpty(t *testing.T) {
	p := page.NewPagePtr()
	InitBucketPage(p)
	require.True(t, BucketIsEmpty(p))

	for i := uint32(0); i < 4; i++ {
		require.NoError(t, BucketInsert(p, i, common.RID{PageID: common.PageID(i), Slot: 0}))
	}
	require.True(t, BucketIsFull(p, 4))
	require.False(t, BucketIsEmpty(p))
}

func TestBucketEntries(t *testing.T) {
	p := page.NewPagePtr()
	InitBucketPage(p)
	require.NoError(t, BucketInsert(p, 1, common.RID{PageID: 1, Slot: 0}))
	require.NoError(t, BucketInsert(p, 2, common.RID{PageID: 2, Slot: 0}))

	keys, values, err := BucketEntries(p)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint32{1, 2}, keys)
	require.Len(t, values, 2)
}
