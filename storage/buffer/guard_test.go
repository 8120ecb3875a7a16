package buffer

import (
	"testing"

	"coredb/common"
	"coredb/storage/disk"

	"github.com/stretchr/testify/require"
)

func TestBasicPageGuardDropUnpins(t *testing.T) {
	m := TestingNewManager(4, 2)
	rel := common.Relation(1)

	g, err := m.NewPageGuarded(rel, disk.ForkNumberMain)
	require.NoError(t, err)
	require.Equal(t, int32(1), m.descriptors[g.bufID].pinCountValue())

	g.Drop()
	require.Equal(t, int32(0), m.descriptors[g.bufID].pinCountValue())

	// dropping twice is safe.
	g.Drop()
	require.Equal(t, int32(0), m.descriptors[g.bufID].pinCountValue())
}

func TestWritePageGuardMarksDirty(t *testing.T) {
	m := TestingNewManager(4, 2)
	rel := common.Relation(1)

	g, err := m.NewPageWrite(rel, disk.ForkNumberMain)
	require.NoError(t, err)
	g.Page()[0] = 0x42
	g.Drop()

	bufID, err := m.FetchPage(rel, disk.ForkNumberMain, g.PageID())
	require.NoError(t, err)
	require.True(t, m.descriptors[bufID].isDirty())
	require.NoError(t, m.UnpinPage(bufID, false))
}

func TestReadPageGuardAllowsConcurrentReaders(t *testing.T) {
	m := TestingNewManager(4, 2)
	rel := common.Relation(1)

	wg, err := m.NewPageWrite(rel, disk.ForkNumberMain)
	require.NoError(t, err)
	wg.Page()[0] = 7
	pageID := wg.PageID()
	wg.Drop()

	g1, err := m.FetchPageRead(rel, disk.ForkNumberMain, pageID)
	require.NoError(t, err)
	g2, err := m.FetchPageRead(rel, disk.ForkNumberMain, pageID)
	require.NoError(t, err)

	require.Equal(t, byte(7), g1.Page()[0])
	require.Equal(t, byte(7), g2.Page()[0])

	g1.Drop()
	g2.Drop()
}

func TestUpgradeReadAndWrite(t *testing.T) {
	m := TestingNewManager(4, 2)
	rel := common.Relation(1)

	basic, err := m.NewPageGuarded(rel, disk.ForkNumberMain)
	require.NoError(t, err)
	wg := basic.UpgradeWrite()
	wg.Page()[0] = 9
	wg.Drop()

	basic2, err := m.FetchPageGuarded(rel, disk.ForkNumberMain, wg.PageID())
	require.NoError(t, err)
	rg := basic2.UpgradeRead()
	require.Equal(t, byte(9), rg.Page()[0])
	rg.Drop()
}
