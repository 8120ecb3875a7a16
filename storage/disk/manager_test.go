package disk

import (
	"testing"

	"coredb/common"
	"coredb/storage/page"

	"github.com/stretchr/testify/require"
)

func TestManagerExtendReadWrite(t *testing.T) {
	dm := TestingNewInMemoryManager()
	rel := common.Relation(1)

	npid, err := dm.GetNPageID(rel, ForkNumberMain)
	require.NoError(t, err)
	require.Equal(t, page.InvalidPageID, npid)

	pid, err := dm.ExtendPage(rel, ForkNumberMain, false)
	require.NoError(t, err)
	require.Equal(t, page.FirstPageID, pid)

	buf := page.NewPagePtr()
	buf[0] = 0xAB
	require.NoError(t, dm.WritePage(rel, ForkNumberMain, pid, buf, false))

	out := page.NewPagePtr()
	require.NoError(t, dm.ReadPage(rel, ForkNumberMain, pid, out))
	require.Equal(t, byte(0xAB), out[0])

	npid, err = dm.GetNPageID(rel, ForkNumberMain)
	require.NoError(t, err)
	require.Equal(t, page.FirstPageID, npid)

	pid2, err := dm.ExtendPage(rel, ForkNumberMain, false)
	require.NoError(t, err)
	require.Equal(t, page.FirstPageID+1, pid2)
}

func TestManagerForksAreIndependent(t *testing.T) {
	dm := TestingNewInMemoryManager()
	rel := common.Relation(7)

	mainID, err := dm.ExtendPage(rel, ForkNumberMain, false)
	require.NoError(t, err)
	hashID, err := dm.ExtendPage(rel, ForkNumberHashBucket, false)
	require.NoError(t, err)
	require.Equal(t, mainID, hashID)

	buf := page.NewPagePtr()
	buf[1] = 0x42
	require.NoError(t, dm.WritePage(rel, ForkNumberHashBucket, hashID, buf, false))

	out := page.NewPagePtr()
	require.NoError(t, dm.ReadPage(rel, ForkNumberMain, mainID, out))
	require.Equal(t, byte(0), out[1])
}

func TestManagerFileBackedRoundTrip(t *testing.T) {
	dm, err := TestingNewFileManager(t)
	require.NoError(t, err)
	rel := common.Relation(3)

	pid, err := dm.ExtendPage(rel, ForkNumberMain, true)
	require.NoError(t, err)

	buf := page.NewPagePtr()
	buf[100] = 9
	require.NoError(t, dm.WritePage(rel, ForkNumberMain, pid, buf, true))

	out := page.NewPagePtr()
	require.NoError(t, dm.ReadPage(rel, ForkNumberMain, pid, out))
	require.Equal(t, byte(9), out[100])
}
