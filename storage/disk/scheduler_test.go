package disk

import (
	"context"
	"testing"

	"coredb/common"
	"coredb/storage/page"

	"github.com/stretchr/testify/require"
)

func TestSchedulerReadWrite(t *testing.T) {
	dm := TestingNewInMemoryManager()
	sched := NewScheduler(dm)
	defer sched.Stop()

	rel := common.Relation(1)
	pid, err := dm.ExtendPage(rel, ForkNumberMain, false)
	require.NoError(t, err)

	wbuf := page.NewPagePtr()
	wbuf[5] = 0x7A
	err = sched.ScheduleAndWait(context.Background(), &Request{
		IsWrite: true, Rel: rel, Fork: ForkNumberMain, PageID: pid, Buffer: wbuf,
	})
	require.NoError(t, err)

	rbuf := page.NewPagePtr()
	err = sched.ScheduleAndWait(context.Background(), &Request{
		IsWrite: false, Rel: rel, Fork: ForkNumberMain, PageID: pid, Buffer: rbuf,
	})
	require.NoError(t, err)
	require.Equal(t, byte(0x7A), rbuf[5])
}

func TestSchedulerConcurrentRequests(t *testing.T) {
	dm := TestingNewInMemoryManager()
	sched := NewScheduler(dm)
	defer sched.Stop()

	rel := common.Relation(2)
	const n = 8
	ids := make([]page.PageID, n)
	for i := 0; i < n; i++ {
		pid, err := dm.ExtendPage(rel, ForkNumberMain, false)
		require.NoError(t, err)
		ids[i] = pid
	}

	results := make([]<-chan Result, n)
	for i, pid := range ids {
		buf := page.NewPagePtr()
		buf[0] = byte(i)
		results[i] = sched.Schedule(&Request{IsWrite: true, Rel: rel, Fork: ForkNumberMain, PageID: pid, Buffer: buf})
	}
	for i, ch := range results {
		res := <-ch
		require.NoError(t, res.Err, "request %d", i)
	}
}
