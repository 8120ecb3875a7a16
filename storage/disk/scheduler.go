package disk

import (
	"context"

	"coredb/common"
	"coredb/storage/page"

	"github.com/pkg/errors"
)

// Request is an asynchronous page-sized read or write, the only I/O path
// the design exposes to the buffer pool (§2, §6 "Disk scheduler (consumed)").
type Request struct {
	IsWrite bool
	Rel     common.Relation
	Fork    ForkNumber
	PageID  page.PageID
	// Buffer is read into on a read request, and is the source on a
	// write request.
	Buffer page.PagePtr
	// done receives exactly one Result when the request completes.
	done chan Result
}

// Result is the completion signal for a scheduled Request.
type Result struct {
	Err error
}

// Scheduler services Requests with a single worker goroutine. The buffer
// pool reads fetched pages through it without holding its pool latch (open
// question 1 in the design notes); the pool's victim write-backs and
// FlushPage wait on it while holding the pool's allocation lock.
type Scheduler struct {
	dm      *Manager
	queue   chan *Request
	closeCh chan struct{}
}

// NewScheduler starts a Scheduler backed by dm. Call Stop to shut the
// worker down.
func NewScheduler(dm *Manager) *Scheduler {
	s := &Scheduler{
		dm:      dm,
		queue:   make(chan *Request, 256),
		closeCh: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Scheduler) run() {
	for {
		select {
		case req := <-s.queue:
			s.service(req)
		case <-s.closeCh:
			return
		}
	}
}

func (s *Scheduler) service(req *Request) {
	var err error
	if req.IsWrite {
		err = s.dm.WritePage(req.Rel, req.Fork, req.PageID, req.Buffer, false)
	} else {
		err = s.dm.ReadPage(req.Rel, req.Fork, req.PageID, req.Buffer)
	}
	if err != nil {
		err = errors.Wrap(err, "disk i/o failed")
	}
	req.done <- Result{Err: err}
}

// Schedule enqueues req and returns a channel that receives its single
// Result once serviced.
func (s *Scheduler) Schedule(req *Request) <-chan Result {
	req.done = make(chan Result, 1)
	s.queue <- req
	return req.done
}

// ScheduleAndWait schedules req and blocks for its completion or ctx
// cancellation.
func (s *Scheduler) ScheduleAndWait(ctx context.Context, req *Request) error {
	done := s.Schedule(req)
	select {
	case res := <-done:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop shuts down the worker goroutine. Pending requests already taken off
// the queue still complete; requests left on the queue are dropped.
func (s *Scheduler) Stop() {
	close(s.closeCh)
}
