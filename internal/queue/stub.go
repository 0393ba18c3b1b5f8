package queue

import (
	"context"
	"sync"

	"fishnet/internal/api"
	"fishnet/internal/ipc"
	"fishnet/internal/util"
)

// QueueStub is the thin, cheaply-shared handle every worker and the
// HTTP/metrics surfaces use to reach QueueState. All of its methods are
// safe for concurrent use from any number of goroutines.
type QueueStub struct {
	mu    sync.Mutex
	state *QueueState
	api   api.ApiStub

	mailbox   *mailbox
	interrupt *util.Notify
}

// Pull asks the queue for the next position. It either resolves pull's
// callback immediately (under the lock, against already-queued
// positions) or, if nothing is available, forwards it to the actor so
// it can go acquire more work from the coordinator.
func (q *QueueStub) Pull(pull ipc.Pull) {
	q.mu.Lock()
	satisfied := q.state.respond(q.api, pull)
	q.mu.Unlock()

	if satisfied {
		return
	}
	// The response, if any, was already ingested by the respond() call
	// above; the actor always re-tries with a bare callback. Whether the
	// mailbox actually accepted it doesn't change what the caller does
	// next — a rejected send only happens mid-shutdown, which the
	// worker's own ctx cancellation already handles.
	util.Nevermind(q.mailbox.send(ipc.Pull{Ctx: pull.Ctx, Callback: pull.Callback}))
}

// ShutdownSoon marks the queue as draining: no more pulls will be
// satisfied by acquiring new batches, the actor's mailbox stops
// accepting new pulls, and the actor is woken out of any sleep.
func (q *QueueStub) ShutdownSoon() {
	q.mu.Lock()
	q.state.ShutdownSoon = true
	q.mu.Unlock()

	q.mailbox.close()
	q.interrupt.Signal()
}

// Shutdown marks the queue draining and aborts every still-pending
// batch on the coordinator, since none of them will ever finish once
// dispatch stops.
func (q *QueueStub) Shutdown() {
	q.ShutdownSoon()

	q.mu.Lock()
	ids := make([]api.BatchID, 0, len(q.state.pending))
	for id := range q.state.pending {
		ids = append(ids, id)
	}
	for _, id := range ids {
		delete(q.state.pending, id)
	}
	q.mu.Unlock()

	for _, id := range ids {
		q.api.Abort(context.Background(), id)
	}
}

// Stats returns a point-in-time snapshot of the running throughput
// estimate.
func (q *QueueStub) Stats() StatsRecorder {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state.Stats()
}

// NewQueue wires a QueueStub and its QueueActor together over a shared
// QueueState, mailbox, and interrupt notifier. The caller is expected to
// run actor.Run in its own goroutine.
func NewQueue(cores int, a api.ApiStub, cfg ActorConfig) (*QueueStub, *QueueActor) {
	state := NewQueueState(cores, cfg.Log)
	mb := newMailbox()
	interrupt := util.NewNotify()

	stub := &QueueStub{
		state:     state,
		api:       a,
		mailbox:   mb,
		interrupt: interrupt,
	}
	actor := newQueueActor(state, &stub.mu, mb, interrupt, a, cfg)
	return stub, actor
}
