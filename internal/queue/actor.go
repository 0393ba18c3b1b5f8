package queue

import (
	"context"
	"sync"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/config"
	"fishnet/internal/ipc"
	"fishnet/internal/logger"
	"fishnet/internal/metrics"
	"fishnet/internal/util"
)

// ActorConfig is the caller-supplied configuration a QueueActor needs:
// where the coordinator lives, the minimum backlog depth to insist on
// before acquiring, and where to log.
type ActorConfig struct {
	Endpoint config.Endpoint
	Backlog  config.BacklogOpt
	Log      logger.Logger
}

// QueueActor is the single goroutine that talks to the coordinator: it
// drains parked pulls from the mailbox, paces acquisition against the
// configured backlog targets, and feeds newly acquired batches back
// into QueueState.
type QueueActor struct {
	mailbox   *mailbox
	interrupt *util.Notify
	mu        *sync.Mutex
	state     *QueueState
	api       api.ApiStub

	endpoint config.Endpoint
	backlog  config.BacklogOpt
	backoff  *util.RandomizedBackoff
	log      logger.Logger
}

func newQueueActor(state *QueueState, mu *sync.Mutex, mb *mailbox, interrupt *util.Notify, a api.ApiStub, cfg ActorConfig) *QueueActor {
	return &QueueActor{
		mailbox:   mb,
		interrupt: interrupt,
		mu:        mu,
		state:     state,
		api:       a,
		endpoint:  cfg.Endpoint,
		backlog:   cfg.Backlog,
		backoff:   util.NewRandomizedBackoff(),
		log:       cfg.Log,
	}
}

// Run drives the actor until ctx is cancelled or the mailbox is closed
// and fully drained (i.e. until ShutdownSoon has closed the mailbox and
// every already-parked pull has been handled).
func (a *QueueActor) Run(ctx context.Context) {
	defer a.log.Debug("Queue actor exited")
	for {
		pull, ok := a.mailbox.recv(ctx)
		if !ok {
			return
		}
		a.servePull(ctx, pull)
	}
}

// servePull drives one pull through Responding -> WaitingBacklog ->
// Sleeping -> Acquiring, looping back to Responding whenever a new
// batch arrives, until the pull is satisfied, its worker gives up, a
// shutdown is requested, or the actor's own context is cancelled.
func (a *QueueActor) servePull(ctx context.Context, pull ipc.Pull) {
	for {
		a.mu.Lock()
		satisfied := a.state.respond(a.api, ipc.Pull{Ctx: pull.Ctx, Callback: pull.Callback})
		shutdownSoon := a.state.ShutdownSoon
		a.mu.Unlock()
		if satisfied || shutdownSoon {
			return
		}

		select {
		case <-pull.Ctx.Done():
			return
		default:
		}

		wait, slow := a.backlogWaitTime(ctx)

		select {
		case <-pull.Ctx.Done():
			return
		case <-ctx.Done():
			return
		case <-a.interrupt.C():
			continue
		case <-time.After(wait):
		}

		acquired, err := a.api.Acquire(ctx, api.AcquireQuery{Slow: slow})
		if err != nil {
			// Transport error: loop straight back to step 1. Rate
			// limiting this is the caller's responsibility, not ours.
			metrics.RecordAcquire("transport_error")
			continue
		}

		switch acquired.Kind {
		case api.AcquiredAccepted:
			metrics.RecordAcquire("accepted")
			a.backoff.Reset()
			batch := NewIncomingBatch(a.endpoint, *acquired.Body)
			a.mu.Lock()
			a.state.addIncomingBatch(a.api, batch)
			a.mu.Unlock()
			continue

		case api.AcquiredNoContent:
			metrics.RecordAcquire("no_content")
			delay := a.backoff.Next()
			select {
			case <-pull.Ctx.Done():
				return
			case <-ctx.Done():
				return
			case <-a.interrupt.C():
			case <-time.After(delay):
			}
			continue

		case api.AcquiredBadRequest:
			metrics.RecordAcquire("bad_request")
			a.log.Error("client update required, shutting down")
			a.mu.Lock()
			a.state.ShutdownSoon = true
			a.mu.Unlock()
			return
		}
	}
}

// backlogWaitTime computes how long to wait before the next acquire,
// and whether that acquire should be flagged slow. See spec note: wait
// long enough that the configured backlog depth has already built up on
// both sides by the time we ask, preferring whichever side drains
// first.
func (a *QueueActor) backlogWaitTime(ctx context.Context) (time.Duration, bool) {
	const sec = time.Second

	a.mu.Lock()
	minUserBacklog := a.state.Stats().MinUserBacklog()
	a.mu.Unlock()

	userBacklog := minUserBacklog
	if a.backlog.User != nil && *a.backlog.User > userBacklog {
		userBacklog = *a.backlog.User
	}
	systemBacklog := time.Duration(0)
	if a.backlog.System != nil {
		systemBacklog = *a.backlog.System
	}

	slowDefault := minUserBacklog >= sec
	if userBacklog < sec && systemBacklog < sec {
		return 0, slowDefault
	}

	status, err := a.api.Status(ctx)
	if err != nil || status == nil {
		return 0, slowDefault
	}

	userWait := userBacklog - status.User.Oldest
	if userWait < 0 {
		userWait = 0
	}
	systemWait := systemBacklog - status.System.Oldest
	if systemWait < 0 {
		systemWait = 0
	}

	slow := userWait >= systemWait+sec
	if userWait < systemWait {
		return userWait, slow
	}
	return systemWait, slow
}
