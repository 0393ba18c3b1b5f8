package queue

import (
	"context"
	"testing"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/ipc"
)

func newTestActor(t *testing.T, a api.ApiStub) (*QueueStub, *QueueActor) {
	t.Helper()
	stub, actor := NewQueue(1, a, ActorConfig{Log: noopLogger{}})
	return stub, actor
}

func TestActorAcquiresAndServesPosition(t *testing.T) {
	body := api.AcquireResponseBody{
		Work:     api.Work{Kind: api.WorkKindMove, ID: "a1"},
		Position: "startpos",
	}
	fake := &api.FakeAPI{
		AcquireFunc: func(ctx context.Context, q api.AcquireQuery) (*api.Acquired, error) {
			return &api.Acquired{Kind: api.AcquiredAccepted, Body: &body}, nil
		},
	}
	stub, actor := newTestActor(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go actor.Run(ctx)

	callback := make(chan ipc.Position, 1)
	pullCtx, pullCancel := context.WithTimeout(context.Background(), time.Second)
	defer pullCancel()
	stub.Pull(ipc.Pull{Ctx: pullCtx, Callback: callback})

	select {
	case pos := <-callback:
		if pos.Work.BatchID() != "a1" {
			t.Fatalf("expected position from batch a1, got %v", pos.Work.BatchID())
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for actor to acquire and serve a position")
	}
}

func TestActorBadRequestShutsDown(t *testing.T) {
	fake := &api.FakeAPI{
		AcquireFunc: func(ctx context.Context, q api.AcquireQuery) (*api.Acquired, error) {
			return &api.Acquired{Kind: api.AcquiredBadRequest}, nil
		},
	}
	stub, actor := newTestActor(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go actor.Run(ctx)

	pullCtx, pullCancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer pullCancel()
	stub.Pull(ipc.Pull{Ctx: pullCtx, Callback: make(chan ipc.Position, 1)})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		stub.mu.Lock()
		shutdown := stub.state.ShutdownSoon
		stub.mu.Unlock()
		if shutdown {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected BadRequest to set shutdown_soon within the deadline")
}

func TestShutdownAbortsPendingBatches(t *testing.T) {
	fake := &api.FakeAPI{}
	stub, _ := newTestActor(t, fake)

	body := api.AcquireResponseBody{
		Work:     api.Work{Kind: api.WorkKindAnalysis, ID: "a2"},
		Position: "startpos",
		Moves:    []string{"e2e4"},
	}
	batch := NewIncomingBatch(noopEndpoint(), body)

	stub.mu.Lock()
	stub.state.addIncomingBatch(fake, batch)
	stub.mu.Unlock()

	stub.Shutdown()

	if len(fake.Aborted()) != 1 {
		t.Fatalf("expected the still-pending batch to be aborted on shutdown")
	}
}
