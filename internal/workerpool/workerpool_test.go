package workerpool

import (
	"context"
	"sync"
	"testing"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/ipc"
	"fishnet/internal/logger"
)

type noopLogger struct{}

func (noopLogger) Debug(string, ...logger.Field)        {}
func (noopLogger) Info(string, ...logger.Field)         {}
func (noopLogger) Warn(string, ...logger.Field)         {}
func (noopLogger) Error(string, ...logger.Field)        {}
func (noopLogger) Fatal(string, ...logger.Field)        {}
func (n noopLogger) With(...logger.Field) logger.Logger { return n }
func (noopLogger) Sync() error                          { return nil }

// fakePuller hands out a fixed position to the first pull only, then blocks
// until stopped, recording every outcome it was handed back.
type fakePuller struct {
	mu       sync.Mutex
	pos      ipc.Position
	served   int
	outcomes []*ipc.PullOutcome
}

func (f *fakePuller) Pull(pull ipc.Pull) {
	f.mu.Lock()
	if pull.Outcome != nil {
		f.outcomes = append(f.outcomes, pull.Outcome)
	}
	served := f.served
	f.served++
	f.mu.Unlock()

	if served >= 1 {
		// Only hand out one position; afterwards behave like an empty
		// queue and let the pull hang until the worker's ctx is cancelled.
		<-pull.Ctx.Done()
		return
	}

	select {
	case pull.Callback <- f.pos:
	case <-pull.Ctx.Done():
	}
}

func (f *fakePuller) outcomeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.outcomes)
}

func TestPoolRunsEngineOnPulledPosition(t *testing.T) {
	puller := &fakePuller{pos: ipc.Position{
		Work:  api.Work{Kind: api.WorkKindMove, ID: "w1"},
		Nodes: 1, // tiny, so the simulated engine finishes almost instantly
	}}
	engine := NewSimulatedEngine(10_000_000)

	pool := NewPool("test", 1, puller, engine, noopLogger{})
	pool.Start()
	defer pool.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if puller.outcomeCount() >= 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected the pool to report an outcome after analysing the pulled position")
}

func TestPoolStopCancelsBlockedWorkers(t *testing.T) {
	puller := &fakePuller{pos: ipc.Position{
		Work:  api.Work{Kind: api.WorkKindMove, ID: "w2"},
		Nodes: 1,
	}}
	engine := NewSimulatedEngine(10_000_000)

	pool := NewPool("test", 2, puller, engine, noopLogger{})
	pool.Start()

	done := make(chan struct{})
	go func() {
		pool.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Stop to return once blocked workers are cancelled")
	}
}

func TestSimulatedEngineRespectsContextCancellation(t *testing.T) {
	engine := NewSimulatedEngine(1) // 1 node/sec: a single node still takes a full second
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Analyze(ctx, ipc.Position{Nodes: 1_000_000})
	if err == nil {
		t.Fatalf("expected a cancelled context to abort the simulated analysis")
	}
}

func TestSimulatedEngineReturnsPlausibleResponse(t *testing.T) {
	engine := NewSimulatedEngine(0) // defaults to 2,000,000
	if engine.NodesPerSecond != 2_000_000 {
		t.Fatalf("expected NewSimulatedEngine(0) to default nodes/sec, got %d", engine.NodesPerSecond)
	}

	pos := ipc.Position{Work: api.Work{Kind: api.WorkKindMove, ID: "w3"}, Nodes: 2_000_000}
	resp, err := engine.Analyze(context.Background(), pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Work.BatchID() != "w3" {
		t.Fatalf("expected response to carry the position's work identity")
	}
	if resp.Score.CP == nil {
		t.Fatalf("expected a centipawn score to be set")
	}
	if resp.NPS == nil || *resp.NPS != 2_000_000 {
		t.Fatalf("expected reported NPS to match the engine's configured rate")
	}
}

func TestManagerStartsAndStopsRegisteredPools(t *testing.T) {
	puller := &fakePuller{pos: ipc.Position{Work: api.Work{Kind: api.WorkKindMove, ID: "w4"}, Nodes: 1}}
	pool := NewPool("alias", 1, puller, NewSimulatedEngine(10_000_000), noopLogger{})

	manager := NewManager()
	manager.AddPool("alias", pool)

	if _, err := manager.Pool("missing"); err == nil {
		t.Fatalf("expected an error for an unregistered alias")
	}
	got, err := manager.Pool("alias")
	if err != nil || got != pool {
		t.Fatalf("expected Pool to return the registered pool, got %v, %v", got, err)
	}

	manager.StartAll()
	manager.StopAll()
}
