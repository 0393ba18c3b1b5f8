// Package workerpool runs the local population of engine workers: each
// one repeatedly pulls a position from the queue, hands it to an
// Engine, and reports the result back on its next pull — the same
// pull/execute/report cycle a real fishnet worker runs against the
// coordinator, just in-process against QueueStub instead of over HTTP.
package workerpool

import (
	"context"
	"fmt"
	"sync"

	"fishnet/internal/ipc"
	"fishnet/internal/logger"
	"fishnet/internal/metrics"
)

// Puller is the subset of QueueStub a Pool needs; satisfied by
// *queue.QueueStub in production and a fake in tests.
type Puller interface {
	Pull(pull ipc.Pull)
}

// Pool runs a fixed number of worker goroutines against one queue.
type Pool struct {
	alias   string
	queue   Puller
	engine  Engine
	workers int
	log     logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool returns a pool of the given worker count, not yet started.
func NewPool(alias string, workers int, q Puller, engine Engine, log logger.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		alias:   alias,
		queue:   q,
		engine:  engine,
		workers: workers,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches one goroutine per worker slot.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

// Stop cancels every in-flight pull and waits for the goroutines to
// return. A worker blocked waiting on its callback unblocks as soon as
// its pull's context is cancelled, the same drop-the-receiver signal a
// real worker giving up mid-request sends.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) run(slot int) {
	defer p.wg.Done()

	var outcome *ipc.PullOutcome
	for {
		if p.ctx.Err() != nil {
			return
		}

		pullCtx, cancelPull := context.WithCancel(p.ctx)
		callback := make(chan ipc.Position, 1)
		p.queue.Pull(ipc.Pull{Ctx: pullCtx, Outcome: outcome, Callback: callback})

		select {
		case pos := <-callback:
			cancelPull()
			metrics.WorkersBusy.WithLabelValues(p.alias).Inc()
			resp, err := p.engine.Analyze(p.ctx, pos)
			metrics.WorkersBusy.WithLabelValues(p.alias).Dec()
			if err != nil {
				p.log.Warn("position analysis failed",
					logger.Field{Key: "pool", Value: p.alias},
					logger.Field{Key: "worker", Value: slot},
					logger.Field{Key: "error", Value: err.Error()},
				)
				failure := ipc.PullFailure{BatchID: pos.Work.BatchID()}
				outcome = &ipc.PullOutcome{Err: &failure}
				continue
			}
			outcome = &ipc.PullOutcome{OK: &resp}

		case <-p.ctx.Done():
			cancelPull()
			return
		}
	}
}

// Manager keeps a named set of pools, mirroring how a single fishnet
// process can run several worker populations side by side (e.g. one per
// configured engine variant).
type Manager struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[string]*Pool)}
}

// AddPool registers a pool under alias, replacing any previous entry.
func (m *Manager) AddPool(alias string, pool *Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[alias] = pool
}

// Pool returns the pool registered under alias, if any.
func (m *Manager) Pool(alias string) (*Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pool, ok := m.pools[alias]
	if !ok {
		return nil, fmt.Errorf("pool %s not found", alias)
	}
	return pool, nil
}

// StartAll starts every registered pool.
func (m *Manager) StartAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pool := range m.pools {
		pool.Start()
	}
}

// StopAll stops every registered pool and waits for it to drain.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, pool := range m.pools {
		pool.Stop()
	}
}
