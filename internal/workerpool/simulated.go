package workerpool

import (
	"context"
	"math/rand"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/ipc"
)

// SimulatedEngine stands in for a real chess engine in -fake mode and in
// tests: it "analyses" a position by sleeping for a small, node-count
// proportional duration and returning a plausible but meaningless
// result. Its only error is ctx's, when ctx is cancelled mid-analysis.
type SimulatedEngine struct {
	// NodesPerSecond controls how fast the simulated engine burns
	// through a position's node budget. Zero selects a default of
	// 2,000,000, comfortably above the StatsRecorder seed so a fake run
	// looks like a healthy client.
	NodesPerSecond uint64
	rand           *rand.Rand
}

// NewSimulatedEngine returns a ready-to-use SimulatedEngine.
func NewSimulatedEngine(nodesPerSecond uint64) *SimulatedEngine {
	if nodesPerSecond == 0 {
		nodesPerSecond = 2_000_000
	}
	return &SimulatedEngine{
		NodesPerSecond: nodesPerSecond,
		rand:           rand.New(rand.NewSource(1)),
	}
}

// Analyze sleeps proportionally to pos.Nodes and returns a fabricated
// evaluation. It respects ctx cancellation instead of sleeping it out.
func (e *SimulatedEngine) Analyze(ctx context.Context, pos ipc.Position) (ipc.PositionResponse, error) {
	elapsed := time.Duration(float64(pos.Nodes) / float64(e.NodesPerSecond) * float64(time.Second))

	select {
	case <-time.After(elapsed):
	case <-ctx.Done():
		return ipc.PositionResponse{}, ctx.Err()
	}

	cp := int32(e.rand.Intn(200) - 100)
	nps := uint32(e.NodesPerSecond)

	return ipc.PositionResponse{
		Work:       pos.Work,
		PositionID: pos.PositionID,
		PV:         []string{},
		Depth:      20,
		Score:      api.Score{CP: &cp},
		Time:       elapsed,
		Nodes:      pos.Nodes,
		NPS:        &nps,
	}, nil
}
