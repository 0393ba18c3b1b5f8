package queue

import "time"

// npsSeed is deliberately low: a fresh client under-advertises its
// throughput rather than over-advertising, so it starts out eligible
// only for shallow backlogs until it has proven itself.
const npsSeed = 1_500_000

// npsAlpha weights history heavily so a single noisy batch can't swing
// the slow-client gate.
const npsAlpha = 0.8

// referenceNodesPerBatch and bestBatchSeconds describe the reference
// top-tier client: sixty positions at four million nodes each, finished
// in one minute.
const (
	referenceNodesPerBatch = 60 * 4_000_000
	bestBatchSeconds       = 60
	maxEstimatedSeconds    = 6 * 60
)

// StatsRecorder is an exponentially smoothed throughput estimator. It is
// a plain value type: copying it (as QueueStub.Stats does) yields an
// independent snapshot.
type StatsRecorder struct {
	TotalBatches   uint64
	TotalPositions uint64
	TotalNodes     uint64
	nps            uint32
}

// NewStatsRecorder returns a recorder seeded at npsSeed.
func NewStatsRecorder() StatsRecorder {
	return StatsRecorder{nps: npsSeed}
}

// RecordBatch folds a just-completed batch's throughput into the
// smoothed estimate. The result is clamped to at least 1 so a batch
// that somehow reports zero nps can never collapse the estimate to a
// degenerate value that would make MinUserBacklog misbehave.
func (s *StatsRecorder) RecordBatch(positions, nodes uint64, nps uint32) {
	s.TotalBatches++
	s.TotalPositions += positions
	s.TotalNodes += nodes

	blended := float64(s.nps)*npsAlpha + float64(nps)*(1-npsAlpha)
	if blended < 1 {
		blended = 1
	}
	s.nps = uint32(blended)
}

// MinUserBacklog is the minimum queue depth this client should demand
// before accepting work: how far behind a top-tier client this one's
// estimated batch time would put it. A client at or above the reference
// throughput (4,000,000 nps) always returns zero.
func (s StatsRecorder) MinUserBacklog() time.Duration {
	nps := s.nps
	if nps == 0 {
		nps = 1
	}
	estimated := uint64(referenceNodesPerBatch) / uint64(nps)
	if estimated > maxEstimatedSeconds {
		estimated = maxEstimatedSeconds
	}
	if estimated <= bestBatchSeconds {
		return 0
	}
	return time.Duration(estimated-bestBatchSeconds) * time.Second
}
