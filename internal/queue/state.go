package queue

import (
	"container/list"
	"context"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/ipc"
	"fishnet/internal/logger"
	"fishnet/internal/metrics"
)

// QueueState is the single piece of shared mutable state in the queue
// subsystem: the FIFO of positions waiting to be dispatched, the table
// of batches still accumulating responses, and the running throughput
// estimate. Every method here runs under QueueStub's lock and must
// never block on I/O, a sleep, or a channel send that isn't guaranteed
// to succeed immediately.
type QueueState struct {
	ShutdownSoon bool
	Cores        int

	incoming *list.List // of ipc.Position
	pending  map[api.BatchID]*PendingBatch
	stats    StatsRecorder
	log      logger.Logger
}

// NewQueueState returns a fresh state for the given worker-slot count.
func NewQueueState(cores int, log logger.Logger) *QueueState {
	return &QueueState{
		Cores:    cores,
		incoming: list.New(),
		pending:  make(map[api.BatchID]*PendingBatch),
		stats:    NewStatsRecorder(),
		log:      log,
	}
}

// Stats returns a snapshot copy of the running throughput estimate.
func (s *QueueState) Stats() StatsRecorder {
	return s.stats
}

// addIncomingBatch splits a freshly acquired batch into the incoming
// FIFO and a pending-slot table, then immediately checks whether an
// all-skip batch is already complete.
func (s *QueueState) addIncomingBatch(a api.ApiStub, batch IncomingBatch) {
	id := batch.Work.BatchID()
	if _, exists := s.pending[id]; exists {
		metrics.BatchesDuplicate.Inc()
		s.log.Warn("duplicate batch acquired, discarding", logger.Field{Key: "batch_id", Value: string(id)})
		return
	}

	slots := make([]*Skip[ipc.PositionResponse], len(batch.Positions))
	for i, p := range batch.Positions {
		if p.Skipped {
			skip := SkippedVal[ipc.PositionResponse]()
			slots[i] = &skip
			continue
		}
		s.incoming.PushBack(p.Value)
	}

	s.pending[id] = &PendingBatch{
		Work:      batch.Work,
		Positions: slots,
		URL:       batch.URL,
		StartedAt: time.Now(),
	}

	s.log.Debug("batch queued",
		logger.Field{Key: "batch_id", Value: string(id)},
		logger.Field{Key: "positions", Value: len(slots)},
	)
	s.recordDepthMetrics()
	s.maybeFinished(a, id)
}

// recordDepthMetrics refreshes the gauges that mirror the incoming FIFO
// and pending table sizes. Called after every structural change to
// either one so the /metrics scrape always reflects current depth.
func (s *QueueState) recordDepthMetrics() {
	metrics.IncomingDepth.Set(float64(s.incoming.Len()))
	metrics.PendingBatches.Set(float64(len(s.pending)))
}

// respond ingests a pull's response (if any) and then tries to serve it
// from the incoming FIFO. ok reports whether the pull was satisfied or
// abandoned; when ok is false the caller must hand the pull to the
// actor so it can acquire more work.
func (s *QueueState) respond(a api.ApiStub, pull ipc.Pull) (ok bool) {
	if pull.Outcome != nil {
		switch {
		case pull.Outcome.OK != nil:
			s.ingestResponse(a, *pull.Outcome.OK)
		case pull.Outcome.Err != nil:
			s.ingestFailure(a, *pull.Outcome.Err)
		}
	}

	if s.incoming.Len() == 0 {
		return false
	}

	front := s.incoming.Front()
	pos := front.Value.(ipc.Position)

	// Callback is buffered (size 1, see ipc.Pull), so a select between
	// the send and Ctx.Done() is not a reliable abandonment check: once
	// the worker's ctx is cancelled, both cases are simultaneously ready
	// and a buffered send can still "succeed" into a buffer nobody will
	// ever read, silently losing pos. Test Ctx synchronously first so an
	// already-abandoned pull always leaves pos queued instead of racing.
	if pull.Ctx.Err() != nil {
		return true
	}
	select {
	case pull.Callback <- pos:
		s.incoming.Remove(front)
		metrics.IncomingDepth.Set(float64(s.incoming.Len()))
	case <-pull.Ctx.Done():
		// Worker gave up waiting in the narrow window after the check
		// above; leave pos at the front so the next pull gets it.
	}
	return true
}

func (s *QueueState) ingestResponse(a api.ApiStub, res ipc.PositionResponse) {
	batch, ok := s.pending[res.Work.BatchID()]
	if !ok {
		return
	}
	idx := int(res.PositionID)
	if idx < 0 || idx >= len(batch.Positions) {
		return
	}
	if batch.Positions[idx] != nil {
		return // late duplicate
	}
	present := PresentVal(res)
	batch.Positions[idx] = &present

	s.log.Debug("position reported",
		logger.Field{Key: "batch_id", Value: string(res.Work.BatchID())},
		logger.Field{Key: "position_id", Value: idx},
	)
	s.maybeFinished(a, res.Work.BatchID())
}

func (s *QueueState) ingestFailure(a api.ApiStub, failure ipc.PullFailure) {
	delete(s.pending, failure.BatchID)
	s.purgeIncoming(failure.BatchID)
	a.Abort(context.Background(), failure.BatchID)
	metrics.BatchesAborted.Inc()
	s.recordDepthMetrics()
	s.log.Warn("batch aborted", logger.Field{Key: "batch_id", Value: string(failure.BatchID)})
}

func (s *QueueState) purgeIncoming(id api.BatchID) {
	for e := s.incoming.Front(); e != nil; {
		next := e.Next()
		if e.Value.(ipc.Position).Work.BatchID() == id {
			s.incoming.Remove(e)
		}
		e = next
	}
}

// maybeFinished checks whether batchID's pending slots are all filled.
// If so, it submits the final analysis. Otherwise it may submit a
// progress report, gated on the fill count being a nonzero multiple of
// 2*cores.
func (s *QueueState) maybeFinished(a api.ApiStub, batchID api.BatchID) {
	batch, ok := s.pending[batchID]
	if !ok {
		return
	}
	delete(s.pending, batchID)

	if completed, done := batch.tryComplete(); done {
		nps, known := completed.NPS()
		if known {
			s.stats.RecordBatch(completed.TotalPositions(), completed.TotalNodes(), nps)
			metrics.RecordBatchCompleted(completed.TotalPositions(), completed.TotalNodes(), s.stats.nps)
			metrics.MinUserBacklogSeconds.Set(s.stats.MinUserBacklog().Seconds())
			s.log.Info("batch completed",
				logger.Field{Key: "batch_id", Value: string(batchID)},
				logger.Field{Key: "nps", Value: nps},
			)
		} else {
			metrics.BatchesCompleted.Inc()
			s.log.Info("batch completed",
				logger.Field{Key: "batch_id", Value: string(batchID)},
				logger.Field{Key: "nps", Value: "?"},
			)
		}
		s.recordDepthMetrics()
		a.SubmitAnalysis(context.Background(), batchID, completed.IntoAnalysis())
		return
	}

	filled := len(batch.Positions) - batch.Pending()
	cadence := 2 * s.Cores
	if cadence > 0 && filled > 0 && filled%cadence == 0 {
		a.SubmitAnalysis(context.Background(), batchID, batch.ProgressReport())
	}

	s.pending[batchID] = batch
	s.recordDepthMetrics()
}
