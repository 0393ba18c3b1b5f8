// Package ipc defines the contract between the queue and the population
// of local worker goroutines that actually run the chess engine: the
// position a worker is handed, the response it reports back, and the
// pull message it uses to ask for the next one. The engine itself is out
// of scope here, same as in the distributed-client spec this models.
package ipc

import (
	"context"
	"net/url"
	"time"

	"fishnet/internal/api"
)

// PositionID is the zero-based index of a position within its batch's
// original sequence. It never changes meaning once assigned.
type PositionID int

// Position is one unit of work handed to a worker.
type Position struct {
	Work       api.Work
	PositionID PositionID
	FEN        string
	Moves      []string
	Nodes      uint64
	URL        *url.URL
	Variant    string
}

// PositionResponse is a worker's report after analysing a Position.
type PositionResponse struct {
	Work       api.Work
	PositionID PositionID
	PV         []string
	Depth      int
	Score      api.Score
	Time       time.Duration
	Nodes      uint64
	NPS        *uint32
}

// PullFailure is carried in a Pull when the worker could not complete
// its previous position because the whole batch failed.
type PullFailure struct {
	BatchID api.BatchID
}

// PullOutcome is the previous pull's result, if any: either a completed
// PositionResponse or a batch-level failure. A nil *PullOutcome (inside
// Pull) means this is a worker's first pull and there is nothing to
// report yet.
type PullOutcome struct {
	OK  *PositionResponse
	Err *PullFailure
}

// Pull is a worker's request for its next Position. Ctx is cancelled
// when the worker gives up waiting — the Go analogue of a dropped
// one-shot receiver — which lets the queue push an already-popped
// position back onto the front of its incoming queue instead of losing
// it. Callback is buffered so a single non-blocking send always
// succeeds once the worker is still listening.
type Pull struct {
	Ctx      context.Context
	Outcome  *PullOutcome
	Callback chan Position
}
