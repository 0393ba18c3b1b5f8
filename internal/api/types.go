// Package api defines the contract fishnet's queue speaks with the
// central coordinator: acquiring batches of chess positions, reporting
// status, and submitting finished or in-progress analysis. Everything
// here is a boundary type or interface — the queue core never reaches
// past ApiStub to touch HTTP directly.
package api

import (
	"context"
	"encoding/json"
	"time"
)

// BatchID identifies a unit of work assigned by the coordinator. It is
// opaque to the queue beyond equality and map-key use.
type BatchID string

// WorkKind distinguishes a single-position job from a move-sequence
// analysis job.
type WorkKind uint8

const (
	WorkKindMove WorkKind = iota
	WorkKindAnalysis
)

func (k WorkKind) String() string {
	if k == WorkKindAnalysis {
		return "analysis"
	}
	return "move"
}

// MarshalJSON renders WorkKind as the coordinator's wire strings
// ("move"/"analysis") rather than its internal numeric value.
func (k WorkKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON accepts either wire string.
func (k *WorkKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "analysis" {
		*k = WorkKindAnalysis
	} else {
		*k = WorkKindMove
	}
	return nil
}

// Work is the stable identity of a batch: its kind and id. A Move batch
// always yields exactly one position; an Analysis batch yields one
// position per move plus the starting position.
type Work struct {
	Kind WorkKind `json:"type"`
	ID   BatchID  `json:"id"`
}

// BatchID returns the identity this batch is keyed under in the queue's
// pending table.
func (w Work) BatchID() BatchID { return w.ID }

// Score is the engine's opaque evaluation of a position: either a
// centipawn score or a forced mate in N moves.
type Score struct {
	CP   *int32 `json:"cp,omitempty"`
	Mate *int32 `json:"mate,omitempty"`
}

// AcquireQuery is sent with every acquire request.
type AcquireQuery struct {
	// Slow marks this client as only fit for a deep backlog, per the
	// backlog pacing policy in the queue actor.
	Slow bool `json:"slow"`
}

// AcquireResponseBody is the coordinator's payload when it hands out a
// new batch. Field names and optionality mirror the wire contract
// exactly; this is intentionally a flat struct with no behavior.
type AcquireResponseBody struct {
	Work          Work     `json:"work"`
	GameID        *string  `json:"game_id,omitempty"`
	Position      string   `json:"position"` // FEN of the batch's starting position
	Variant       string   `json:"variant"`
	Moves         []string `json:"moves,omitempty"`
	Nodes         *uint64  `json:"nodes,omitempty"`
	SkipPositions []int    `json:"skip_positions,omitempty"`
}

// AcquiredKind distinguishes the three shapes an acquire call can
// resolve to.
type AcquiredKind uint8

const (
	AcquiredAccepted AcquiredKind = iota
	AcquiredNoContent
	AcquiredBadRequest
)

// Acquired is the result of a successful round-trip to the coordinator.
// A transport failure is reported as a Go error instead; the caller
// then loops straight back to acquiring, with no backoff delay.
type Acquired struct {
	Kind AcquiredKind
	Body *AcquireResponseBody // only set when Kind == AcquiredAccepted
}

// QueueDepth reports the age of the oldest item still waiting on one
// side of the coordinator's queue.
type QueueDepth struct {
	Oldest time.Duration
}

// MarshalJSON renders Oldest as seconds (fractions kept), the
// coordinator's wire unit.
func (q QueueDepth) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Oldest float64 `json:"oldest_seconds"`
	}{Oldest: q.Oldest.Seconds()})
}

// UnmarshalJSON reads Oldest back from (possibly fractional) seconds.
func (q *QueueDepth) UnmarshalJSON(data []byte) error {
	var wire struct {
		Oldest float64 `json:"oldest_seconds"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	q.Oldest = time.Duration(wire.Oldest * float64(time.Second))
	return nil
}

// Status is the coordinator's snapshot of queue depth on both its user
// and system backlogs.
type Status struct {
	User   QueueDepth `json:"user"`
	System QueueDepth `json:"system"`
}

// AnalysisPart is one slot of a submitted batch: either a skip marker
// or a complete analysis result. The coordinator tells these apart by
// shape, not by an explicit discriminant field, so MarshalJSON emits
// exactly one of the two documented wire shapes.
type AnalysisPart struct {
	Skipped bool

	PV     []string
	Depth  int
	Score  Score
	TimeMs uint64
	Nodes  uint64
	NPS    *uint32
}

type skippedWire struct {
	Skipped bool `json:"skipped"`
}

type completeWire struct {
	PV    []string `json:"pv"`
	Depth int      `json:"depth"`
	Score Score    `json:"score"`
	Time  uint64   `json:"time"`
	Nodes uint64   `json:"nodes"`
	NPS   *uint32  `json:"nps,omitempty"`
}

// MarshalJSON emits {"skipped":true} for a skip slot, or the full
// analysis object otherwise. The coordinator distinguishes a progress
// report from a final analysis by inspecting the first element's shape,
// so this distinction must stay exact.
func (a AnalysisPart) MarshalJSON() ([]byte, error) {
	if a.Skipped {
		return json.Marshal(skippedWire{Skipped: true})
	}
	return json.Marshal(completeWire{
		PV:    a.PV,
		Depth: a.Depth,
		Score: a.Score,
		Time:  a.TimeMs,
		Nodes: a.Nodes,
		NPS:   a.NPS,
	})
}

// ApiStub is everything the queue core needs from the coordinator.
// submit_analysis and abort are fire-and-forget: the queue does not
// wait for or react to their outcome, and tolerates duplicate calls
// because the coordinator deduplicates by batch id.
type ApiStub interface {
	Status(ctx context.Context) (*Status, error)
	Acquire(ctx context.Context, query AcquireQuery) (*Acquired, error)
	SubmitAnalysis(ctx context.Context, batchID BatchID, parts []*AnalysisPart)
	Abort(ctx context.Context, batchID BatchID)
}
