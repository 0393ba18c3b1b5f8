package queue

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"fishnet/internal/api"
	"fishnet/internal/config"
	"fishnet/internal/ipc"
)

const defaultNodes = 4_000_000

// Skip wraps a value that might instead be a skip marker: the
// coordinator can ask that some positions of a batch not be analysed,
// but they still occupy a slot in the batch's sequence.
type Skip[T any] struct {
	Value   T
	Skipped bool
}

// PresentVal wraps a real value.
func PresentVal[T any](v T) Skip[T] { return Skip[T]{Value: v} }

// SkippedVal returns a skip marker of the given type.
func SkippedVal[T any]() Skip[T] { return Skip[T]{Skipped: true} }

// IncomingBatch is a batch as received from the coordinator: transient,
// consumed the moment its non-skipped positions are split into the
// queue's incoming list.
type IncomingBatch struct {
	Work      api.Work
	Positions []Skip[ipc.Position]
	URL       *url.URL
}

// NewIncomingBatch builds an IncomingBatch from the coordinator's
// acquire response. A Move batch yields exactly one position; an
// Analysis batch yields the starting position plus one per move, each
// carrying the move prefix leading to it. skip_positions then overwrites
// the named slots with skip markers; out-of-range indices are ignored.
func NewIncomingBatch(endpoint config.Endpoint, body api.AcquireResponseBody) IncomingBatch {
	var gameURL *url.URL
	if body.GameID != nil {
		gameURL = endpoint.GameURL(*body.GameID)
	}

	nodes := uint64(defaultNodes)
	if body.Nodes != nil {
		nodes = *body.Nodes
	}

	var positions []Skip[ipc.Position]
	if body.Work.Kind == api.WorkKindMove {
		// A Move batch has no sequence of positions to disambiguate, so
		// its single position's URL carries no fragment — only an
		// Analysis batch's per-position URLs do.
		positions = []Skip[ipc.Position]{PresentVal(ipc.Position{
			Work:       body.Work,
			PositionID: 0,
			FEN:        body.Position,
			Nodes:      nodes,
			URL:        gameURL,
			Variant:    body.Variant,
		})}
	} else {
		positions = make([]Skip[ipc.Position], 0, len(body.Moves)+1)
		positions = append(positions, PresentVal(ipc.Position{
			Work:       body.Work,
			PositionID: 0,
			FEN:        body.Position,
			Nodes:      nodes,
			URL:        withFragment(gameURL, "0"),
			Variant:    body.Variant,
		}))

		prefix := make([]string, 0, len(body.Moves))
		for i, m := range body.Moves {
			prefix = append(prefix, m)
			moves := make([]string, len(prefix))
			copy(moves, prefix)
			positions = append(positions, PresentVal(ipc.Position{
				Work:       body.Work,
				PositionID: ipc.PositionID(i + 1),
				FEN:        body.Position,
				Moves:      moves,
				Nodes:      nodes,
				URL:        withFragment(gameURL, strconv.Itoa(i+1)),
				Variant:    body.Variant,
			}))
		}
	}

	for _, skip := range body.SkipPositions {
		if skip >= 0 && skip < len(positions) {
			positions[skip] = SkippedVal[ipc.Position]()
		}
	}

	return IncomingBatch{Work: body.Work, Positions: positions, URL: gameURL}
}

func withFragment(base *url.URL, fragment string) *url.URL {
	if base == nil {
		return nil
	}
	u := *base
	u.Fragment = fragment
	return &u
}

// PendingBatch is a batch while it is accumulating worker responses.
// Positions has the same length and indexing as the batch's original
// sequence for its entire life: a nil slot is outstanding, a non-nil
// slot is either a pre-applied skip or a returned response.
type PendingBatch struct {
	Work      api.Work
	Positions []*Skip[ipc.PositionResponse]
	URL       *url.URL
	StartedAt time.Time
}

// Pending returns the number of slots still outstanding.
func (p *PendingBatch) Pending() int {
	n := 0
	for _, s := range p.Positions {
		if s == nil {
			n++
		}
	}
	return n
}

// tryComplete converts the batch to a CompletedBatch if every slot is
// filled, leaving the PendingBatch untouched otherwise.
func (p *PendingBatch) tryComplete() (CompletedBatch, bool) {
	positions := make([]Skip[ipc.PositionResponse], len(p.Positions))
	for i, s := range p.Positions {
		if s == nil {
			return CompletedBatch{}, false
		}
		positions[i] = *s
	}
	return CompletedBatch{
		Work:        p.Work,
		Positions:   positions,
		URL:         p.URL,
		StartedAt:   p.StartedAt,
		CompletedAt: time.Now(),
	}, true
}

// ProgressReport builds a partial-analysis submission: every returned,
// non-skipped slot past index 0 becomes a Complete part, everything else
// (including index 0 even if it is already present) is nil. The
// coordinator tells a progress report apart from a final analysis by
// looking at the first element, so index 0 must always read as "not yet
// known" here regardless of whether the worker has actually reported it.
func (p *PendingBatch) ProgressReport() []*api.AnalysisPart {
	report := make([]*api.AnalysisPart, len(p.Positions))
	for i, s := range p.Positions {
		if i == 0 || s == nil || s.Skipped {
			continue
		}
		report[i] = completePart(s.Value)
	}
	return report
}

// CompletedBatch is a batch whose every slot is filled. It exists only
// transiently while being submitted.
type CompletedBatch struct {
	Work        api.Work
	Positions   []Skip[ipc.PositionResponse]
	URL         *url.URL
	StartedAt   time.Time
	CompletedAt time.Time
}

// IntoAnalysis renders the final submission: Skipped for skip slots,
// Complete everywhere else, including index 0.
func (c CompletedBatch) IntoAnalysis() []*api.AnalysisPart {
	parts := make([]*api.AnalysisPart, len(c.Positions))
	for i, s := range c.Positions {
		if s.Skipped {
			parts[i] = &api.AnalysisPart{Skipped: true}
		} else {
			parts[i] = completePart(s.Value)
		}
	}
	return parts
}

// TotalPositions counts non-skipped slots.
func (c CompletedBatch) TotalPositions() uint64 {
	var n uint64
	for _, s := range c.Positions {
		if !s.Skipped {
			n++
		}
	}
	return n
}

// TotalNodes sums the node budget spent on non-skipped slots.
func (c CompletedBatch) TotalNodes() uint64 {
	var n uint64
	for _, s := range c.Positions {
		if !s.Skipped {
			n += s.Value.Nodes
		}
	}
	return n
}

// NPS computes nodes-per-second for the whole batch, dividing by elapsed
// whole seconds. It reports false if less than one whole second has
// elapsed or the result would overflow uint32 — both
// cases the caller logs as "?" and skips folding into StatsRecorder.
func (c CompletedBatch) NPS() (uint32, bool) {
	if !c.CompletedAt.After(c.StartedAt) {
		return 0, false
	}
	secs := uint64(c.CompletedAt.Sub(c.StartedAt) / time.Second)
	if secs == 0 {
		return 0, false
	}
	nps := c.TotalNodes() / secs
	if nps > math.MaxUint32 {
		return 0, false
	}
	return uint32(nps), true
}

func completePart(pos ipc.PositionResponse) *api.AnalysisPart {
	return &api.AnalysisPart{
		PV:     pos.PV,
		Depth:  pos.Depth,
		Score:  pos.Score,
		TimeMs: uint64(pos.Time / time.Millisecond),
		Nodes:  pos.Nodes,
		NPS:    pos.NPS,
	}
}
