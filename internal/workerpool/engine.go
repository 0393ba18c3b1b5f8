package workerpool

import (
	"context"

	"fishnet/internal/ipc"
)

// Engine analyses a single position and reports the result. The actual
// chess engine (Stockfish or otherwise) is out of scope here, same as
// in the spec this models: callers plug in whatever runs the real
// search, and tests plug in a stand-in that returns canned results.
type Engine interface {
	Analyze(ctx context.Context, pos ipc.Position) (ipc.PositionResponse, error)
}
