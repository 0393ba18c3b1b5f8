package api

import (
	"context"
	"fmt"
	"sync"
)

// FakeAPI is a scriptable ApiStub double. Tests set AcquireFunc/StatusFunc
// to control what the coordinator "says"; submitted analyses and aborts
// are recorded for later assertions. It is also what cmd/fishnet runs
// against in -fake mode, generating synthetic batches so the queue can
// be exercised without a real coordinator.
type FakeAPI struct {
	AcquireFunc func(ctx context.Context, query AcquireQuery) (*Acquired, error)
	StatusFunc  func(ctx context.Context) (*Status, error)

	mu        sync.Mutex
	submitted []Submission
	aborted   []BatchID
}

// Submission records one SubmitAnalysis call for inspection by tests.
type Submission struct {
	BatchID BatchID
	Parts   []*AnalysisPart
}

// NewFakeAPI returns a FakeAPI that generates an endless stream of
// synthetic analysis batches, one per acquire call, so -fake mode has
// something for the worker pool to chew on without a real coordinator.
func NewFakeAPI() *FakeAPI {
	var n int
	f := &FakeAPI{}
	f.AcquireFunc = func(ctx context.Context, query AcquireQuery) (*Acquired, error) {
		n++
		gameID := fmt.Sprintf("synthetic-%d", n)
		body := AcquireResponseBody{
			Work:     Work{Kind: WorkKindAnalysis, ID: BatchID(gameID)},
			GameID:   &gameID,
			Position: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
			Variant:  "standard",
			Moves:    []string{"e2e4", "e7e5", "g1f3"},
		}
		return &Acquired{Kind: AcquiredAccepted, Body: &body}, nil
	}
	return f
}

func (f *FakeAPI) Status(ctx context.Context) (*Status, error) {
	if f.StatusFunc != nil {
		return f.StatusFunc(ctx)
	}
	return nil, nil
}

func (f *FakeAPI) Acquire(ctx context.Context, query AcquireQuery) (*Acquired, error) {
	if f.AcquireFunc != nil {
		return f.AcquireFunc(ctx, query)
	}
	return &Acquired{Kind: AcquiredNoContent}, nil
}

func (f *FakeAPI) SubmitAnalysis(ctx context.Context, batchID BatchID, parts []*AnalysisPart) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, Submission{BatchID: batchID, Parts: parts})
}

func (f *FakeAPI) Abort(ctx context.Context, batchID BatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = append(f.aborted, batchID)
}

// Submissions returns a snapshot of every SubmitAnalysis call made so far.
func (f *FakeAPI) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.submitted))
	copy(out, f.submitted)
	return out
}

// Aborted returns a snapshot of every batch id passed to Abort so far.
func (f *FakeAPI) Aborted() []BatchID {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]BatchID, len(f.aborted))
	copy(out, f.aborted)
	return out
}

var _ ApiStub = (*FakeAPI)(nil)
