package queue

import "testing"

func TestNewStatsRecorderSeedsNPS(t *testing.T) {
	s := NewStatsRecorder()
	if s.MinUserBacklog() <= 0 {
		t.Fatalf("expected a fresh client to require a nonzero backlog, got %v", s.MinUserBacklog())
	}
}

func TestRecordBatchUpdatesTotals(t *testing.T) {
	s := NewStatsRecorder()
	s.RecordBatch(60, 240_000_000, 4_000_000)

	if s.TotalBatches != 1 {
		t.Fatalf("expected 1 batch, got %d", s.TotalBatches)
	}
	if s.TotalPositions != 60 {
		t.Fatalf("expected 60 positions, got %d", s.TotalPositions)
	}
	if s.TotalNodes != 240_000_000 {
		t.Fatalf("expected 240000000 nodes, got %d", s.TotalNodes)
	}
}

func TestRecordBatchClampsNPSToAtLeastOne(t *testing.T) {
	s := NewStatsRecorder()
	for i := 0; i < 50; i++ {
		s.RecordBatch(1, 0, 0)
	}
	if s.nps < 1 {
		t.Fatalf("expected nps to never go below 1, got %d", s.nps)
	}
}

func TestMinUserBacklogZeroForTopTierClient(t *testing.T) {
	s := NewStatsRecorder()
	// Drive nps up to the reference throughput; a top-tier client should
	// never be asked to wait for a deeper backlog.
	for i := 0; i < 200; i++ {
		s.RecordBatch(60, 240_000_000, 4_000_000)
	}
	if got := s.MinUserBacklog(); got != 0 {
		t.Fatalf("expected zero backlog requirement at reference throughput, got %v", got)
	}
}

func TestMinUserBacklogPositiveForSlowClient(t *testing.T) {
	s := NewStatsRecorder()
	for i := 0; i < 200; i++ {
		s.RecordBatch(60, 60_000_000, 1_000_000)
	}
	if got := s.MinUserBacklog(); got <= 0 {
		t.Fatalf("expected a slow client to require a positive backlog, got %v", got)
	}
}
