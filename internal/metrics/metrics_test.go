package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	first := Init()
	second := Init()
	if first != second {
		t.Fatalf("expected Init to return the same registry on repeated calls")
	}
	if Registry() != first {
		t.Fatalf("expected Registry() to return the registry built by Init")
	}
}

func TestRecordAcquireIncrementsByOutcome(t *testing.T) {
	Init()
	before := testutil.ToFloat64(AcquireAttempts.WithLabelValues("accepted"))
	RecordAcquire("accepted")
	after := testutil.ToFloat64(AcquireAttempts.WithLabelValues("accepted"))
	if after != before+1 {
		t.Fatalf("expected acquire_attempts_total{outcome=accepted} to increment by 1, went %v -> %v", before, after)
	}
}

func TestRecordBatchCompletedUpdatesCounters(t *testing.T) {
	Init()
	beforeBatches := testutil.ToFloat64(BatchesCompleted)
	beforePositions := testutil.ToFloat64(PositionsAnalysed)

	RecordBatchCompleted(60, 1_000_000, 500_000)

	if got := testutil.ToFloat64(BatchesCompleted); got != beforeBatches+1 {
		t.Fatalf("expected batches_completed_total to increment by 1, went %v -> %v", beforeBatches, got)
	}
	if got := testutil.ToFloat64(PositionsAnalysed); got != beforePositions+60 {
		t.Fatalf("expected positions_analysed_total to increase by 60, went %v -> %v", beforePositions, got)
	}
	if got := testutil.ToFloat64(SmoothedNPS); got != 500_000 {
		t.Fatalf("expected smoothed_nps gauge to be set to 500000, got %v", got)
	}
}
