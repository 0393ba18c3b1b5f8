package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAnalysisPartMarshalsSkipShape(t *testing.T) {
	part := AnalysisPart{Skipped: true}

	data, err := json.Marshal(part)
	if err != nil {
		t.Fatalf("unexpected error marshaling a skip slot: %v", err)
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unexpected error unmarshaling wire shape: %v", err)
	}
	if len(wire) != 1 {
		t.Fatalf("expected a skip slot to carry exactly one field, got %v", wire)
	}
	if skipped, ok := wire["skipped"].(bool); !ok || !skipped {
		t.Fatalf("expected {\"skipped\":true}, got %v", wire)
	}
}

func TestAnalysisPartMarshalsCompleteShape(t *testing.T) {
	cp := int32(34)
	nps := uint32(2_000_000)
	part := AnalysisPart{
		PV:     []string{"e2e4", "e7e5"},
		Depth:  18,
		Score:  Score{CP: &cp},
		TimeMs: 1500,
		Nodes:  3_000_000,
		NPS:    &nps,
	}

	data, err := json.Marshal(part)
	if err != nil {
		t.Fatalf("unexpected error marshaling a complete slot: %v", err)
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unexpected error unmarshaling wire shape: %v", err)
	}
	if _, present := wire["skipped"]; present {
		t.Fatalf("expected a complete slot to never carry a skipped field, got %v", wire)
	}
	if wire["depth"].(float64) != 18 {
		t.Fatalf("expected depth 18, got %v", wire["depth"])
	}
	if wire["time"].(float64) != 1500 {
		t.Fatalf("expected time 1500, got %v", wire["time"])
	}
}

func TestWorkKindRoundTrips(t *testing.T) {
	for _, kind := range []WorkKind{WorkKindMove, WorkKindAnalysis} {
		data, err := json.Marshal(kind)
		if err != nil {
			t.Fatalf("unexpected error marshaling %v: %v", kind, err)
		}

		var got WorkKind
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unexpected error unmarshaling %s: %v", data, err)
		}
		if got != kind {
			t.Fatalf("expected round trip to preserve %v, got %v", kind, got)
		}
	}
}

func TestWorkKindMarshalsWireStrings(t *testing.T) {
	data, err := json.Marshal(WorkKindAnalysis)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"analysis"` {
		t.Fatalf(`expected "analysis", got %s`, data)
	}

	data, err = json.Marshal(WorkKindMove)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != `"move"` {
		t.Fatalf(`expected "move", got %s`, data)
	}
}

func TestQueueDepthRoundTrips(t *testing.T) {
	depth := QueueDepth{Oldest: 90 * time.Second}

	data, err := json.Marshal(depth)
	if err != nil {
		t.Fatalf("unexpected error marshaling: %v", err)
	}

	var wire map[string]interface{}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unexpected error unmarshaling wire shape: %v", err)
	}
	if wire["oldest_seconds"].(float64) != 90 {
		t.Fatalf("expected oldest_seconds 90, got %v", wire["oldest_seconds"])
	}

	var got QueueDepth
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unexpected error round-tripping: %v", err)
	}
	if got.Oldest != depth.Oldest {
		t.Fatalf("expected %v after round trip, got %v", depth.Oldest, got.Oldest)
	}
}

func TestStatusMarshalsUserAndSystem(t *testing.T) {
	status := Status{
		User:   QueueDepth{Oldest: 5 * time.Second},
		System: QueueDepth{Oldest: 30 * time.Second},
	}

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unexpected error unmarshaling: %v", err)
	}
	if _, ok := wire["user"]; !ok {
		t.Fatalf("expected a \"user\" field, got %s", data)
	}
	if _, ok := wire["system"]; !ok {
		t.Fatalf("expected a \"system\" field, got %s", data)
	}
}
