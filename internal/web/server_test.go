package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"fishnet/internal/api"
	"fishnet/internal/logger"
	"fishnet/internal/queue"
)

func prometheusTestRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fishnet_test_probe_total",
		Help: "probe counter registered for metrics route tests",
	}))
	return registry
}

func newTestStub(t *testing.T) *queue.QueueStub {
	t.Helper()
	stub, actor := queue.NewQueue(1, &api.FakeAPI{}, queue.ActorConfig{Log: logger.NewNop()})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go actor.Run(ctx)
	return stub
}

func TestHandleHealthzReturnsOK(t *testing.T) {
	s := NewServer(":0", newTestStub(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("expected body \"ok\", got %q", rec.Body.String())
	}
}

func TestHandleStatsReturnsJSON(t *testing.T) {
	s := NewServer(":0", newTestStub(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("expected a non-empty stats body")
	}
}

func TestMetricsRouteAbsentWithoutRegistry(t *testing.T) {
	s := NewServer(":0", newTestStub(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be unregistered without a registry, got %d", rec.Code)
	}
}

func TestMetricsRoutePresentWithRegistry(t *testing.T) {
	registry := prometheusTestRegistry()
	s := NewServer(":0", newTestStub(t), registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from a registered /metrics route, got %d", rec.Code)
	}
}
