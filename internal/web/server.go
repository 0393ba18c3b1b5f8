// Package web serves the small set of HTTP endpoints an operator needs
// to watch a running fishnet client: liveness, the current throughput
// snapshot, and the Prometheus scrape endpoint, routed with
// gorilla/mux the way the teacher mounts its own API routes.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fishnet/internal/queue"
)

// Server hosts the status and metrics endpoints for one running client.
type Server struct {
	http  *http.Server
	queue *queue.QueueStub
}

// NewServer builds a Server listening on addr, wired to stub for live
// stats and to registry for the /metrics scrape endpoint.
func NewServer(addr string, stub *queue.QueueStub, registry *prometheus.Registry) *Server {
	s := &Server{queue: stub}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until it errors or Shutdown is called.
// It returns http.ErrServerClosed on a clean shutdown, matching the
// stdlib http.Server contract.
func (s *Server) ListenAndServe() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server within ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statsResponse struct {
	TotalBatches   uint64 `json:"total_batches"`
	TotalPositions uint64 `json:"total_positions"`
	TotalNodes     uint64 `json:"total_nodes"`
	MinUserBacklog string `json:"min_user_backlog"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.queue.Stats()
	resp := statsResponse{
		TotalBatches:   stats.TotalBatches,
		TotalPositions: stats.TotalPositions,
		TotalNodes:     stats.TotalNodes,
		MinUserBacklog: stats.MinUserBacklog().String(),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
