// Package metrics exposes the queue's runtime behaviour as Prometheus
// series: batch throughput, backlog depth, and worker activity, the
// way a long-running fishnet process would want to be monitored.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	BatchesCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "batches_completed_total",
		Help:      "Total batches that reached every slot filled.",
	})

	BatchesAborted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "batches_aborted_total",
		Help:      "Total batches dropped after a worker failure.",
	})

	BatchesDuplicate = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "batches_duplicate_total",
		Help:      "Acquired batches discarded because their id was already pending.",
	})

	PositionsAnalysed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "positions_analysed_total",
		Help:      "Total non-skipped positions completed.",
	})

	NodesSearched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "nodes_searched_total",
		Help:      "Total engine nodes spent across completed positions.",
	})

	SmoothedNPS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "smoothed_nps",
		Help:      "Exponentially smoothed nodes-per-second estimate.",
	})

	MinUserBacklogSeconds = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "min_user_backlog_seconds",
		Help:      "Minimum user backlog this client currently requires before acquiring.",
	})

	IncomingDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "incoming_depth",
		Help:      "Positions currently waiting to be dispatched to a worker.",
	})

	PendingBatches = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fishnet",
		Subsystem: "queue",
		Name:      "pending_batches",
		Help:      "Batches currently accumulating worker responses.",
	})

	WorkersBusy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fishnet",
		Subsystem: "worker",
		Name:      "busy",
		Help:      "Worker slots currently analysing a position, per pool.",
	}, []string{"pool"})

	AcquireAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fishnet",
		Subsystem: "coordinator",
		Name:      "acquire_attempts_total",
		Help:      "Acquire calls to the coordinator, by outcome.",
	}, []string{"outcome"})
)

var (
	registry *prometheus.Registry
	regOnce  sync.Once
)

// Init builds and returns the custom registry, registering every metric
// above plus the standard Go/process collectors. Safe to call more than
// once; only the first call takes effect.
func Init() *prometheus.Registry {
	regOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		registry.MustRegister(
			BatchesCompleted, BatchesAborted, BatchesDuplicate,
			PositionsAnalysed, NodesSearched, SmoothedNPS, MinUserBacklogSeconds,
			IncomingDepth, PendingBatches, WorkersBusy, AcquireAttempts,
		)
	})
	return registry
}

// Registry returns the registry built by Init, or nil if Init has not
// run yet.
func Registry() *prometheus.Registry {
	return registry
}

// RecordAcquire tags one acquire round-trip by its outcome ("accepted",
// "no_content", "bad_request", or "transport_error").
func RecordAcquire(outcome string) {
	AcquireAttempts.WithLabelValues(outcome).Inc()
}

// RecordBatchCompleted folds a finished batch's totals into the
// counters and sets the smoothed_nps gauge to nps as given; the caller
// passes its already-smoothed estimate.
func RecordBatchCompleted(positions, nodes uint64, nps uint32) {
	BatchesCompleted.Inc()
	PositionsAnalysed.Add(float64(positions))
	NodesSearched.Add(float64(nodes))
	SmoothedNPS.Set(float64(nps))
}
