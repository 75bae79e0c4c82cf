package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	ConceptsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_concepts_resolved_total",
			Help: "Concept resolutions by outcome",
		},
		[]string{"match"},
	)

	Edges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_edges_total",
			Help: "Edge mutations by operation",
		},
		[]string{"op"},
	)

	NodesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_nodes_collected_total",
		Help: "Concept nodes deleted after their last reference was removed",
	})

	BatchItemFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "graph_batch_item_failures_total",
		Help: "Items of a connect batch that failed",
	})

	BatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "graph_batch_duration_seconds",
		Help:    "Wall time of a connect batch including summary regeneration",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	SummaryRegenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_summary_regenerations_total",
			Help: "Summary regenerations by result",
		},
		[]string{"result"},
	)

	// Job driver metrics
	Jobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_jobs_total",
			Help: "Processed graph jobs by type and final status",
		},
		[]string{"type", "status"},
	)

	// System metrics
	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})

	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_bytes",
		Help: "Current heap allocation",
	})
)

// Match outcomes of concept resolution.
const (
	MatchExact    = "exact"
	MatchSemantic = "semantic"
	MatchCreated  = "created"
)

// Edge operations.
const (
	EdgeConnected = "connected"
	EdgeRelated   = "related"
	EdgeDeleted   = "deleted"
)

// UpdateSystemMetrics refreshes the process gauges.
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}
