package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation results.
const (
	resultApplied = "applied"
	resultNoop    = "noop"
	resultInvalid = "invalid"
	resultMisuse  = "misuse"
)

// Hydration results.
const (
	hydrateLoaded    = "loaded"
	hydrateAbsent    = "absent"
	hydrateMalformed = "malformed"
	hydrateError     = "error"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	persistWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_persist_writes_total",
			Help: "Durable cart writes by result",
		},
		[]string{"result"},
	)

	persistDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cart_persist_duration_seconds",
			Help:    "Duration of durable cart writes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	persistQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_persist_queue_depth",
			Help: "Cart writes waiting for the background writer",
		},
	)

	lineItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cart_line_items",
			Help: "Number of distinct line items currently in the cart",
		},
	)

	hydrationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_hydration_total",
			Help: "Cart hydrations by result",
		},
		[]string{"result"},
	)
)
