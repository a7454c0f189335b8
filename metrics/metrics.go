// Package metrics provides Prometheus metrics collection for the inventory
// API. Besides the standard HTTP request metrics it tracks the dispensing
// pipeline: units dispensed and unfulfilled, lots held, and advisor runs.
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	DispensedUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_dispensed_units_total",
			Help: "Units drawn from lots by fulfilled dispense requests",
		},
		[]string{"branch"},
	)

	UnfulfilledUnitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_unfulfilled_units_total",
			Help: "Requested units that could not be covered by available stock",
		},
		[]string{"branch"},
	)

	LotsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_lots_received_total",
			Help: "Lots created through the receiving workflow",
		},
	)

	LotsHeld = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "inventory_lots_held",
			Help: "Total lots in the ledger, retired included",
		},
	)

	AdvisorRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_run_duration_seconds",
			Help:    "Duration of a full advisor scan",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	SuggestionsPublished = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "advisor_suggestions_published",
			Help: "Transfer suggestions in the latest published advisor run",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(DispensedUnitsTotal)
	prometheus.MustRegister(UnfulfilledUnitsTotal)
	prometheus.MustRegister(LotsReceivedTotal)
	prometheus.MustRegister(LotsHeld)
	prometheus.MustRegister(AdvisorRunDuration)
	prometheus.MustRegister(SuggestionsPublished)
}
