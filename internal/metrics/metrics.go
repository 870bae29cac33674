// Package metrics exports Prometheus metrics for the pricing service:
//   - wholesale_resolutions_total: Counter labeled by cascade provenance
//   - upstream_errors_total: Counter labeled by pricing source
//   - quote_request_duration_seconds: Histogram of full pipeline latency
//   - pharmacy_quotes_total: Counter of quotes served
//
// All metrics are registered with the Prometheus default registry during
// package initialization and served on GET /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WholesaleResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wholesale_resolutions_total",
			Help: "Wholesale cost resolutions by cascade source",
		},
		[]string{"provenance"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_errors_total",
			Help: "Upstream pricing source failures mapped to no-data",
		},
		[]string{"source"},
	)

	QuoteRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quote_request_duration_seconds",
			Help:    "End-to-end pricing request latency",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	PharmacyQuotes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmacy_quotes_total",
			Help: "Total per-pharmacy quotes produced",
		},
	)
)

func init() {
	prometheus.MustRegister(WholesaleResolutions)
	prometheus.MustRegister(UpstreamErrors)
	prometheus.MustRegister(QuoteRequestDuration)
	prometheus.MustRegister(PharmacyQuotes)
}
