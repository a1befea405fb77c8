// Package metrics holds the engine's prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	documentsScanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ieql",
			Name:      "documents_scanned_total",
			Help:      "Documents pulled from the input queue and scanned",
		},
		[]string{"outcome"}, // matched, unmatched, skipped
	)

	responsesEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ieql",
			Name:      "responses_emitted_total",
			Help:      "Responses pushed to the output queue",
		},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ieql",
			Name:      "scan_duration_seconds",
			Help:      "Per-document scan duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	textFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ieql",
			Name:      "text_fallbacks_total",
			Help:      "Documents where text extraction was unavailable and the scan fell back to raw content",
		},
	)
)

// RegisterScanMetrics registers the scan collectors with the default
// registry. Call once at startup; no init() side effects.
func RegisterScanMetrics() {
	prometheus.MustRegister(documentsScanned)
	prometheus.MustRegister(responsesEmitted)
	prometheus.MustRegister(scanDuration)
	prometheus.MustRegister(textFallbacks)
}

// ObserveDocument records one scanned document.
func ObserveDocument(outcome string, seconds float64) {
	documentsScanned.WithLabelValues(outcome).Inc()
	scanDuration.Observe(seconds)
}

// AddResponses records emitted responses.
func AddResponses(n int) {
	responsesEmitted.Add(float64(n))
}

// AddTextFallback records a raw-content fallback.
func AddTextFallback() {
	textFallbacks.Inc()
}
