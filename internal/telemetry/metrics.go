package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	classificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examdex",
		Name:      "classifications_total",
		Help:      "Questions routed, by primary category.",
	}, []string{"category"})

	searchResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "examdex",
		Name:      "search_results_total",
		Help:      "Retrieval results returned, by match type.",
	}, []string{"match_type"})

	verificationWarnings = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "examdex",
		Name:      "verification_warnings",
		Help:      "Warnings attached per verified answer.",
		Buckets:   []float64{0, 1, 2, 3, 5, 8},
	})
)

// ObserveClassification records one routed question.
func ObserveClassification(category string) {
	classificationsTotal.WithLabelValues(category).Inc()
}

// ObserveSearch records one returned retrieval result.
func ObserveSearch(matchType string) {
	searchResultsTotal.WithLabelValues(matchType).Inc()
}

// ObserveVerification records the warning count of one verified answer.
func ObserveVerification(warnings int) {
	verificationWarnings.Observe(float64(warnings))
}
