// Package metrics holds the Prometheus collectors exposed on /metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scoring metrics
	DocumentsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoscore_documents_scored_total",
			Help: "Total number of documents scored",
		},
		[]string{"mode"}, // mode: citation, document, all, visibility
	)

	HallucinatedCitations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geoscore_hallucinated_citations_total",
			Help: "Citation markers skipped because their index was outside [1, n]",
		},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geoscore_scoring_duration_seconds",
			Help:    "Time spent segmenting and scoring one document",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	// LLM metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoscore_llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"provider", "status"}, // status: success, error
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoscore_llm_latency_seconds",
			Help:    "LLM completion latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider"},
	)

	// Rate limiting
	RateLimitWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoscore_rate_limit_wait_seconds",
			Help:    "Time spent waiting for a rate limiter token",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"target"}, // target: host, llm
	)

	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoscore_cache_lookups_total",
			Help: "Cache lookups by key kind and the layer that answered",
		},
		[]string{"kind", "layer"}, // kind: score, fetch; layer: memory, disk, miss
	)
)

// RecordScoring records one scoring call
func RecordScoring(mode string, started time.Time) {
	DocumentsScored.WithLabelValues(mode).Inc()
	ScoringDuration.Observe(time.Since(started).Seconds())
}

// RecordLLMRequest records one completion request
func RecordLLMRequest(provider string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMRequests.WithLabelValues(provider, status).Inc()
	LLMLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// RecordRateLimitWait records how long a call waited for its token
func RecordRateLimitWait(target string, waited time.Duration) {
	RateLimitWait.WithLabelValues(target).Observe(waited.Seconds())
}
