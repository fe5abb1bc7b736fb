// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics bundles the Prometheus collectors for the review
// pipeline. A nil *Metrics is valid everywhere and records nothing, so
// callers never guard their instrumentation sites.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all pipeline collectors on a dedicated registry.
type Metrics struct {
	Registry           *prometheus.Registry
	PagesFetchedTotal  *prometheus.CounterVec
	PageDuration       prometheus.Histogram
	ReviewsCollected   *prometheus.CounterVec
	DuplicatesTotal    prometheus.Counter
	FetchErrorsTotal   *prometheus.CounterVec
	InsightCallsTotal  *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	CorpusSize         prometheus.Gauge
}

// New constructs and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_radar_pages_fetched_total",
			Help: "Total review pages pulled, by provider.",
		},
		[]string{"provider"},
	)
	pageDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_radar_page_duration_seconds",
			Help:    "Latency of individual page pulls.",
			Buckets: prometheus.DefBuckets,
		},
	)
	reviews := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_radar_reviews_collected_total",
			Help: "In-window reviews collected, by provider.",
		},
		[]string{"provider"},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_radar_duplicates_total",
			Help: "Records dropped as duplicates during merge.",
		},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_radar_fetch_errors_total",
			Help: "Page pull failures, by provider and error class.",
		},
		[]string{"provider", "error_type"},
	)
	insightCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_radar_insight_calls_total",
			Help: "Insight backend calls, by backend and outcome.",
		},
		[]string{"backend", "outcome"},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "review_radar_run_duration_seconds",
			Help:    "End to end pipeline run duration.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
	corpusSize := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "review_radar_corpus_size",
			Help: "Size of the merged corpus from the latest run.",
		},
	)

	registry.MustRegister(pages, pageDuration, reviews, duplicates, fetchErrors, insightCalls, runDuration, corpusSize)

	return &Metrics{
		Registry:           registry,
		PagesFetchedTotal:  pages,
		PageDuration:       pageDuration,
		ReviewsCollected:   reviews,
		DuplicatesTotal:    duplicates,
		FetchErrorsTotal:   fetchErrors,
		InsightCallsTotal:  insightCalls,
		RunDurationSeconds: runDuration,
		CorpusSize:         corpusSize,
	}
}

// IncPage increments the page counter for a provider.
func (m *Metrics) IncPage(provider string) {
	if m == nil {
		return
	}
	m.PagesFetchedTotal.WithLabelValues(provider).Inc()
}

// ObservePageDuration records latency for one page pull.
func (m *Metrics) ObservePageDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.PageDuration.Observe(d.Seconds())
}

// AddReviews adds n to the collected counter for a provider.
func (m *Metrics) AddReviews(provider string, n int) {
	if m == nil {
		return
	}
	m.ReviewsCollected.WithLabelValues(provider).Add(float64(n))
}

// AddDuplicates adds n to the duplicate counter.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Add(float64(n))
}

// IncFetchError increments the fetch error counter for a provider and
// error class label.
func (m *Metrics) IncFetchError(provider, errorType string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// IncInsightCall increments the backend call counter. outcome is
// "success" or an error class label.
func (m *Metrics) IncInsightCall(backend, outcome string) {
	if m == nil {
		return
	}
	m.InsightCallsTotal.WithLabelValues(backend, outcome).Inc()
}

// ObserveRunDuration records a full pipeline run duration.
func (m *Metrics) ObserveRunDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RunDurationSeconds.Observe(d.Seconds())
}

// SetCorpusSize records the merged corpus size.
func (m *Metrics) SetCorpusSize(n int) {
	if m == nil {
		return
	}
	m.CorpusSize.Set(float64(n))
}
