package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Discard reasons for captured responses
const (
	ReasonRead       = "read"
	ReasonUndersized = "undersized"
	ReasonMalformed  = "malformed"
	ReasonSealed     = "sealed"
)

// Metrics bundles Prometheus collectors for the review crawler.
type Metrics struct {
	Registry           *prometheus.Registry
	ScrapesTotal       *prometheus.CounterVec
	ScrapeDuration     prometheus.Histogram
	BatchesCaptured    prometheus.Counter
	ResponsesDiscarded *prometheus.CounterVec
	RecordsDiscarded   prometheus.Counter
	ReviewsExtracted   prometheus.Counter
	ScrollIterations   prometheus.Histogram
	StopsTotal         *prometheus.CounterVec
	CacheHits          prometheus.Counter
	RetriesTotal       prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		ScrapesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewcrawl_scrapes_total",
				Help: "Total scrapes by outcome status.",
			},
			[]string{"status"},
		),
		ScrapeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reviewcrawl_scrape_duration_seconds",
				Help:    "Wall time of a single URL scrape.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		BatchesCaptured: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviewcrawl_batches_captured_total",
				Help: "Review payload batches parsed from intercepted responses.",
			},
		),
		ResponsesDiscarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewcrawl_responses_discarded_total",
				Help: "Intercepted pagination responses dropped before parsing completed.",
			},
			[]string{"reason"},
		),
		RecordsDiscarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviewcrawl_records_discarded_total",
				Help: "Record-shaped nodes skipped because a field could not be read.",
			},
		),
		ReviewsExtracted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviewcrawl_reviews_extracted_total",
				Help: "Unique reviews returned to callers.",
			},
		),
		ScrollIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reviewcrawl_scroll_iterations",
				Help:    "Scroll iterations performed per scrape.",
				Buckets: []float64{10, 50, 100, 250, 500, 1000},
			},
		),
		StopsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviewcrawl_scroll_stops_total",
				Help: "Scroll loop terminations by reason.",
			},
			[]string{"reason"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviewcrawl_cache_hits_total",
				Help: "Scrapes served from the result cache.",
			},
		),
		RetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "reviewcrawl_navigation_retries_total",
				Help: "Navigation retry attempts scheduled.",
			},
		),
	}

	registry.MustRegister(
		m.ScrapesTotal,
		m.ScrapeDuration,
		m.BatchesCaptured,
		m.ResponsesDiscarded,
		m.RecordsDiscarded,
		m.ReviewsExtracted,
		m.ScrollIterations,
		m.StopsTotal,
		m.CacheHits,
		m.RetriesTotal,
	)
	return m
}

// ObserveScrape records the outcome and duration of one scrape.
func (m *Metrics) ObserveScrape(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(status).Inc()
	m.ScrapeDuration.Observe(d.Seconds())
}

// IncBatch increments the captured batch counter.
func (m *Metrics) IncBatch() {
	if m == nil {
		return
	}
	m.BatchesCaptured.Inc()
}

// IncDiscarded increments the discarded response counter for a reason label.
func (m *Metrics) IncDiscarded(reason string) {
	if m == nil {
		return
	}
	m.ResponsesDiscarded.WithLabelValues(reason).Inc()
}

// AddRecordsDiscarded adds n skipped record nodes.
func (m *Metrics) AddRecordsDiscarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDiscarded.Add(float64(n))
}

// AddReviews adds n returned reviews.
func (m *Metrics) AddReviews(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ReviewsExtracted.Add(float64(n))
}

// ObserveStop records why and after how many iterations a scroll loop ended.
func (m *Metrics) ObserveStop(reason string, iterations int) {
	if m == nil {
		return
	}
	m.StopsTotal.WithLabelValues(reason).Inc()
	m.ScrollIterations.Observe(float64(iterations))
}

// IncCacheHit increments the cache hit counter.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}
