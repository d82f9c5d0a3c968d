package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/contentkit/feature"
	"github.com/rushteam/contentkit/rank"
	"github.com/rushteam/contentkit/recall"
)

// Metrics 是推荐服务的 Prometheus 指标，注册在调用方提供的 Registerer 上。
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    prometheus.Histogram
	ResultsTotal       *prometheus.CounterVec
	FallbackTotal      prometheus.Counter
	DegradedTotal      *prometheus.CounterVec
	RebuildsTotal      *prometheus.CounterVec
	RebuildDuration    prometheus.Histogram
	SpaceItems         prometheus.Gauge
	SpaceDimensions    *prometheus.GaugeVec
	HistoryErrorsTotal prometheus.Counter
	QueryCacheTotal    *prometheus.CounterVec
}

// NewMetrics 创建并注册指标。reg 为 nil 时只创建不注册。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentkit_requests_total",
				Help: "Total number of recommendation requests",
			},
			[]string{"status"},
		),
		RequestDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contentkit_request_duration_seconds",
				Help:    "Duration of recommendation requests in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		ResultsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentkit_results_total",
				Help: "Total number of returned items by source",
			},
			[]string{"source"},
		),
		FallbackTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "contentkit_fallback_requests_total",
				Help: "Total number of requests filled by the popularity fallback",
			},
		),
		DegradedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentkit_degraded_requests_total",
				Help: "Total number of requests where a filter failed and was skipped",
			},
			[]string{"filter"},
		),
		RebuildsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentkit_rebuilds_total",
				Help: "Total number of vector space rebuilds",
			},
			[]string{"status"},
		),
		RebuildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "contentkit_rebuild_duration_seconds",
				Help:    "Duration of vector space rebuilds in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		SpaceItems: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "contentkit_space_items",
				Help: "Number of items in the current vector space",
			},
		),
		SpaceDimensions: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "contentkit_space_dimensions",
				Help: "Number of feature columns in the current vector space",
			},
			[]string{"segment"},
		),
		HistoryErrorsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "contentkit_history_errors_total",
				Help: "Total number of failed history writes",
			},
		),
		QueryCacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contentkit_query_cache_total",
				Help: "Query vector cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeRequest(err error, d time.Duration, results []rank.Result) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
	if err != nil {
		m.RequestsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RequestsTotal.WithLabelValues("ok").Inc()
	fallback := false
	for _, r := range results {
		m.ResultsTotal.WithLabelValues(r.Source).Inc()
		if r.Source == recall.SourcePopularity {
			fallback = true
		}
	}
	if fallback {
		m.FallbackTotal.Inc()
	}
}

func (m *Metrics) observeDegraded(filters []string) {
	if m == nil {
		return
	}
	for _, name := range filters {
		m.DegradedTotal.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) observeRebuild(err error, d time.Duration, space *feature.VectorSpace) {
	if m == nil {
		return
	}
	m.RebuildDuration.Observe(d.Seconds())
	if err != nil {
		m.RebuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RebuildsTotal.WithLabelValues("ok").Inc()
	m.SpaceItems.Set(float64(space.Len()))
	m.SpaceDimensions.WithLabelValues("text").Set(float64(space.TextDim()))
	m.SpaceDimensions.WithLabelValues("numeric").Set(float64(space.Dim() - space.TextDim()))
}

func (m *Metrics) observeHistoryError() {
	if m == nil {
		return
	}
	m.HistoryErrorsTotal.Inc()
}

func (m *Metrics) observeQueryCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.QueryCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.QueryCacheTotal.WithLabelValues("miss").Inc()
}
