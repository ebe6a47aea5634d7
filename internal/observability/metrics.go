package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "btr"

// Metrics holds the Prometheus counters, histograms, and gauges for report generation.
type Metrics struct {
	// Data-source metrics.
	FetchRequests *prometheus.CounterVec   // labels: source, outcome={success,not_found,unavailable,timeout,skipped}
	FetchDuration *prometheus.HistogramVec // labels: source
	GeocodeCache  *prometheus.CounterVec   // labels: result={hit,miss}

	// Report metrics.
	Reports          *prometheus.CounterVec // labels: outcome={success,incomplete,missing_data,error}
	ReportDuration   prometheus.Histogram
	InvestmentScore  prometheus.Histogram
	CuratorRequests  *prometheus.CounterVec // labels: outcome={success,unavailable,disabled}
	ReportsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Data-source requests by source and outcome.",
		}, []string{"source", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Data-source request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report runs by outcome.",
		}, []string{"outcome"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "End-to-end duration of a report run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		}),
		InvestmentScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "investment_score",
			Help:      "Distribution of computed BTR investment scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		CuratorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "curator_requests_total",
			Help:      "LLM curator calls by outcome.",
		}, []string{"outcome"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Report events written to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.GeocodeCache,
		m.Reports,
		m.ReportDuration,
		m.InvestmentScore,
		m.CuratorRequests,
		m.ReportsPublished,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid "already
// registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
