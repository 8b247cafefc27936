// Package metrics exposes Prometheus collectors for analyses, the
// classifier bootstrap and price fetching.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Metrics holds all Prometheus metrics for MarketScout.
type Metrics struct {
	AnalysesTotal     *prometheus.CounterVec // labels: outcome
	AnalysisDuration  prometheus.Histogram
	ExplorationsTotal prometheus.Counter
	AlignedPicks      prometheus.Histogram

	// Classifier
	BootstrapDuration prometheus.Gauge
	BootstrapErrors   prometheus.Counter

	// Price fetching
	FetchDuration *prometheus.HistogramVec // labels: source
	FetchErrors   *prometheus.CounterVec   // labels: source
	BreakerState  *prometheus.GaugeVec     // labels: source; 0=closed, 1=half-open, 2=open

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketscout_analyses_total",
			Help: "Analyses run, by outcome (ok or the error payload)",
		}, []string{"outcome"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketscout_analysis_duration_seconds",
			Help:    "Wall time of one symbol analysis including data fetch",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		ExplorationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketscout_explorations_total",
			Help: "Scenario explorations served",
		}),
		AlignedPicks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketscout_exploration_aligned_picks",
			Help:    "Aligned stocks returned per exploration",
			Buckets: prometheus.LinearBuckets(0, 1, 6),
		}),
		BootstrapDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marketscout_classifier_bootstrap_seconds",
			Help: "Time taken by the last classifier bootstrap",
		}),
		BootstrapErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketscout_classifier_bootstrap_errors_total",
			Help: "Failed classifier bootstraps",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketscout_fetch_duration_seconds",
			Help:    "Price history fetch latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketscout_fetch_errors_total",
			Help: "Failed price history fetches",
		}, []string{"source"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "marketscout_fetch_breaker_state",
			Help: "Fetch circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"source"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysesTotal,
		m.AnalysisDuration,
		m.ExplorationsTotal,
		m.AlignedPicks,
		m.BootstrapDuration,
		m.BootstrapErrors,
		m.FetchDuration,
		m.FetchErrors,
		m.BreakerState,
	)
	return m
}

// ObserveFetch implements collector.FetchObserver.
func (m *Metrics) ObserveFetch(source string, elapsed time.Duration, err error) {
	m.FetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

// ObserveBootstrap records a classifier bootstrap.
func (m *Metrics) ObserveBootstrap(elapsed time.Duration, err error) {
	if err != nil {
		m.BootstrapErrors.Inc()
		return
	}
	m.BootstrapDuration.Set(elapsed.Seconds())
}

// ObserveAnalysis records one analysis; an empty errPayload means success.
func (m *Metrics) ObserveAnalysis(elapsed time.Duration, errPayload string) {
	outcome := "ok"
	if errPayload != "" {
		outcome = errPayload
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(elapsed.Seconds())
}

// ObserveExploration records the number of aligned picks of an exploration.
func (m *Metrics) ObserveExploration(picks int) {
	m.ExplorationsTotal.Inc()
	m.AlignedPicks.Observe(float64(picks))
}

// SetBreakerState records a fetch circuit breaker transition.
func (m *Metrics) SetBreakerState(source string, st gobreaker.State) {
	m.BreakerState.WithLabelValues(source).Set(float64(st))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
