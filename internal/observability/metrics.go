package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation during shutdown drain.
	HTTPRequestsInFlight prometheus.Gauge

	// NWS API call rate, labelled by operation (points, hourly) and status.
	// Watch for: error vs success ratio.
	NWSFetchesTotal *prometheus.CounterVec

	// NWS API latency per request. Watch for: p95 > 2s (upstream degradation).
	NWSFetchDuration *prometheus.HistogramVec

	// Scheduled record refresh outcomes. Watch for: sustained failure streaks.
	RefreshTotal *prometheus.CounterVec

	// Refresh ticks skipped because a prior refresh was still in flight.
	// Nonzero means the refresh interval is shorter than upstream latency.
	RefreshSkippedTotal prometheus.Counter

	// Unit toggles, labelled by the unit the display switched to.
	UnitTogglesTotal *prometheus.CounterVec

	// Preference store failures, labelled by operation (get, set).
	PrefStoreErrorsTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	NWSFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nwsFetchesTotal",
			Help: "Total number of NWS API calls",
		},
		[]string{"operation", "status"},
	)
	NWSFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nwsFetchDurationSeconds",
			Help:    "NWS API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordRefreshTotal",
			Help: "Total number of weather record refreshes",
		},
		[]string{"result"},
	)
	RefreshSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recordRefreshSkippedTotal",
			Help: "Refresh ticks skipped because a prior refresh was still in flight",
		},
	)
	UnitTogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unitTogglesTotal",
			Help: "Total number of temperature unit toggles",
		},
		[]string{"unit"},
	)
	PrefStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefStoreErrorsTotal",
			Help: "Total number of preference store failures",
		},
		[]string{"operation"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the rate limiter",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		HTTPRequestsInFlight,
		NWSFetchesTotal,
		NWSFetchDuration,
		RefreshTotal,
		RefreshSkippedTotal,
		UnitTogglesTotal,
		PrefStoreErrorsTotal,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns the HTTP handler exposing the private registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
