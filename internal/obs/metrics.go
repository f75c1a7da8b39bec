// Copyright 2025 James Ross
package obs

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rtsyn/rtsyn/internal/config"
)

var (
	TicksExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtsyn_ticks_executed_total",
		Help: "Total number of engine ticks executed",
	})
	TickOverruns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtsyn_tick_overruns_total",
		Help: "Total number of ticks whose deadline was missed",
	})
	TickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtsyn_tick_duration_seconds",
		Help:    "Histogram of per-tick processing durations",
		Buckets: prometheus.ExponentialBuckets(1e-6, 2, 20),
	})
	TickJitterSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtsyn_tick_jitter_seconds",
		Help:    "Histogram of deviation between scheduled and actual tick start",
		Buckets: prometheus.ExponentialBuckets(1e-7, 2, 20),
	})
	PluginProcessingFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtsyn_plugin_processing_failures_total",
		Help: "Total number of plugin process() errors, by plugin kind",
	}, []string{"kind"})
	PluginSanitisedOutputs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtsyn_plugin_sanitised_outputs_total",
		Help: "Total number of non-finite plugin outputs replaced with 0.0, by plugin kind",
	}, []string{"kind"})
	LoaderCompatibilityWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtsyn_loader_compatibility_warnings_total",
		Help: "Total number of plugin loader compatibility warnings (missing symbol, api_version mismatch)",
	})
	RTPriorityDegraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtsyn_rt_priority_degraded",
		Help: "1 if SCHED_FIFO elevation was denied and the RT thread runs at standard priority",
	})
	SnapshotsPublished = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtsyn_snapshots_published_total",
		Help: "Total number of state snapshots published to the supervisor",
	})
	ActivePlugins = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtsyn_active_plugins",
		Help: "Number of plugin instances currently held by the engine",
	})
)

func init() {
	prometheus.MustRegister(
		TicksExecuted,
		TickOverruns,
		TickDuration,
		TickJitterSeconds,
		PluginProcessingFailures,
		PluginSanitisedOutputs,
		LoaderCompatibilityWarnings,
		RTPriorityDegraded,
		SnapshotsPublished,
		ActivePlugins,
	)
}

// StartMetricsServer exposes /metrics and returns a server for controlled shutdown.
// Prefer StartHTTPServer, which also registers health endpoints.
func StartMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
