// Package metrics provides Prometheus metrics for the service and the
// publishing pipeline.
//
// Example:
//
//	err := metrics.InitMetrics(config.Metrics)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.PublishCounter.WithLabelValues("l2", "published").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // registers pprof endpoints on the default mux

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imap-mag/magvault/pkg/configs"
)

var (
	// RequestCounter counts HTTP requests.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	// RequestDuration observes HTTP request durations.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveConnections tracks active connections.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)

	// PublishCounter counts publish outcomes per level.
	// Outcomes: published, republished, conflict_retry, failed.
	PublishCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_publishes_total",
			Help: "Total number of publish attempts by outcome",
		},
		[]string{"level", "outcome"},
	)

	// PublishBytes observes published file sizes.
	PublishBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datastore_publish_bytes",
			Help:    "Size in bytes of published files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		},
	)

	// SweepCounter counts retention sweep actions per task.
	// Actions: soft_deleted, archived, skipped_grace, dry_run.
	SweepCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_sweep_actions_total",
			Help: "Total number of retention sweep actions",
		},
		[]string{"task", "action"},
	)

	// OrphanCounter counts orphaned store entries found and collected.
	OrphanCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datastore_orphans_total",
			Help: "Total number of orphaned files detected and collected",
		},
		[]string{"action"},
	)

	registry = prometheus.NewRegistry()
)

// InitMetrics initializes the metrics registry.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	registry.MustRegister(
		RequestCounter, RequestDuration, ActiveConnections,
		PublishCounter, PublishBytes, SweepCounter, OrphanCounter,
	)

	return nil
}

// StartMetricsServer mounts the metrics endpoint on the debug engine.
func StartMetricsServer(config configs.MetricsConfig, debugEngine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	debugEngine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	debugEngine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))

	return nil
}

// GetRegistry returns the Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return registry
}

// NewCounter creates and registers a counter metric.
func NewCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(counter)

	return counter
}

// NewGauge creates and registers a gauge metric.
func NewGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(gauge)

	return gauge
}

// NewHistogram creates and registers a histogram metric.
func NewHistogram(name, help string, labels []string) *prometheus.HistogramVec {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
	registry.MustRegister(histogram)

	return histogram
}
