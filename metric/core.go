package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all platform-level metrics (not recipe-specific)
type Metrics struct {
	// Bootstrap metrics
	ServiceStatus *prometheus.GaugeVec
	StageDuration *prometheus.HistogramVec
	StageFailures *prometheus.CounterVec
	Ready         prometheus.Gauge

	// Engine metrics
	Interactions  prometheus.Gauge
	Recipes       prometheus.Gauge
	EventsEmitted *prometheus.CounterVec

	// Event sink metrics
	SinkConnected prometheus.Gauge
	SinkPublished *prometheus.CounterVec
	SinkErrors    *prometheus.CounterVec

	// Cluster metrics
	ClusterJoined prometheus.Gauge

	// API metrics
	APIRequests        *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ServiceStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "service",
				Name:      "status",
				Help:      "Service status (0=stopped, 1=starting, 2=running, 3=stopping, 4=failed)",
			},
			[]string{"service"},
		),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bakery",
				Subsystem: "bootstrap",
				Name:      "stage_duration_seconds",
				Help:      "Time spent acquiring each bootstrap stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),

		StageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bakery",
				Subsystem: "bootstrap",
				Name:      "stage_failures_total",
				Help:      "Total number of failed stage acquisitions",
			},
			[]string{"stage"},
		),

		Ready: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "bootstrap",
				Name:      "ready",
				Help:      "Bootstrap readiness (0=not ready, 1=ready)",
			},
		),

		Interactions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "engine",
				Name:      "interactions",
				Help:      "Number of interaction handlers discovered at startup",
			},
		),

		Recipes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "engine",
				Name:      "recipes",
				Help:      "Number of recipes installed in the engine",
			},
		),

		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bakery",
				Subsystem: "engine",
				Name:      "events_emitted_total",
				Help:      "Total number of events emitted by the engine",
			},
			[]string{"recipe"},
		),

		SinkConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "sink",
				Name:      "connected",
				Help:      "Event sink connection status (0=disconnected, 1=connected)",
			},
		),

		SinkPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bakery",
				Subsystem: "sink",
				Name:      "published_total",
				Help:      "Total number of events published to the sink",
			},
			[]string{"provider"},
		),

		SinkErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bakery",
				Subsystem: "sink",
				Name:      "errors_total",
				Help:      "Total number of sink publish errors",
			},
			[]string{"provider", "type"},
		),

		ClusterJoined: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bakery",
				Subsystem: "cluster",
				Name:      "joined",
				Help:      "Cluster membership status (0=waiting, 1=member)",
			},
		),

		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bakery",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),

		APIRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bakery",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordServiceStatus updates service status metric
func (c *Metrics) RecordServiceStatus(service string, status int) {
	c.ServiceStatus.WithLabelValues(service).Set(float64(status))
}

// RecordStageDuration records how long a stage took to acquire
func (c *Metrics) RecordStageDuration(stage string, duration time.Duration) {
	c.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordStageFailure increments the failure counter for a stage
func (c *Metrics) RecordStageFailure(stage string) {
	c.StageFailures.WithLabelValues(stage).Inc()
}

// RecordReady updates the readiness gauge
func (c *Metrics) RecordReady(ready bool) {
	value := 0.0
	if ready {
		value = 1.0
	}
	c.Ready.Set(value)
}

// RecordInteractions sets the number of discovered interaction handlers
func (c *Metrics) RecordInteractions(count int) {
	c.Interactions.Set(float64(count))
}

// RecordRecipes sets the number of installed recipes
func (c *Metrics) RecordRecipes(count int) {
	c.Recipes.Set(float64(count))
}

// RecordEventEmitted increments the emitted event counter
func (c *Metrics) RecordEventEmitted(recipe string) {
	c.EventsEmitted.WithLabelValues(recipe).Inc()
}

// RecordSinkStatus updates sink connection status
func (c *Metrics) RecordSinkStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.SinkConnected.Set(value)
}

// RecordSinkPublished increments the published event counter
func (c *Metrics) RecordSinkPublished(provider string) {
	c.SinkPublished.WithLabelValues(provider).Inc()
}

// RecordSinkError increments the sink error counter
func (c *Metrics) RecordSinkError(provider, errorType string) {
	c.SinkErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordClusterJoined updates cluster membership status
func (c *Metrics) RecordClusterJoined(joined bool) {
	value := 0.0
	if joined {
		value = 1.0
	}
	c.ClusterJoined.Set(value)
}

// RecordAPIRequest increments the API request counter
func (c *Metrics) RecordAPIRequest(method, path, status string) {
	c.APIRequests.WithLabelValues(method, path, status).Inc()
}

// RecordAPIRequestDuration records API request latency
func (c *Metrics) RecordAPIRequestDuration(method, path string, duration time.Duration) {
	c.APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
