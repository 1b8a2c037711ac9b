// Package metric provides Prometheus-based metrics collection and the HTTP
// server that exposes them for the bakery platform.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (bootstrap stages, engine activity, sink and cluster
// health) and custom service-specific metrics. It includes an HTTP server
// exposing metrics in Prometheus text exposition format.
//
// # Architecture
//
// The package follows a three-layer design:
//
//  1. Core Metrics: Platform-level metrics automatically registered (Metrics type)
//  2. Service Registry: Extensible registration for service-specific metrics (MetricsRegistrar interface)
//  3. HTTP Server: Metrics endpoint with a health check (Server type)
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, registry, logger)
//
//	if err := server.Start(ctx); err != nil {
//	    return err // port conflicts surface here, not in the background
//	}
//	defer server.Stop(5 * time.Second)
//
//	// Record core platform metrics
//	core := registry.CoreMetrics()
//	core.RecordServiceStatus("event-sink", 2)
//	core.RecordStageDuration("recipe-loader", 120*time.Millisecond)
//	core.RecordReady(true)
//
// The server exposes Prometheus-formatted metrics at
// http://localhost:9090/metrics and a health check at
// http://localhost:9090/health.
//
// # Service-Specific Metrics
//
// Services register custom metrics through the MetricsRegistrar interface:
//
//	counter := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "bakery",
//	    Subsystem: "oven",
//	    Name:      "batches_total",
//	    Help:      "Total number of batches processed",
//	})
//	if err := registry.RegisterCounter("oven", "batches_total", counter); err != nil {
//	    return err
//	}
//
// Registration is tracked per service so two services cannot silently
// claim the same metric. A registration failure is a startup failure;
// nothing in this package registers best-effort.
//
// # Pull Samplers
//
// A SampleFunc is evaluated at scrape time instead of being pushed to:
//
//	err := registry.RegisterSampler("engine", "state", func() []metric.Sample {
//	    return []metric.Sample{
//	        {Name: "bakery_engine_goroutines", Value: float64(runtime.NumGoroutine())},
//	    }
//	})
//
// Samplers must be registered before the metrics server starts so the
// first scrape already observes them. Sample functions may be called
// concurrently and must not mutate shared state.
package metric
