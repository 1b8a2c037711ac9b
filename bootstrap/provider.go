package bootstrap

import "github.com/hagay3/baker/metric"

// MetricsProvider is implemented by subsystems that contribute their
// own collectors or pull-style samplers. The composer registers every
// provider before acquiring the first stage, so samplers are in place
// before the metrics endpoint can be scraped.
type MetricsProvider interface {
	RegisterMetrics(registrar metric.MetricsRegistrar) error
}
