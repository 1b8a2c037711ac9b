package metric

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Sample is one gauge reading produced by a SampleFunc at scrape time.
type Sample struct {
	Name   string
	Help   string
	Value  float64
	Labels map[string]string
}

// SampleFunc returns the current samples for a service. The metrics
// endpoint invokes it on every scrape, possibly from concurrent requests,
// so implementations must be safe for repeated concurrent calls and must
// not mutate shared state.
type SampleFunc func() []Sample

// samplerCollector adapts a SampleFunc to prometheus.Collector. Describe
// sends no descriptors, making this an unchecked collector, so the sample
// set may change between scrapes.
type samplerCollector struct {
	sample SampleFunc
}

func (c *samplerCollector) Describe(_ chan<- *prometheus.Desc) {}

func (c *samplerCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.sample() {
		names := make([]string, 0, len(s.Labels))
		for name := range s.Labels {
			names = append(names, name)
		}
		sort.Strings(names)

		values := make([]string, len(names))
		for i, name := range names {
			values[i] = s.Labels[name]
		}

		desc := prometheus.NewDesc(s.Name, s.Help, names, nil)
		m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, s.Value, values...)
		if err != nil {
			ch <- prometheus.NewInvalidMetric(desc, err)
			continue
		}
		ch <- m
	}
}
