package main

import (
	"time"

	"github.com/hagay3/baker/metric"
)

// processSampler contributes process-level samples read at scrape time.
type processSampler struct {
	start time.Time
}

func newProcessSampler() *processSampler {
	return &processSampler{start: time.Now()}
}

// RegisterMetrics installs the process sampler on the registry.
func (p *processSampler) RegisterMetrics(registrar metric.MetricsRegistrar) error {
	return registrar.RegisterSampler("process", "runtime", p.sample)
}

func (p *processSampler) sample() []metric.Sample {
	return []metric.Sample{
		{
			Name:  "bakery_uptime_seconds",
			Help:  "Seconds since the bakery node started",
			Value: time.Since(p.start).Seconds(),
		},
	}
}
