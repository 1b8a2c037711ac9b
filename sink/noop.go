package sink

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
)

// noopSink drops every event. It exists so development deployments can run
// without an event transport.
type noopSink struct {
	logger  *slog.Logger
	metrics *metric.Metrics
	dropped atomic.Uint64
	closed  atomic.Bool
}

func newNoop(logger *slog.Logger, metrics *metric.Metrics) *noopSink {
	logger.Warn("Event sink disabled, events will be dropped")

	if metrics != nil {
		metrics.RecordSinkStatus(true)
	}

	return &noopSink{logger: logger, metrics: metrics}
}

func (s *noopSink) Publish(_ context.Context, event engine.Event) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "NoopSink", "Publish", "state check")
	}

	s.dropped.Add(1)
	if s.metrics != nil {
		s.metrics.RecordSinkPublished(config.SinkProviderNone)
	}
	s.logger.Debug("Event dropped", "event", event.Name, "recipe", event.Recipe)

	return nil
}

func (s *noopSink) Close(_ time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordSinkStatus(false)
	}
	s.logger.Info("Event sink closed",
		"provider", config.SinkProviderNone, "dropped", s.dropped.Load())

	return nil
}
