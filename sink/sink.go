package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
)

// Option configures sink construction.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *metric.Metrics
}

// WithLogger sets the logger passed to the constructed sink.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables sink metrics recording.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// New connects the event sink selected by cfg.Provider and returns it
// ready to publish. connectTimeout bounds the connection attempt; 0 means
// the attempt runs until ctx is done. When cfg.RateLimit is positive the
// returned sink paces publishes to that many events per second.
func New(
	ctx context.Context,
	cfg config.EventSink,
	connectTimeout time.Duration,
	opts ...Option,
) (engine.EventSink, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With("service", "event-sink")

	var (
		s   engine.EventSink
		err error
	)
	switch cfg.Provider {
	case config.SinkProviderNATS:
		s, err = newNATS(ctx, cfg, connectTimeout, logger, o.metrics)
	case config.SinkProviderWebSocket:
		s, err = newWebSocket(ctx, cfg, connectTimeout, logger, o.metrics)
	case config.SinkProviderNone:
		s = newNoop(logger, o.metrics)
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: event-sink.provider '%s'", errors.ErrInvalidConfig, cfg.Provider),
			"EventSink", "New", "provider selection")
	}
	if err != nil {
		return nil, err
	}

	if cfg.RateLimit > 0 {
		s = newLimited(s, cfg.RateLimit)
		logger.Info("Event sink rate limit active", "events_per_second", cfg.RateLimit)
	}

	return s, nil
}
