package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/natsclient"
)

const natsSinkCloseGrace = 5 * time.Second

// natsSink publishes events as JSON messages on one NATS subject.
type natsSink struct {
	client  *natsclient.Client
	subject string
	logger  *slog.Logger
	metrics *metric.Metrics
	closed  atomic.Bool
}

func newNATS(
	ctx context.Context,
	cfg config.EventSink,
	connectTimeout time.Duration,
	logger *slog.Logger,
	metrics *metric.Metrics,
) (*natsSink, error) {
	clientOpts := []natsclient.ClientOption{
		natsclient.WithName("bakery-event-sink"),
		natsclient.WithLogger(logger),
	}
	if username := config.GetString(cfg.Settings, "username", ""); username != "" {
		clientOpts = append(clientOpts,
			natsclient.WithCredentials(username, config.GetString(cfg.Settings, "password", "")))
	}
	if token := config.GetString(cfg.Settings, "token", ""); token != "" {
		clientOpts = append(clientOpts, natsclient.WithToken(token))
	}

	client, err := natsclient.NewClient(cfg.URL, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "NATSSink", "New", "client construction")
	}

	connectCtx := ctx
	if connectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, connectTimeout)
		defer cancel()
	}

	if err := client.Connect(connectCtx); err != nil {
		return nil, errors.WrapTransient(err, "NATSSink", "New", "connect")
	}
	if err := client.WaitForConnection(connectCtx); err != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), natsSinkCloseGrace)
		defer cancel()
		if closeErr := client.Close(closeCtx); closeErr != nil {
			logger.Warn("Sink client close after failed connect", "error", closeErr)
		}
		return nil, errors.WrapTransient(err, "NATSSink", "New", "connection wait")
	}

	if metrics != nil {
		metrics.RecordSinkStatus(true)
	}
	logger.Info("Event sink connected",
		"provider", config.SinkProviderNATS, "url", cfg.URL, "subject", cfg.Subject)

	return &natsSink{
		client:  client,
		subject: cfg.Subject,
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (s *natsSink) Publish(ctx context.Context, event engine.Event) error {
	if s.closed.Load() {
		return errors.WrapInvalid(errors.ErrSinkClosed, "NATSSink", "Publish", "state check")
	}

	data, err := json.Marshal(event)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSinkError(config.SinkProviderNATS, "encode")
		}
		return errors.WrapInvalid(err, "NATSSink", "Publish", "event encode")
	}

	if err := s.client.Publish(ctx, s.subject, data); err != nil {
		if s.metrics != nil {
			s.metrics.RecordSinkError(config.SinkProviderNATS, "publish")
		}
		return errors.WrapTransient(err, "NATSSink", "Publish", "publish to "+s.subject)
	}

	if s.metrics != nil {
		s.metrics.RecordSinkPublished(config.SinkProviderNATS)
	}

	return nil
}

func (s *natsSink) Close(timeout time.Duration) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	if s.metrics != nil {
		s.metrics.RecordSinkStatus(false)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.client.Close(ctx); err != nil {
		return errors.WrapTransient(err, "NATSSink", "Close", "client close")
	}

	s.logger.Info("Event sink closed", "provider", config.SinkProviderNATS)

	return nil
}
