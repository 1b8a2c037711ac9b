package cluster

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/health"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/service"
)

const serviceName = "cluster-gate"

const failedWaitLeaveTimeout = 5 * time.Second

// Service exposes a membership provider plus gate as the bootstrap stage
// that suspends startup until the cluster has formed. With no wait timeout
// configured, Start blocks until the gate fires or ctx is cancelled.
type Service struct {
	provider Provider
	gate     *Gate
	timeout  time.Duration
	metrics  *metric.Metrics
	logger   *slog.Logger

	status   atomic.Value
	acquired atomic.Bool
}

// ServiceOption configures optional Service behavior.
type ServiceOption func(*Service)

// WithWaitTimeout bounds the membership wait. Zero keeps the default
// unbounded wait.
func WithWaitTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = timeout
	}
}

// WithMetrics publishes membership transitions to the cluster gauge.
func WithMetrics(metrics *metric.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the cluster-gate stage around a provider and gate.
func NewService(provider Provider, gate *Gate, opts ...ServiceOption) (*Service, error) {
	if provider == nil {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "ClusterService", "NewService", "provider validation")
	}
	if gate == nil {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "ClusterService", "NewService", "gate validation")
	}

	s := &Service{
		provider: provider,
		gate:     gate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("service", serviceName)
	s.status.Store(service.StatusStopped)

	return s, nil
}

// Name returns the stage name.
func (s *Service) Name() string { return serviceName }

// Gate returns the gate this stage waits on.
func (s *Service) Gate() *Gate { return s.gate }

// Start joins the cluster and suspends until membership is active. On any
// failure the membership acquired by Join is withdrawn before returning, so
// the caller must not Stop this stage for the failed attempt.
func (s *Service) Start(ctx context.Context) error {
	s.status.Store(service.StatusStarting)

	s.provider.RegisterOnMemberUp(func() {
		s.gate.Signal()
		if s.metrics != nil {
			s.metrics.RecordClusterJoined(true)
		}
	})

	if err := s.provider.Join(ctx); err != nil {
		s.status.Store(service.StatusFailed)
		return errors.Wrap(err, "ClusterService", "Start", "cluster join")
	}

	waitCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("Waiting for cluster membership", "timeout", s.timeout)

	if err := s.gate.Await(waitCtx); err != nil {
		if leaveErr := s.provider.Leave(failedWaitLeaveTimeout); leaveErr != nil {
			s.logger.Warn("Cluster leave after failed wait", "error", leaveErr)
		}
		s.status.Store(service.StatusFailed)

		if s.timeout > 0 && stderrors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %w", errors.ErrMembershipTimeout, s.timeout, err)
		}

		return errors.WrapFatal(err, "ClusterService", "Start", "cluster gate wait")
	}

	s.acquired.Store(true)
	s.status.Store(service.StatusRunning)
	s.logger.Info("Cluster membership active")

	return nil
}

// Stop withdraws cluster membership. Idempotent; a Stop without a preceding
// successful Start releases nothing.
func (s *Service) Stop(timeout time.Duration) error {
	if !s.acquired.CompareAndSwap(true, false) {
		return nil
	}

	s.status.Store(service.StatusStopping)

	if s.metrics != nil {
		s.metrics.RecordClusterJoined(false)
	}

	err := s.provider.Leave(timeout)
	s.status.Store(service.StatusStopped)
	if err != nil {
		return errors.WrapTransient(err, "ClusterService", "Stop", "cluster leave")
	}

	return nil
}

// Status returns the current lifecycle status.
func (s *Service) Status() service.Status {
	if status, ok := s.status.Load().(service.Status); ok {
		return status
	}
	return service.StatusStopped
}

// Health reports healthy once membership is active.
func (s *Service) Health() health.Status {
	if s.Status() == service.StatusRunning && s.gate.Signaled() {
		return health.NewHealthy(serviceName, "cluster membership active")
	}
	return health.NewUnhealthy(serviceName,
		fmt.Sprintf("cluster gate is %s", s.Status()))
}
