package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/service"
)

// stageMetricsRegistrar names the pseudo-stage that installs metrics
// providers. It runs before the first real stage so a registration
// conflict surfaces as a bootstrap failure, not a broken scrape.
const stageMetricsRegistrar = "metrics-registrar"

const defaultStopTimeout = 30 * time.Second

// Option configures a Composer.
type Option func(*Composer)

// WithLogger sets the logger used for stage lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics wires the core platform metrics into the composer so it
// records stage durations, failures, and the readiness gauge.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(c *Composer) {
		c.metrics = metrics
	}
}

// WithRegistrar sets the registrar handed to queued metrics providers.
// Required when AddProvider is used.
func WithRegistrar(registrar metric.MetricsRegistrar) Option {
	return func(c *Composer) {
		c.registrar = registrar
	}
}

// WithStopTimeout sets the per-stage timeout used when releasing
// stages, both during shutdown and when unwinding a failed startup.
func WithStopTimeout(timeout time.Duration) Option {
	return func(c *Composer) {
		if timeout > 0 {
			c.stopTimeout = timeout
		}
	}
}

// WithOnReady registers a hook invoked once, after the final stage is
// acquired and the readiness flag is set.
func WithOnReady(fn func()) Option {
	return func(c *Composer) {
		c.onReady = fn
	}
}

type provider struct {
	name string
	impl MetricsProvider
}

// Composer acquires an ordered sequence of services and releases them
// in reverse. It owns the process readiness flag: the flag flips only
// after every stage starts, and never flips back.
//
// Assembly (Add, AddFunc, AddProvider) happens before Up; after that
// the composer's state is driven by the single goroutine running
// Up, Run, or Down.
type Composer struct {
	logger      *slog.Logger
	metrics     *metric.Metrics
	registrar   metric.MetricsRegistrar
	readiness   *Readiness
	stopTimeout time.Duration
	onReady     func()

	mu        sync.Mutex
	stages    []service.Service
	providers []provider
	acquired  []service.Service
}

// New creates an empty Composer.
func New(opts ...Option) *Composer {
	c := &Composer{
		logger:      slog.Default(),
		readiness:   NewReadiness(),
		stopTimeout: defaultStopTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("service", "bootstrap")
	return c
}

// Readiness returns the flag the readiness probe reads.
func (c *Composer) Readiness() *Readiness {
	return c.readiness
}

// Add appends a stage. Stages are acquired in the order added.
func (c *Composer) Add(svc service.Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stages = append(c.stages, svc)
}

// AddFunc appends a stage built from a start/stop pair.
func (c *Composer) AddFunc(name string, start service.StartFunc, stop service.StopFunc) {
	c.Add(service.NewFunc(name, start, stop))
}

// AddProvider queues a metrics provider. Providers are registered in
// order before the first stage is acquired.
func (c *Composer) AddProvider(name string, p MetricsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers = append(c.providers, provider{name: name, impl: p})
}

// Up acquires every stage in order. On the first failure it releases
// the stages already acquired, in reverse order, and returns a
// *Failure naming the stage that broke; the stages after it are never
// started. On success it sets the readiness flag and invokes the
// on-ready hook.
func (c *Composer) Up(ctx context.Context) error {
	c.mu.Lock()
	stages := make([]service.Service, len(c.stages))
	copy(stages, c.stages)
	providers := make([]provider, len(c.providers))
	copy(providers, c.providers)
	c.mu.Unlock()

	if err := c.registerProviders(providers); err != nil {
		if c.metrics != nil {
			c.metrics.RecordStageFailure(stageMetricsRegistrar)
		}
		c.logger.Error("Metrics registration failed", "error", err)
		return &Failure{Stage: stageMetricsRegistrar, Cause: err}
	}

	c.logger.Info("Starting bootstrap sequence", "stages", len(stages))

	for i, svc := range stages {
		name := svc.Name()

		if err := ctx.Err(); err != nil {
			cause := errors.Wrap(err, "Composer", "Up", "bootstrap interrupted")
			return c.fail(name, cause)
		}

		c.logger.Debug("Acquiring stage", "stage", name, "position", i+1)

		start := time.Now()
		if err := svc.Start(ctx); err != nil {
			return c.fail(name, err)
		}
		elapsed := time.Since(start)

		c.mu.Lock()
		c.acquired = append(c.acquired, svc)
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.RecordStageDuration(name, elapsed)
			c.metrics.RecordServiceStatus(name, int(service.StatusRunning))
		}
		c.logger.Info("Stage acquired", "stage", name, "duration_ms", elapsed.Milliseconds())
	}

	c.readiness.set()
	if c.metrics != nil {
		c.metrics.RecordReady(true)
	}
	c.logger.Info("Bootstrap sequence complete", "stages", len(stages))

	if c.onReady != nil {
		c.onReady()
	}

	return nil
}

// Down releases every acquired stage in reverse order. Release errors
// are logged and the release continues, so one stuck stage cannot
// strand the stages before it. Draining the acquired list makes a
// second call a no-op.
func (c *Composer) Down(timeout time.Duration) {
	c.mu.Lock()
	acquired := c.acquired
	c.acquired = nil
	c.mu.Unlock()

	logger := c.logger.With("operation", "stages-release")

	if len(acquired) == 0 {
		logger.Debug("No stages to release")
		return
	}

	logger.Info("Releasing acquired stages", "count", len(acquired))

	for i := len(acquired) - 1; i >= 0; i-- {
		svc := acquired[i]
		start := time.Now()

		if err := svc.Stop(timeout); err != nil {
			logger.Error("Stage release failed",
				"stage", svc.Name(),
				"error", err,
				"duration_ms", time.Since(start).Milliseconds())
			continue
		}

		if c.metrics != nil {
			c.metrics.RecordServiceStatus(svc.Name(), int(service.StatusStopped))
		}
		logger.Debug("Stage released",
			"stage", svc.Name(),
			"duration_ms", time.Since(start).Milliseconds())
	}

	logger.Info("All stages released")
}

// Run brings the composition up, blocks until the context is
// cancelled, then releases everything. A failed Up returns immediately
// with the stage failure; release errors during shutdown are logged
// but never returned.
func (c *Composer) Run(ctx context.Context) error {
	if err := c.Up(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	c.logger.Info("Shutdown signal received")
	c.Down(c.stopTimeout)
	return nil
}

// fail records the stage failure, releases the acquired prefix in
// reverse order, and annotates the cause with the stage name. The
// cause itself is preserved for classification.
func (c *Composer) fail(stage string, cause error) error {
	if c.metrics != nil {
		c.metrics.RecordStageFailure(stage)
		c.metrics.RecordServiceStatus(stage, int(service.StatusFailed))
	}
	c.logger.Error("Stage acquisition failed", "stage", stage, "error", cause)
	c.Down(c.stopTimeout)
	return &Failure{Stage: stage, Cause: cause}
}

func (c *Composer) registerProviders(providers []provider) error {
	if len(providers) == 0 {
		return nil
	}

	if c.registrar == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%d metrics providers queued without a registrar", len(providers)),
			"Composer", "Up", "registrar required")
	}

	for _, p := range providers {
		if err := p.impl.RegisterMetrics(c.registrar); err != nil {
			return errors.Wrap(err, "Composer", "Up",
				fmt.Sprintf("metrics registration for %s", p.name))
		}
		c.logger.Debug("Metrics registered", "provider", p.name)
	}

	return nil
}
