// Package main implements the bakery node daemon. It loads the node
// configuration, discovers interaction handlers, builds the engine and
// brings the service stages up in a fixed order: event sink, recipe
// loader, cluster gate, API server, metrics server. The node reports
// ready only after the full sequence is acquired.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/hagay3/baker/api"
	"github.com/hagay3/baker/bootstrap"
	"github.com/hagay3/baker/cluster"
	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/interaction"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/recipe"
	"github.com/hagay3/baker/sink"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "bakeryd"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		logFailure(err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting bakery node",
		"version", Version,
		"build_time", BuildTime,
		"config_dir", cliCfg.ConfigDir)

	cfg, err := config.Load(cliCfg.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid", "config_dir", cliCfg.ConfigDir)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runNode(ctx, cfg, cliCfg, logger)
}

// runNode assembles the bootstrap sequence and runs it until shutdown.
func runNode(ctx context.Context, cfg *config.Config, cliCfg *CLIConfig, logger *slog.Logger) error {
	// Discovery precedes engine construction: the engine and the recipe
	// loader both dispatch against the resulting registry.
	provider := interaction.NewTableProvider()
	if err := interaction.RegisterBuiltins(provider); err != nil {
		return fmt.Errorf("register builtin interactions: %w", err)
	}

	registry, err := interaction.Discover(ctx, cfg.InteractionConfigurations, provider, logger)
	if err != nil {
		return fmt.Errorf("interaction discovery: %w", err)
	}

	metricsRegistry := metric.NewMetricsRegistry()
	metrics := metricsRegistry.CoreMetrics()

	eng := engine.NewLocal(registry,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics))

	stopTimeout := cfg.Timeouts.Shutdown.Duration()
	if cliCfg.ShutdownTimeout > 0 {
		stopTimeout = cliCfg.ShutdownTimeout
	}

	var apiServer *api.Server
	composer := bootstrap.New(
		bootstrap.WithLogger(logger),
		bootstrap.WithMetrics(metrics),
		bootstrap.WithRegistrar(metricsRegistry),
		bootstrap.WithStopTimeout(stopTimeout),
		bootstrap.WithOnReady(func() {
			if apiServer != nil {
				slog.Info("Bakery node ready",
					"api", apiServer.Address()+cfg.APIURLPrefix,
					"metrics_port", cfg.MetricsPort)
			}
		}),
	)

	composer.AddProvider("engine", eng)
	composer.AddProvider("process", newProcessSampler())

	var eventSink engine.EventSink
	composer.AddFunc("event-sink",
		func(ctx context.Context) error {
			s, err := sink.New(ctx, cfg.EventSink, cfg.Timeouts.SinkConnect.Duration(),
				sink.WithLogger(logger),
				sink.WithMetrics(metrics))
			if err != nil {
				return err
			}
			eventSink = s
			eng.AttachSink(s)
			return nil
		},
		func(timeout time.Duration) error {
			if eventSink == nil {
				return nil
			}
			return eventSink.Close(timeout)
		})

	composer.AddFunc("recipe-loader",
		func(ctx context.Context) error {
			return loadRecipes(ctx, cfg, eng, registry, logger)
		},
		nil)

	clusterStage, err := newClusterStage(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("cluster stage: %w", err)
	}
	composer.Add(clusterStage)

	apiServer = api.NewServer(cfg.APIPort, cfg.APIURLPrefix, eng, composer.Readiness(),
		api.WithLogger(logger),
		api.WithMetrics(metrics),
		api.WithRequestLogging(cfg.APILoggingEnabled))
	composer.Add(apiServer)

	composer.Add(metric.NewServer(cfg.MetricsPort, metricsRegistry, logger))

	return composer.Run(ctx)
}

// loadRecipes reads every recipe definition from the configured
// directory into the engine.
func loadRecipes(
	ctx context.Context,
	cfg *config.Config,
	eng engine.Engine,
	registry *interaction.Registry,
	logger *slog.Logger,
) error {
	opts := []recipe.LoaderOption{recipe.WithLogger(logger)}

	if cfg.Validation.Enabled {
		validator, err := recipe.NewValidator(cfg.Validation.SchemaFile)
		if err != nil {
			return fmt.Errorf("recipe validator: %w", err)
		}
		opts = append(opts, recipe.WithValidator(validator))
	}

	loader := recipe.NewLoader(opts...)
	count, err := loader.LoadAll(ctx, cfg.Recipes.Directory, eng, registry)
	if err != nil {
		return err
	}

	slog.Info("Recipes loaded", "count", count, "directory", cfg.Recipes.Directory)
	return nil
}

// newClusterStage builds the cluster-gate stage for the configured
// membership provider.
func newClusterStage(cfg *config.Config, metrics *metric.Metrics, logger *slog.Logger) (*cluster.Service, error) {
	var provider cluster.Provider

	switch cfg.Cluster.Provider {
	case config.ClusterProviderStatic:
		provider = cluster.NewStaticProvider()
	case config.ClusterProviderNATS:
		natsProvider, err := cluster.NewNATSProvider(cfg.Cluster, logger)
		if err != nil {
			return nil, err
		}
		provider = natsProvider
	default:
		return nil, fmt.Errorf("unknown cluster provider %q", cfg.Cluster.Provider)
	}

	return cluster.NewService(provider, cluster.NewGate(),
		cluster.WithWaitTimeout(cfg.Timeouts.Bootstrap.Duration()),
		cluster.WithMetrics(metrics),
		cluster.WithLogger(logger))
}

// logFailure reports why the node could not run. A stage failure names
// the stage so operators see where the sequence broke.
func logFailure(err error) {
	var failure *bootstrap.Failure
	if stderrors.As(err, &failure) {
		slog.Error("Bootstrap failed",
			"stage", failure.Stage,
			"error", failure.Cause,
			"exit_code", 1)
		return
	}
	slog.Error("Application failed", "error", err, "exit_code", 1)
}
