package metric

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/health"
	"github.com/hagay3/baker/service"
)

// Server exposes the metrics registry over HTTP in text exposition format.
// It satisfies service.Service so the orchestrator acquires it as a
// bootstrap stage, which keeps the registration-before-exposure ordering:
// every sampler is installed before the first scrape can arrive.
type Server struct {
	port     int
	path     string
	registry *MetricsRegistry
	logger   *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	status   atomic.Value
}

// NewServer creates a metrics server for the provided registry. A port of
// zero binds an ephemeral port, which Port reports after Start.
func NewServer(port int, registry *MetricsRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		port:     port,
		path:     "/metrics",
		registry: registry,
		logger:   logger.With("service", "metrics-server"),
	}
	s.status.Store(service.StatusStopped)
	return s
}

// Name returns the stage name used in bootstrap logs
func (s *Server) Name() string {
	return "metrics-server"
}

// Start binds the listener and begins serving scrapes. The bind happens
// synchronously so a port conflict surfaces as a bootstrap failure rather
// than a background log line.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapInvalid(
			errors.ErrAlreadyStarted,
			"MetricsServer", "Start", "cannot start server that is already running")
	}

	if s.registry == nil {
		return errors.WrapFatal(
			errors.ErrMissingConfig,
			"MetricsServer", "Start", "metrics registry not provided")
	}

	s.status.Store(service.StatusStarting)

	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.HandlerFor(
		s.registry.PrometheusRegistry(),
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.status.Store(service.StatusFailed)
		return errors.WrapFatal(err, "MetricsServer", "Start",
			fmt.Sprintf("failed to bind port %d", s.port))
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.status.Store(service.StatusRunning)

	go func(server *http.Server) {
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server terminated", "error", err)
		}
	}(s.server)

	s.logger.Info("Metrics server listening", "address", s.addressLocked())
	return nil
}

// Stop shuts the server down, allowing in-flight scrapes to finish within
// the timeout. Stopping a server that never started is a no-op.
func (s *Server) Stop(timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	s.status.Store(service.StatusStopping)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	s.status.Store(service.StatusStopped)

	if err != nil {
		return errors.WrapTransient(err, "MetricsServer", "Stop",
			"failed to stop HTTP server")
	}
	return nil
}

// Status returns the current lifecycle status
func (s *Server) Status() service.Status {
	if status, ok := s.status.Load().(service.Status); ok {
		return status
	}
	return service.StatusStopped
}

// Health reports whether the server is accepting scrapes
func (s *Server) Health() health.Status {
	status := s.Status()
	if status == service.StatusRunning {
		return health.NewHealthy("metrics-server", "Serving scrapes")
	}
	return health.NewUnhealthy("metrics-server", fmt.Sprintf("server is %s", status))
}

// Port returns the bound port, resolving an ephemeral bind to its actual
// port once Start has run.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portLocked()
}

// Address returns the scrape URL for the server
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addressLocked()
}

func (s *Server) portLocked() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.port
}

func (s *Server) addressLocked() string {
	return fmt.Sprintf("http://localhost:%d%s", s.portLocked(), s.path)
}
