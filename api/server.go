package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hagay3/baker/bootstrap"
	"github.com/hagay3/baker/engine"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/health"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/service"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables request counting and latency recording.
func WithMetrics(metrics *metric.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithRequestLogging turns on per-request logging.
func WithRequestLogging(enabled bool) Option {
	return func(s *Server) {
		s.logRequests = enabled
	}
}

// Server is the read-only HTTP boundary over the engine: installed
// recipes, discovered interactions, and the liveness and readiness
// probes. It satisfies service.Service so the orchestrator acquires it
// as a bootstrap stage.
type Server struct {
	port        int
	prefix      string
	engine      engine.Engine
	readiness   *bootstrap.Readiness
	logger      *slog.Logger
	metrics     *metric.Metrics
	logRequests bool

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	status   atomic.Value
}

// NewServer creates an API server for the given engine. A port of zero
// binds an ephemeral port, which Port reports after Start. The
// readiness flag backs the /ready probe; a nil flag reports not ready.
func NewServer(
	port int, prefix string, eng engine.Engine, readiness *bootstrap.Readiness, opts ...Option,
) *Server {
	s := &Server{
		port:      port,
		prefix:    normalizePrefix(prefix),
		engine:    eng,
		readiness: readiness,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("service", "api-server")
	s.status.Store(service.StatusStopped)
	return s
}

// Name returns the stage name used in bootstrap logs
func (s *Server) Name() string {
	return "api-server"
}

// Start binds the listener and begins serving requests. The bind is
// synchronous so a port conflict surfaces as a bootstrap failure.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapInvalid(
			errors.ErrAlreadyStarted,
			"APIServer", "Start", "cannot start server that is already running")
	}

	if s.engine == nil {
		return errors.WrapFatal(
			errors.ErrMissingConfig,
			"APIServer", "Start", "engine not provided")
	}

	s.status.Store(service.StatusStarting)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.status.Store(service.StatusFailed)
		return errors.WrapFatal(err, "APIServer", "Start",
			fmt.Sprintf("failed to bind port %d", s.port))
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.status.Store(service.StatusRunning)

	go func(server *http.Server) {
		if err := server.Serve(listener); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server terminated", "error", err)
		}
	}(s.server)

	s.logger.Info("API server listening", "address", s.addressLocked(), "prefix", s.prefix)
	return nil
}

// Stop shuts the server down, allowing in-flight requests to finish
// within the timeout. Stopping a server that never started is a no-op.
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
		return errors.WrapTransient(err, "APIServer", "Stop",
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

// Health reports whether the server is accepting requests
func (s *Server) Health() health.Status {
	status := s.Status()
	if status == service.StatusRunning {
		return health.NewHealthy("api-server", "Serving requests")
	}
	return health.NewUnhealthy("api-server", fmt.Sprintf("server is %s", status))
}

// Port returns the bound port, resolving an ephemeral bind to its
// actual port once Start has run.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portLocked()
}

// Address returns the base URL of the server
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
	return fmt.Sprintf("http://localhost:%d", s.portLocked())
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}
