package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hagay3/baker/health"
)

// StartFunc acquires a resource
type StartFunc func(ctx context.Context) error

// StopFunc releases a resource within the given timeout
type StopFunc func(timeout time.Duration) error

// Func lifts a start/stop pair into a Service so thin acquisition
// steps (sink attachment, recipe loading, the cluster gate wait) share
// one lifecycle shape with the long-running HTTP services.
type Func struct {
	name  string
	start StartFunc
	stop  StopFunc

	status    atomic.Value // Status
	startTime atomic.Value // time.Time
	mu        sync.Mutex
}

// NewFunc creates a Service from a start/stop pair. Either function may
// be nil, meaning that side of the lifecycle is a no-op.
func NewFunc(name string, start StartFunc, stop StopFunc) *Func {
	f := &Func{
		name:  name,
		start: start,
		stop:  stop,
	}
	f.status.Store(StatusStopped)
	f.startTime.Store(time.Time{})
	return f
}

// Name returns the service name
func (f *Func) Name() string {
	return f.name
}

// Status returns the current service status
func (f *Func) Status() Status {
	return f.status.Load().(Status)
}

// Start runs the start function once. A failed start leaves the
// service in StatusFailed and acquires nothing.
func (f *Func) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.Status()
	if current == StatusRunning || current == StatusStarting {
		return nil
	}

	f.status.Store(StatusStarting)

	if f.start != nil {
		if err := f.start(ctx); err != nil {
			f.status.Store(StatusFailed)
			return err
		}
	}

	f.startTime.Store(time.Now())
	f.status.Store(StatusRunning)
	return nil
}

// Stop runs the stop function. Stopping a service that never started,
// or stopping twice, is a no-op.
func (f *Func) Stop(timeout time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current := f.Status()
	if current != StatusRunning {
		return nil
	}

	f.status.Store(StatusStopping)

	var err error
	if f.stop != nil {
		err = f.stop(timeout)
	}

	f.status.Store(StatusStopped)
	return err
}

// Health derives the health status from the lifecycle state
func (f *Func) Health() health.Status {
	switch f.Status() {
	case StatusRunning:
		return health.NewHealthy(f.name, "Service operating normally")
	case StatusStarting:
		return health.NewDegraded(f.name, "Service is starting")
	case StatusStopping:
		return health.NewDegraded(f.name, "Service is stopping")
	case StatusFailed:
		return health.NewUnhealthy(f.name, "Service failed to start")
	default:
		return health.NewUnhealthy(f.name, "Service is stopped")
	}
}

// GetStatus returns the current service information
func (f *Func) GetStatus() Info {
	startTime := f.startTime.Load().(time.Time)

	uptime := time.Duration(0)
	if !startTime.IsZero() && f.Status() == StatusRunning {
		uptime = time.Since(startTime)
	}

	return Info{
		Name:      f.name,
		Status:    f.Status(),
		Uptime:    uptime,
		StartTime: startTime,
	}
}
