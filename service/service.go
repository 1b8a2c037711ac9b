// Package service defines the scoped-service contract shared by every
// subsystem the bootstrap orchestrator acquires: a paired start/stop
// lifecycle with idempotent stop and standard health reporting.
package service

import (
	"context"
	"time"

	"github.com/hagay3/baker/health"
)

// Status represents the current status of a service
type Status int

// Possible service statuses
const (
	StatusStopped Status = iota
	StatusStarting
	StatusRunning
	StatusStopping
	StatusFailed
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusStopping:
		return "stopping"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Info holds runtime information for a service
type Info struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	StartTime time.Time     `json:"start_time,omitempty"`
}

// Service is the contract every acquired subsystem satisfies.
//
// Start acquires the underlying resource; a non-nil error means nothing
// was acquired and Stop must not be called for this attempt. Stop
// releases the resource and is idempotent: stopping a service that
// never started, or stopping twice, returns nil without side effects.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(timeout time.Duration) error
	Status() Status
	Health() health.Status
}
