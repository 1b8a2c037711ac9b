package cluster

import (
	"context"
	"fmt"
	"sync"
)

// Gate is a one-shot barrier separating bootstrap from cluster membership.
// It starts waiting and moves to signaled exactly once; the transition never
// reverses. Safe for concurrent use by any number of signalers and waiters.
type Gate struct {
	mu       sync.Mutex
	signaled bool
	fired    chan struct{}
}

// NewGate creates a gate in the waiting state.
func NewGate() *Gate {
	return &Gate{fired: make(chan struct{})}
}

// Signal moves the gate to signaled and releases all waiters. Calls after
// the first are no-ops.
func (g *Gate) Signal() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.signaled {
		return
	}

	g.signaled = true
	close(g.fired)
}

// Signaled reports whether the gate has fired.
func (g *Gate) Signaled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.signaled
}

// Await suspends the caller until the gate fires or ctx ends. It returns
// nil immediately when the gate is already signaled, even if ctx is already
// cancelled. There is no built-in timeout: an unbounded ctx waits forever.
func (g *Gate) Await(ctx context.Context) error {
	select {
	case <-g.fired:
		return nil
	default:
	}

	select {
	case <-g.fired:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cluster gate wait interrupted: %w", ctx.Err())
	}
}
