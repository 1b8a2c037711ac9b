package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/hagay3/baker/errors"
)

// Provider establishes cluster membership for this node and reports when
// the membership becomes active.
type Provider interface {
	// Join starts membership. The member-up callback may fire before Join
	// returns.
	Join(ctx context.Context) error

	// RegisterOnMemberUp installs the callback invoked when this node's
	// membership becomes active. Must be called before Join. The callback
	// may be invoked more than once; callers are expected to tolerate that.
	RegisterOnMemberUp(fn func())

	// Leave withdraws this node from the cluster.
	Leave(timeout time.Duration) error
}

// StaticProvider declares membership active as soon as Join runs. It serves
// single-node and development deployments with no external coordinator.
type StaticProvider struct {
	mu       sync.Mutex
	onMember func()
	joined   bool
}

// NewStaticProvider creates a provider whose membership is always immediate.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// RegisterOnMemberUp installs the member-up callback.
func (p *StaticProvider) RegisterOnMemberUp(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onMember = fn
}

// Join marks membership active and fires the member-up callback.
func (p *StaticProvider) Join(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "StaticProvider", "Join", "context check")
	}

	p.mu.Lock()
	p.joined = true
	onMember := p.onMember
	p.mu.Unlock()

	if onMember != nil {
		onMember()
	}

	return nil
}

// Leave clears the membership flag.
func (p *StaticProvider) Leave(_ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.joined = false

	return nil
}

// Joined reports whether Join has run.
func (p *StaticProvider) Joined() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.joined
}
