package cluster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider drives the Service without a real cluster.
type fakeProvider struct {
	mu         sync.Mutex
	onMember   func()
	joinErr    error
	fireOnJoin bool
	leaveErr   error
	joinCalls  int
	leaveCalls int
}

func (p *fakeProvider) RegisterOnMemberUp(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onMember = fn
}

func (p *fakeProvider) Join(_ context.Context) error {
	p.mu.Lock()
	p.joinCalls++
	onMember := p.onMember
	fire := p.fireOnJoin
	err := p.joinErr
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if fire && onMember != nil {
		onMember()
	}
	return nil
}

func (p *fakeProvider) Leave(_ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leaveCalls++
	return p.leaveErr
}

func (p *fakeProvider) counts() (joins, leaves int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.joinCalls, p.leaveCalls
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, NewGate())
	require.Error(t, err)

	_, err = NewService(&fakeProvider{}, nil)
	require.Error(t, err)
}

func TestService_StartMemberUpOnJoin(t *testing.T) {
	provider := &fakeProvider{fireOnJoin: true}
	gate := NewGate()

	svc, err := NewService(provider, gate, WithLogger(testLogger()))
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))

	assert.Equal(t, service.StatusRunning, svc.Status())
	assert.True(t, gate.Signaled())
	assert.True(t, svc.Health().Healthy)
	assert.Equal(t, "cluster-gate", svc.Name())
}

func TestService_StartJoinFailure(t *testing.T) {
	provider := &fakeProvider{joinErr: fmt.Errorf("no route to cluster")}

	svc, err := NewService(provider, NewGate(), WithLogger(testLogger()))
	require.NoError(t, err)

	err = svc.Start(context.Background())

	require.Error(t, err)
	assert.Equal(t, service.StatusFailed, svc.Status())
	assert.False(t, svc.Health().Healthy)

	_, leaves := provider.counts()
	assert.Equal(t, 0, leaves, "failed join leaves nothing to withdraw")
}

func TestService_StartWaitTimeout(t *testing.T) {
	provider := &fakeProvider{}
	gate := NewGate()

	svc, err := NewService(provider, gate,
		WithLogger(testLogger()),
		WithWaitTimeout(30*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	err = svc.Start(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ErrMembershipTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, service.StatusFailed, svc.Status())
	assert.False(t, gate.Signaled())

	_, leaves := provider.counts()
	assert.Equal(t, 1, leaves, "membership withdrawn after failed wait")
}

func TestService_StartCancelled(t *testing.T) {
	provider := &fakeProvider{}

	svc, err := NewService(provider, NewGate(), WithLogger(testLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- svc.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, pkgerrors.ErrMembershipTimeout)
	case <-time.After(time.Second):
		t.Fatal("Start did not unwind after cancellation")
	}

	_, leaves := provider.counts()
	assert.Equal(t, 1, leaves)
}

func TestService_StartUnblockedByExternalSignal(t *testing.T) {
	provider := &fakeProvider{}
	gate := NewGate()

	svc, err := NewService(provider, gate, WithLogger(testLogger()))
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		gate.Signal()
	}()

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, service.StatusRunning, svc.Status())
}

func TestService_StopIdempotent(t *testing.T) {
	provider := &fakeProvider{fireOnJoin: true}

	svc, err := NewService(provider, NewGate(), WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))

	require.NoError(t, svc.Stop(time.Second))
	require.NoError(t, svc.Stop(time.Second))

	_, leaves := provider.counts()
	assert.Equal(t, 1, leaves)
	assert.Equal(t, service.StatusStopped, svc.Status())
}

func TestService_StopWithoutStart(t *testing.T) {
	provider := &fakeProvider{}

	svc, err := NewService(provider, NewGate(), WithLogger(testLogger()))
	require.NoError(t, err)

	require.NoError(t, svc.Stop(time.Second))

	_, leaves := provider.counts()
	assert.Equal(t, 0, leaves)
}

func TestService_StopLeaveError(t *testing.T) {
	provider := &fakeProvider{fireOnJoin: true, leaveErr: fmt.Errorf("bucket gone")}

	svc, err := NewService(provider, NewGate(), WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))

	err = svc.Stop(time.Second)

	require.Error(t, err)
	assert.Equal(t, service.StatusStopped, svc.Status(), "stop errors still release the slot")
}

func TestService_GateStaysSignaledAfterStop(t *testing.T) {
	provider := &fakeProvider{fireOnJoin: true}
	gate := NewGate()

	svc, err := NewService(provider, gate,
		WithLogger(testLogger()),
		WithMetrics(metric.NewMetrics()))
	require.NoError(t, err)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(time.Second))

	assert.True(t, gate.Signaled(), "the gate transition never reverses")
}
