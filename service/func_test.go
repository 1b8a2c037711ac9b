package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc_Lifecycle(t *testing.T) {
	started := 0
	stopped := 0

	svc := NewFunc("sink",
		func(_ context.Context) error { started++; return nil },
		func(_ time.Duration) error { stopped++; return nil },
	)

	assert.Equal(t, "sink", svc.Name())
	assert.Equal(t, StatusStopped, svc.Status())

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, StatusRunning, svc.Status())
	assert.Equal(t, 1, started)
	assert.True(t, svc.Health().IsHealthy())

	require.NoError(t, svc.Stop(time.Second))
	assert.Equal(t, StatusStopped, svc.Status())
	assert.Equal(t, 1, stopped)
}

func TestFunc_StartIdempotent(t *testing.T) {
	started := 0
	svc := NewFunc("sink", func(_ context.Context) error { started++; return nil }, nil)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, 1, started, "second start is a no-op")
}

func TestFunc_StopIdempotent(t *testing.T) {
	stopped := 0
	svc := NewFunc("sink", nil, func(_ time.Duration) error { stopped++; return nil })

	// Stop before start acquires nothing and releases nothing
	require.NoError(t, svc.Stop(time.Second))
	assert.Equal(t, 0, stopped)

	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(time.Second))
	require.NoError(t, svc.Stop(time.Second))
	assert.Equal(t, 1, stopped, "second stop is a no-op")
}

func TestFunc_StartFailure(t *testing.T) {
	boom := errors.New("boom")
	stopped := 0

	svc := NewFunc("recipes",
		func(_ context.Context) error { return boom },
		func(_ time.Duration) error { stopped++; return nil },
	)

	err := svc.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusFailed, svc.Status())
	assert.True(t, svc.Health().IsUnhealthy())

	// A failed start acquired nothing, so stop must not release
	require.NoError(t, svc.Stop(time.Second))
	assert.Equal(t, 0, stopped)
}

func TestFunc_StopError(t *testing.T) {
	boom := errors.New("close failed")
	svc := NewFunc("sink", nil, func(_ time.Duration) error { return boom })

	require.NoError(t, svc.Start(context.Background()))

	err := svc.Stop(time.Second)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusStopped, svc.Status(), "stop errors still release the slot")
}

func TestFunc_NilFuncs(t *testing.T) {
	svc := NewFunc("gate", nil, nil)

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, StatusRunning, svc.Status())
	require.NoError(t, svc.Stop(time.Second))
}

func TestFunc_GetStatus(t *testing.T) {
	svc := NewFunc("sink", nil, nil)

	info := svc.GetStatus()
	assert.Equal(t, StatusStopped, info.Status)
	assert.Zero(t, info.Uptime)

	require.NoError(t, svc.Start(context.Background()))
	info = svc.GetStatus()
	assert.Equal(t, StatusRunning, info.Status)
	assert.False(t, info.StartTime.IsZero())
}

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusStopped, "stopped"},
		{StatusStarting, "starting"},
		{StatusRunning, "running"},
		{StatusStopping, "stopping"},
		{StatusFailed, "failed"},
		{Status(42), "unknown"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, test.status.String())
	}
}
