package metric

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/service"
)

func startTestServer(t *testing.T, registry *MetricsRegistry) *Server {
	t.Helper()

	server := NewServer(0, registry, nil)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop(time.Second) })
	return server
}

func TestServer_ServesMetrics(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordReady(true)

	server := startTestServer(t, registry)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/metrics", server.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bakery_bootstrap_ready 1")
}

func TestServer_ServesSamplerOutput(t *testing.T) {
	registry := NewMetricsRegistry()
	require.NoError(t, registry.RegisterSampler("engine", "state", func() []Sample {
		return []Sample{{Name: "bakery_engine_live_recipes", Help: "Recipes in flight", Value: 4}}
	}))

	server := startTestServer(t, registry)

	resp, err := http.Get(server.Address())
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bakery_engine_live_recipes 4")
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := startTestServer(t, NewMetricsRegistry())

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", server.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Lifecycle(t *testing.T) {
	server := NewServer(0, NewMetricsRegistry(), nil)

	assert.Equal(t, "metrics-server", server.Name())
	assert.Equal(t, service.StatusStopped, server.Status())
	assert.False(t, server.Health().IsHealthy())

	require.NoError(t, server.Start(context.Background()))
	assert.Equal(t, service.StatusRunning, server.Status())
	assert.True(t, server.Health().IsHealthy())
	assert.Greater(t, server.Port(), 0, "ephemeral bind should resolve to a real port")

	require.NoError(t, server.Stop(time.Second))
	assert.Equal(t, service.StatusStopped, server.Status())
}

func TestServer_StartTwiceFails(t *testing.T) {
	server := startTestServer(t, NewMetricsRegistry())

	err := server.Start(context.Background())
	assert.ErrorIs(t, err, pkgerrors.ErrAlreadyStarted)
	assert.Contains(t, err.Error(), "already running")
}

func TestServer_StopBeforeStart(t *testing.T) {
	server := NewServer(0, NewMetricsRegistry(), nil)
	assert.NoError(t, server.Stop(time.Second))
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer(0, NewMetricsRegistry(), nil)
	require.NoError(t, server.Start(context.Background()))

	require.NoError(t, server.Stop(time.Second))
	assert.NoError(t, server.Stop(time.Second))
}

func TestServer_PortConflict(t *testing.T) {
	first := startTestServer(t, NewMetricsRegistry())

	second := NewServer(first.Port(), NewMetricsRegistry(), nil)
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to bind")
	assert.Equal(t, service.StatusFailed, second.Status())
}

func TestServer_NilRegistry(t *testing.T) {
	server := NewServer(0, nil, nil)

	err := server.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "registry")
}

func TestServer_AddressIncludesMetricsPath(t *testing.T) {
	server := startTestServer(t, NewMetricsRegistry())
	assert.True(t, strings.HasSuffix(server.Address(), "/metrics"))
}

func TestServer_RestartAfterStop(t *testing.T) {
	server := NewServer(0, NewMetricsRegistry(), nil)

	require.NoError(t, server.Start(context.Background()))
	require.NoError(t, server.Stop(time.Second))

	// The server field resets on Stop, so a fresh Start binds again
	require.NoError(t, server.Start(context.Background()))
	assert.Equal(t, service.StatusRunning, server.Status())
	require.NoError(t, server.Stop(time.Second))
}
