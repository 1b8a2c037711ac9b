package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagay3/baker/bootstrap"
	"github.com/hagay3/baker/engine"
	pkgerrors "github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/interaction"
	"github.com/hagay3/baker/metric"
	"github.com/hagay3/baker/recipe"
	"github.com/hagay3/baker/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer is an io.Writer safe to read while the server goroutine
// writes log lines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testEngine(t *testing.T) *engine.Local {
	t.Helper()

	provider := interaction.NewTableProvider()
	require.NoError(t, provider.Register("test.handlers", func(_ context.Context) ([]interaction.Handler, error) {
		echo := func(_ context.Context, input map[string]any) (map[string]any, error) {
			return input, nil
		}
		return []interaction.Handler{
			interaction.NewFunc("bake", interaction.Signature{Input: "object", Output: "object"}, echo),
			interaction.NewFunc("proof", interaction.Signature{Input: "object", Output: "object"}, echo),
		}, nil
	}))

	registry, err := interaction.Discover(
		context.Background(), []string{"test.handlers"}, provider, testLogger())
	require.NoError(t, err)

	eng := engine.NewLocal(registry, engine.WithLogger(testLogger()))

	require.NoError(t, eng.AddRecipe(context.Background(), recipe.Recipe{
		ID:           "sourdough-morning",
		Name:         "Morning Sourdough",
		Version:      "1.0.0",
		Interactions: []string{"bake"},
	}))
	require.NoError(t, eng.AddRecipe(context.Background(), recipe.Recipe{
		ID:           "baguette-daily",
		Name:         "Daily Baguette",
		Version:      "2.1.0",
		Interactions: []string{"proof", "bake"},
	}))

	return eng
}

func startTestServer(t *testing.T, eng engine.Engine, readiness *bootstrap.Readiness, opts ...Option) *Server {
	t.Helper()

	opts = append([]Option{WithLogger(testLogger())}, opts...)
	server := NewServer(0, "/api/v3", eng, readiness, opts...)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() { _ = server.Stop(time.Second) })
	return server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestServer_ListsRecipes(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	var payload struct {
		Recipes []recipe.Recipe `json:"recipes"`
		Count   int             `json:"count"`
	}
	resp := getJSON(t, server.Address()+"/api/v3/recipes", &payload)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Recipes, 2)
	assert.Equal(t, "baguette-daily", payload.Recipes[0].ID)
	assert.Equal(t, "sourdough-morning", payload.Recipes[1].ID)
}

func TestServer_ListsInteractions(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	var payload struct {
		Interactions []string `json:"interactions"`
		Count        int      `json:"count"`
	}
	resp := getJSON(t, server.Address()+"/api/v3/interactions", &payload)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, []string{"bake", "proof"}, payload.Interactions)
}

func TestServer_EmptyEngine(t *testing.T) {
	eng := engine.NewLocal(nil, engine.WithLogger(testLogger()))
	server := startTestServer(t, eng, bootstrap.NewReadiness())

	var payload struct {
		Recipes []recipe.Recipe `json:"recipes"`
		Count   int             `json:"count"`
	}
	resp := getJSON(t, server.Address()+"/api/v3/recipes", &payload)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, payload.Count)
	assert.Empty(t, payload.Recipes)
}

func TestServer_ReadyFollowsBootstrap(t *testing.T) {
	composer := bootstrap.New(bootstrap.WithLogger(testLogger()))
	server := startTestServer(t, testEngine(t), composer.Readiness())

	resp, err := http.Get(server.Address() + "/ready")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "NOT READY", string(body))

	require.NoError(t, composer.Up(context.Background()))

	resp, err = http.Get(server.Address() + "/ready")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "READY", string(body))
}

func TestServer_ReadyWithoutFlag(t *testing.T) {
	server := startTestServer(t, testEngine(t), nil)

	resp, err := http.Get(server.Address() + "/ready")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	var status struct {
		Component string `json:"component"`
		Healthy   bool   `json:"healthy"`
	}
	resp := getJSON(t, server.Address()+"/health", &status)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "api-server", status.Component)
	assert.True(t, status.Healthy)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	resp, err := http.Post(server.Address()+"/api/v3/recipes", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var payload struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "method not allowed", payload.Error)
	assert.Equal(t, http.StatusMethodNotAllowed, payload.Status)
}

func TestServer_UnknownPath(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	resp, err := http.Get(server.Address() + "/api/v3/ovens")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Lifecycle(t *testing.T) {
	metrics := metric.NewMetricsRegistry().CoreMetrics()
	server := NewServer(0, "/api/v3", testEngine(t), bootstrap.NewReadiness(),
		WithLogger(testLogger()), WithMetrics(metrics))

	assert.Equal(t, "api-server", server.Name())
	assert.Equal(t, service.StatusStopped, server.Status())
	assert.False(t, server.Health().IsHealthy())

	require.NoError(t, server.Start(context.Background()))
	assert.Equal(t, service.StatusRunning, server.Status())
	assert.True(t, server.Health().IsHealthy())
	assert.Greater(t, server.Port(), 0, "ephemeral bind should resolve to a real port")

	resp, err := http.Get(server.Address() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop(time.Second))
	assert.Equal(t, service.StatusStopped, server.Status())

	require.NoError(t, server.Stop(time.Second), "second stop is a no-op")
}

func TestServer_StartTwiceFails(t *testing.T) {
	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	err := server.Start(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalid(err))
}

func TestServer_PortConflict(t *testing.T) {
	first := startTestServer(t, testEngine(t), bootstrap.NewReadiness())

	second := NewServer(first.Port(), "/api/v3", testEngine(t), bootstrap.NewReadiness(),
		WithLogger(testLogger()))

	err := second.Start(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsFatal(err))
	assert.Equal(t, service.StatusFailed, second.Status())
}

func TestServer_RequestLoggingEnabled(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness(),
		WithLogger(logger), WithRequestLogging(true))

	resp, err := http.Get(server.Address() + "/api/v3/recipes")
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		log := buf.String()
		return bytes.Contains([]byte(log), []byte("Request handled")) &&
			bytes.Contains([]byte(log), []byte("/api/v3/recipes"))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServer_RequestLoggingDisabled(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))

	server := startTestServer(t, testEngine(t), bootstrap.NewReadiness(),
		WithLogger(logger))

	resp, err := http.Get(server.Address() + "/api/v3/recipes")
	require.NoError(t, err)
	resp.Body.Close()

	time.Sleep(50 * time.Millisecond)
	assert.NotContains(t, buf.String(), "Request handled")
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v3", "/api/v3"},
		{"api/v3", "/api/v3"},
		{"/api/v3/", "/api/v3"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePrefix(tt.in), fmt.Sprintf("prefix %q", tt.in))
	}
}
