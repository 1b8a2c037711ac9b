package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/hagay3/baker/errors"
)

func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_JSON(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.json", `{
		"api-port": 9000,
		"metrics-port": 9001,
		"api-logging-enabled": true,
		"interaction-configuration-classes": ["bakery.pizza", "bakery.webshop"],
		"event-sink": {"provider": "none"},
		"timeouts": {"bootstrap": "45s"}
	}`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 9001, cfg.MetricsPort)
	assert.True(t, cfg.APILoggingEnabled)
	assert.Equal(t, []string{"bakery.pizza", "bakery.webshop"}, cfg.InteractionConfigurations)
	assert.Equal(t, SinkProviderNone, cfg.EventSink.Provider)
	assert.Equal(t, 45*time.Second, cfg.Timeouts.Bootstrap.Duration())

	// Absent keys keep their defaults
	assert.Equal(t, "/api/v3", cfg.APIURLPrefix)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Shutdown.Duration())
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.yaml", `
api-port: 9000
metrics-port: 9001
api-url-prefix: /bakery
event-sink:
  provider: websocket
  url: ws://collector:7070/events
cluster:
  provider: nats
  url: nats://nats:4222
  bucket: members
  node-name: oven-1
timeouts:
  shutdown: 5s
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/bakery", cfg.APIURLPrefix)
	assert.Equal(t, SinkProviderWebSocket, cfg.EventSink.Provider)
	assert.Equal(t, "ws://collector:7070/events", cfg.EventSink.URL)
	assert.Equal(t, ClusterProviderNATS, cfg.Cluster.Provider)
	assert.Equal(t, "oven-1", cfg.Cluster.NodeName)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Shutdown.Duration())
}

func TestLoad_JSONPreferredOverYAML(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.json", `{"api-port": 9000}`)
	writeSettings(t, dir, "bakery.yaml", `api-port: 9999`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.APIPort)
}

func TestLoad_GeneratesNodeName(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.json", `{}`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Cluster.NodeName)
	assert.Contains(t, cfg.Cluster.NodeName, "node-")
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsFatal(err), "configuration errors are fatal")
}

func TestLoad_NoSettingsFile(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrConfigNotFound))
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.json", `{"api-port": `)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bakery.json")
}

func TestLoad_InvalidSettings(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "bakery.json", `{"api-port": 9000, "metrics-port": 9000}`)

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collide")
}

func TestDir_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, "/etc/bakery")
	assert.Equal(t, "/etc/bakery", Dir())
}

func TestDir_Default(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	assert.Equal(t, DefaultDir, Dir())
}
