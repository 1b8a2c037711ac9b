package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/hagay3/baker/errors"
)

// Event sink provider constants
const (
	SinkProviderNATS      = "nats"      // NATS core publish (recommended for production)
	SinkProviderWebSocket = "websocket" // Outbound websocket connection
	SinkProviderNone      = "none"      // Events are dropped (development only)
)

// Cluster provider constants
const (
	ClusterProviderStatic = "static" // Single node, membership confirmed immediately
	ClusterProviderNATS   = "nats"   // Membership via a JetStream KV bucket
)

// Config is the immutable bootstrap configuration snapshot.
// It is read once at startup and never mutated afterwards.
type Config struct {
	APIPort           int    `json:"api-port" yaml:"api-port"`
	MetricsPort       int    `json:"metrics-port" yaml:"metrics-port"`
	APIURLPrefix      string `json:"api-url-prefix" yaml:"api-url-prefix"`
	APILoggingEnabled bool   `json:"api-logging-enabled" yaml:"api-logging-enabled"`

	// InteractionConfigurations lists the interaction configuration
	// identifiers to discover, in order. Empty is valid (and logged).
	InteractionConfigurations []string `json:"interaction-configuration-classes" yaml:"interaction-configuration-classes"`

	EventSink  EventSink  `json:"event-sink" yaml:"event-sink"`
	Cluster    Cluster    `json:"cluster" yaml:"cluster"`
	Timeouts   Timeouts   `json:"timeouts" yaml:"timeouts"`
	Recipes    Recipes    `json:"recipes" yaml:"recipes"`
	Validation Validation `json:"validation" yaml:"validation"`
}

// EventSink defines the outbound event stream connection
type EventSink struct {
	Provider string `json:"provider" yaml:"provider"`
	URL      string `json:"url" yaml:"url"`
	Subject  string `json:"subject" yaml:"subject"`

	// RateLimit caps publishes per second. 0 disables limiting.
	RateLimit float64 `json:"rate-limit" yaml:"rate-limit"`

	// Settings is a provider-specific passthrough section.
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Cluster defines how this node confirms cluster membership
type Cluster struct {
	Provider string `json:"provider" yaml:"provider"`
	URL      string `json:"url" yaml:"url"`
	Bucket   string `json:"bucket" yaml:"bucket"`

	// NodeName identifies this node in the membership bucket.
	// Generated when empty.
	NodeName string `json:"node-name" yaml:"node-name"`
}

// Timeouts groups the bootstrap-related timeouts
type Timeouts struct {
	// Bootstrap bounds the cluster membership wait. 0 means no
	// timeout: bootstrap blocks until membership or shutdown.
	Bootstrap Duration `json:"bootstrap" yaml:"bootstrap"`

	Shutdown    Duration `json:"shutdown" yaml:"shutdown"`
	SinkConnect Duration `json:"sink-connect" yaml:"sink-connect"`
}

// Recipes defines where persisted workflow definitions live
type Recipes struct {
	Directory string `json:"directory" yaml:"directory"`
}

// Validation controls recipe document validation
type Validation struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// SchemaFile overrides the built-in recipe schema when set.
	SchemaFile string `json:"schema-file,omitempty" yaml:"schema-file,omitempty"`
}

// DefaultConfig returns the configuration defaults applied before a
// settings file is merged on top.
func DefaultConfig() *Config {
	return &Config{
		APIPort:                   8080,
		MetricsPort:               9090,
		APIURLPrefix:              "/api/v3",
		APILoggingEnabled:         false,
		InteractionConfigurations: []string{},
		EventSink: EventSink{
			Provider: SinkProviderNATS,
			URL:      "nats://127.0.0.1:4222",
			Subject:  "bakery.events",
		},
		Cluster: Cluster{
			Provider: ClusterProviderStatic,
			URL:      "nats://127.0.0.1:4222",
			Bucket:   "bakery-members",
		},
		Timeouts: Timeouts{
			Bootstrap:   0,
			Shutdown:    Duration(30 * time.Second),
			SinkConnect: Duration(10 * time.Second),
		},
		Recipes: Recipes{
			Directory: "/opt/docker/recipes",
		},
		Validation: Validation{
			Enabled: true,
		},
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if err := validatePort("api-port", c.APIPort); err != nil {
		return err
	}
	if err := validatePort("metrics-port", c.MetricsPort); err != nil {
		return err
	}
	if c.APIPort == c.MetricsPort {
		return fmt.Errorf("api-port and metrics-port collide on %d", c.APIPort)
	}

	if !strings.HasPrefix(c.APIURLPrefix, "/") {
		return fmt.Errorf("api-url-prefix %q must start with '/'", c.APIURLPrefix)
	}

	for i, id := range c.InteractionConfigurations {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("interaction-configuration-classes[%d] is empty", i)
		}
	}

	switch c.EventSink.Provider {
	case SinkProviderNATS, SinkProviderWebSocket, SinkProviderNone:
	default:
		return fmt.Errorf("event-sink.provider %q is not one of nats, websocket, none", c.EventSink.Provider)
	}
	if c.EventSink.Provider != SinkProviderNone && c.EventSink.URL == "" {
		return fmt.Errorf("%w: event-sink.url", pkgerrors.ErrMissingConfig)
	}
	if c.EventSink.Provider == SinkProviderNATS && c.EventSink.Subject == "" {
		return fmt.Errorf("%w: event-sink.subject is required for the nats provider", pkgerrors.ErrMissingConfig)
	}
	if c.EventSink.RateLimit < 0 {
		return fmt.Errorf("event-sink.rate-limit %v cannot be negative", c.EventSink.RateLimit)
	}

	switch c.Cluster.Provider {
	case ClusterProviderStatic:
	case ClusterProviderNATS:
		if c.Cluster.URL == "" {
			return fmt.Errorf("%w: cluster.url is required for the nats provider", pkgerrors.ErrMissingConfig)
		}
		if c.Cluster.Bucket == "" {
			return fmt.Errorf("%w: cluster.bucket is required for the nats provider", pkgerrors.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("cluster.provider %q is not one of static, nats", c.Cluster.Provider)
	}

	if c.Timeouts.Bootstrap < 0 {
		return errors.New("timeouts.bootstrap cannot be negative")
	}
	if c.Timeouts.Shutdown <= 0 {
		return errors.New("timeouts.shutdown must be positive")
	}
	if c.Timeouts.SinkConnect < 0 {
		return errors.New("timeouts.sink-connect cannot be negative")
	}

	if c.Recipes.Directory == "" {
		return fmt.Errorf("%w: recipes.directory", pkgerrors.ErrMissingConfig)
	}

	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s %d is outside 1-65535", key, port)
	}
	return nil
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Duration wraps time.Duration so settings files can carry values like
// "30s" in both JSON and YAML. Bare numbers are read as nanoseconds.
type Duration time.Duration

// Duration returns the wrapped time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String returns the standard duration formatting
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(v)
	case int:
		*d = Duration(v)
	case int64:
		*d = Duration(v)
	default:
		return fmt.Errorf("invalid duration type %T", raw)
	}
	return nil
}
