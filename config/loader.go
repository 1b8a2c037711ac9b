package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/hagay3/baker/errors"
)

const (
	// DefaultDir is where a bakery node looks for its settings file
	// unless the environment says otherwise.
	DefaultDir = "/opt/docker/conf"

	// EnvConfigDir overrides the configuration directory.
	EnvConfigDir = "BAKERY_CONFIG_DIR"
)

// candidateFiles, in preference order. JSON wins when both exist.
var candidateFiles = []string{"bakery.json", "bakery.yaml", "bakery.yml"}

// Dir resolves the configuration directory: the environment override
// when set, the built-in default otherwise.
func Dir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return DefaultDir
}

// Load reads the settings file from dir, merges it over the defaults,
// fills generated values and validates the result.
func Load(dir string) (*Config, error) {
	path, err := findConfigFile(dir)
	if err != nil {
		return nil, pkgerrors.WrapFatal(err, "Config", "Load", "locating settings file")
	}

	cfg, err := loadFile(path)
	if err != nil {
		return nil, pkgerrors.WrapFatal(err, "Config", "Load", "reading settings file")
	}

	if cfg.Cluster.NodeName == "" {
		cfg.Cluster.NodeName = "node-" + uuid.NewString()[:8]
	}

	if err := cfg.Validate(); err != nil {
		return nil, pkgerrors.WrapFatal(
			fmt.Errorf("%s: %w", path, err),
			"Config", "Load", "validating settings")
	}

	return cfg, nil
}

// findConfigFile returns the first candidate settings file in dir
func findConfigFile(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("configuration directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("configuration path %s is not a directory", dir)
	}

	for _, name := range candidateFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no settings file (%s) in %s: %w",
		strings.Join(candidateFiles, ", "), dir, pkgerrors.ErrConfigNotFound)
}

// loadFile unmarshals a settings file over the defaults so absent keys
// keep their default values.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg := DefaultConfig()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported settings format %s", filepath.Ext(path))
	}

	return cfg, nil
}
