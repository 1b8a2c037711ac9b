package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hagay3/baker/config"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigDir       string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigDir, "config-dir",
		getEnv(config.EnvConfigDir, config.DefaultDir),
		"Directory holding the settings file (env: BAKERY_CONFIG_DIR)")

	flag.StringVar(&cfg.ConfigDir, "c",
		getEnv(config.EnvConfigDir, config.DefaultDir),
		"Directory holding the settings file (env: BAKERY_CONFIG_DIR)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("BAKERY_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: BAKERY_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("BAKERY_LOG_FORMAT", "json"),
		"Log format: json, text (env: BAKERY_LOG_FORMAT)")

	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("BAKERY_SHUTDOWN_TIMEOUT", 0),
		"Graceful shutdown timeout, overrides timeouts.shutdown when set (env: BAKERY_SHUTDOWN_TIMEOUT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if _, err := os.Stat(cfg.ConfigDir); err != nil {
		return fmt.Errorf("configuration directory not found: %s", cfg.ConfigDir)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.ShutdownTimeout < 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Bakery Bootstrap Orchestrator

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Run with a custom configuration directory
  %s --config-dir=/etc/bakery

  # Run with debug logging
  %s --log-level=debug --log-format=text

  # Run with environment variables
  export BAKERY_CONFIG_DIR=/etc/bakery
  export BAKERY_LOG_LEVEL=debug
  %s

  # Validate configuration only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
