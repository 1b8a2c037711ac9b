// Package config loads and validates the bakery bootstrap configuration.
//
// Configuration comes from a single settings file (bakery.json, bakery.yaml
// or bakery.yml) inside a directory, /opt/docker/conf by default, overridable
// with the BAKERY_CONFIG_DIR environment variable. The file is merged over
// built-in defaults, so operators only state what differs.
//
//	cfg, err := config.Load(config.Dir())
//	if err != nil {
//	    // fatal: a bakery node never starts on bad settings
//	}
//
// The resulting Config is an immutable snapshot: it is read once during
// bootstrap and passed by value or pointer to the subsystems that need it,
// never mutated afterwards.
package config
