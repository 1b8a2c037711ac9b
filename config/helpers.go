package config

import (
	"time"
)

// Safe type assertion helpers prevent panics when accessing the
// provider-specific settings passthrough sections.

// GetString safely extracts a string value from a settings map
func GetString(cfg map[string]any, key string, defaultVal string) string {
	if val, ok := cfg[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return defaultVal
}

// GetInt safely extracts an integer value from a settings map
func GetInt(cfg map[string]any, key string, defaultVal int) int {
	if val, ok := cfg[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case int32:
			return int(v)
		case float64:
			return int(v)
		case float32:
			return int(v)
		}
	}
	return defaultVal
}

// GetFloat64 safely extracts a float64 value from a settings map
func GetFloat64(cfg map[string]any, key string, defaultVal float64) float64 {
	if val, ok := cfg[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case float32:
			return float64(v)
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultVal
}

// GetBool safely extracts a boolean value from a settings map
func GetBool(cfg map[string]any, key string, defaultVal bool) bool {
	if val, ok := cfg[key]; ok {
		if boolVal, ok := val.(bool); ok {
			return boolVal
		}
	}
	return defaultVal
}

// GetStringSlice safely extracts a string slice from a settings map
func GetStringSlice(cfg map[string]any, key string, defaultVal []string) []string {
	if val, ok := cfg[key]; ok {
		if slice, ok := val.([]string); ok {
			return slice
		}
		// Try to convert []any to []string
		if interfaceSlice, ok := val.([]any); ok {
			result := make([]string, 0, len(interfaceSlice))
			for _, item := range interfaceSlice {
				if str, ok := item.(string); ok {
					result = append(result, str)
				}
			}
			if len(result) == len(interfaceSlice) {
				return result
			}
		}
	}
	return defaultVal
}

// GetDuration safely extracts a duration from a settings map. Strings
// are parsed with time.ParseDuration, numbers are read as nanoseconds.
func GetDuration(cfg map[string]any, key string, defaultVal time.Duration) time.Duration {
	val, ok := cfg[key]
	if !ok {
		return defaultVal
	}

	switch v := val.(type) {
	case string:
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	case time.Duration:
		return v
	case float64:
		return time.Duration(v)
	case int:
		return time.Duration(v)
	case int64:
		return time.Duration(v)
	}
	return defaultVal
}

// HasKey checks if a key exists in the settings map
func HasKey(cfg map[string]any, key string) bool {
	_, ok := cfg[key]
	return ok
}
