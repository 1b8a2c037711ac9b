// Package timestamp handles the wire representation of time: int64
// milliseconds since the Unix epoch, UTC. Event envelopes and membership
// records carry this form so consumers never parse time strings.
//
// A value of 0 means "not set". Conversions treat it as the zero
// time.Time and formatting renders it as the empty string.
package timestamp

import (
	"strconv"
	"time"
)

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds. The zero time maps
// to 0.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time. 0 maps to the zero
// time.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Format renders a wire timestamp as RFC3339 UTC for logs and display.
// Returns "" when the timestamp is unset.
func Format(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

// Parse reads a wire timestamp from the forms peers actually send:
// an RFC3339 string, a decimal Unix value (seconds or milliseconds) or
// a native integer. Values above 1e12 are taken as milliseconds, below
// as seconds. Returns 0 for anything unparseable.
func Parse(input any) int64 {
	switch v := input.(type) {
	case nil:
		return 0
	case int64:
		return normalize(v)
	case int:
		return normalize(int64(v))
	case float64:
		return normalize(int64(v))
	case time.Time:
		return ToUnixMs(v)
	case string:
		if v == "" {
			return 0
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return ToUnixMs(t)
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return normalize(n)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return normalize(int64(f))
		}
		return 0
	default:
		return 0
	}
}

// normalize maps second-resolution values onto milliseconds. 1e12 ms is
// September 2001; no live timestamp in seconds reaches it.
func normalize(v int64) int64 {
	if v == 0 {
		return 0
	}
	if v > 1e12 {
		return v
	}
	return v * 1000
}

// IsZero reports whether a wire timestamp is unset.
func IsZero(ms int64) bool {
	return ms == 0
}

// Since returns the duration elapsed since the given timestamp, 0 when
// unset.
func Since(ms int64) time.Duration {
	if ms == 0 {
		return 0
	}
	return time.Since(time.UnixMilli(ms))
}
