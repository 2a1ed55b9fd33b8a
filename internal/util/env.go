// Package util provides environment variable parsing helpers shared across components.
package util

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseBoolEnv parses a boolean environment variable with a default value.
// Accepts: true/1/yes/on and false/0/no/off (case-insensitive). Invalid values return default.
func ParseBoolEnv(key string, defaultValue bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		slog.Warn("ParseBoolEnv: invalid boolean value, using default", "key", key, "value", val, "default", defaultValue)
		return defaultValue
	}
}

// ParseLocationEnv loads the IANA time zone named by an environment variable.
// An unset variable returns defaultValue; an unknown zone is logged and also returns defaultValue.
func ParseLocationEnv(key string, defaultValue *time.Location) *time.Location {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	loc, err := time.LoadLocation(val)
	if err != nil {
		slog.Warn("ParseLocationEnv: unknown time zone, using default", "key", key, "value", val, "error", err)
		return defaultValue
	}
	return loc
}
