package env

import (
	"os"
	"strconv"
	"strings"

	"github.com/ZerkerEOD/slotban/pkg/debug"
)

// GetOrDefault returns the environment variable value or the default if not set
func GetOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	debug.Debug("%s not set, using default: %s", key, defaultValue)
	return defaultValue
}

// GetIntOrDefault parses the variable as an int, falling back on unset or malformed values.
func GetIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		debug.Warning("Invalid integer for %s (%q), using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// GetList splits a comma separated variable, dropping empty entries.
func GetList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
