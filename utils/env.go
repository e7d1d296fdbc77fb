// utils/env.go
package utils

import (
	"os"
	"strconv"
)

// GetEnv gets an environment variable or returns a default value.
func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetEnvInt parses an integer environment variable, clamped to [min, max].
// Unset or unparseable values fall back to the default.
func GetEnvInt(key string, defaultValue, min, max int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	if parsed < min {
		return min
	}
	if parsed > max {
		return max
	}
	return parsed
}
