package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Port honours the platform-injected PORT before the configured one.
func Port(configured string) string {
	return Get("PORT", configured)
}

// ConsoleLogs reports whether LOG_FORMAT asks for human-readable output.
func ConsoleLogs() bool {
	return strings.EqualFold(Get("LOG_FORMAT", "json"), "console")
}
