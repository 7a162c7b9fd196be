// internal/config/error.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid matches every *ConfigError with errors.Is.
var ErrInvalid = errors.New("invalid configuration")

// ConfigError aggregates configuration errors.
type ConfigError struct {
	Path    string   // Config file path
	Missing []string // Unresolved environment variables
	Errors  []string // Validation errors
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var parts []string
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("config %s:", e.Path))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing environment variables: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Errors) > 0 {
		parts = append(parts, "validation failed:")
		for _, err := range e.Errors {
			parts = append(parts, fmt.Sprintf("  - %s", err))
		}
	}
	return strings.Join(parts, "\n")
}

// Is reports ErrInvalid as a match.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalid
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
