package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "shutdown.force_after_ms")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Engine.DefaultMaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.default_max_retries",
			Value:   c.Engine.DefaultMaxRetries,
			Message: "must not be negative",
		})
	}

	if c.Shutdown.DrainTimeoutMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "shutdown.drain_timeout_ms",
			Value:   c.Shutdown.DrainTimeoutMs,
			Message: "must be positive",
		})
	}
	if c.Shutdown.ForceAfterMs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "shutdown.force_after_ms",
			Value:   c.Shutdown.ForceAfterMs,
			Message: "must be positive",
		})
	}
	if c.Shutdown.GracePeriodMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "shutdown.grace_period_ms",
			Value:   c.Shutdown.GracePeriodMs,
			Message: "must not be negative",
		})
	}
	// A single class window must fit in the force_after budget. The
	// coordinator clips each class's wait to the budget's remainder at
	// runtime, so the aggregate across classes is bounded even when every
	// class uses its full window.
	if c.Shutdown.ForceAfterMs > 0 && c.Shutdown.DrainTimeoutMs > c.Shutdown.ForceAfterMs {
		errors = append(errors, ValidationError{
			Field:   "shutdown.drain_timeout_ms",
			Value:   c.Shutdown.DrainTimeoutMs,
			Message: "must not exceed shutdown.force_after_ms",
		})
	}

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}
