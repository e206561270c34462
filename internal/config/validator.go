package config

import (
	"fmt"
	"strconv"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s=%s]: %s", e.Field, e.Value, e.Message)
}

// ValidationResult holds the results of configuration validation
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
	Valid    bool
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, value, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Value: value, Message: message})
	r.Valid = false
}

// AddWarning adds a validation warning
func (r *ValidationResult) AddWarning(field, value, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Value: value, Message: message})
}

// Validate validates the configuration and returns validation results
func (c *Config) Validate() ValidationResult {
	result := ValidationResult{Valid: true}

	if c.Retry.MaxAttempts < 1 {
		result.AddError("retry.max_attempts", strconv.Itoa(c.Retry.MaxAttempts), "must be at least 1")
	}
	if c.Retry.Delay < 0 {
		result.AddError("retry.delay", c.Retry.Delay.String(), "must not be negative")
	}
	if c.Retry.AttemptTimeout < 0 {
		result.AddError("retry.attempt_timeout", c.Retry.AttemptTimeout.String(), "must not be negative")
	}
	switch c.Retry.Backoff {
	case "fixed", "exponential":
	default:
		result.AddError("retry.backoff", c.Retry.Backoff, "must be fixed or exponential")
	}

	switch c.Proxy.Selection {
	case "round_robin", "random":
	default:
		result.AddError("proxy.selection", c.Proxy.Selection, "must be round_robin or random")
	}
	if c.Proxy.FreshnessWindow <= 0 {
		result.AddError("proxy.freshness_window", c.Proxy.FreshnessWindow.String(), "must be positive")
	}
	if c.Proxy.Enabled {
		switch c.Proxy.Mode {
		case "webshare":
			if c.Proxy.WebshareAPIKey == "" {
				result.AddError("proxy.webshare.api_key", "", "required in webshare mode")
			}
		case "manual", "rotating":
			if c.Proxy.Host == "" {
				result.AddError("proxy.host", "", "required in "+c.Proxy.Mode+" mode")
			}
			if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
				result.AddError("proxy.port", strconv.Itoa(c.Proxy.Port), "port out of range")
			}
		case "file":
			if c.Proxy.File == "" {
				result.AddError("proxy.file", "", "required in file mode")
			}
		default:
			result.AddError("proxy.mode", c.Proxy.Mode, "unknown proxy mode")
		}
	}

	if c.Cache.Enabled {
		switch c.Cache.Backend {
		case "mongodb", "redis":
		default:
			result.AddError("cache.backend", c.Cache.Backend, "must be mongodb or redis")
		}
	}

	if c.YouTube.APIKey == "" {
		result.AddWarning("youtube.api_key", "", "channel lookup endpoints are disabled")
	}
	if c.Gemini.APIKey == "" {
		result.AddWarning("gemini.api_key", "", "transcript analysis endpoints are disabled")
	}
	if c.Gemini.Temperature < 0 || c.Gemini.Temperature > 2 {
		result.AddError("gemini.temperature", strconv.FormatFloat(c.Gemini.Temperature, 'f', -1, 64), "must be between 0 and 2")
	}
	if c.Transcript.BatchConcurrency < 1 {
		result.AddWarning("transcript.batch_concurrency", strconv.Itoa(c.Transcript.BatchConcurrency), "falling back to 1")
		c.Transcript.BatchConcurrency = 1
	}
	return result
}
