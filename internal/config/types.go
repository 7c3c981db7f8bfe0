package config

import "time"

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr                   string `json:"addr"`                     // Listen address (e.g., ":8080")
	RequestTimeoutSeconds  int    `json:"request_timeout_seconds"`  // Per-request deadline
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"` // Grace period on SIGTERM
	UserHeader             string `json:"user_header"`              // Header carrying the authenticated user ID
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // text or json
}

// LimitsConfig holds the field-level bounds checked before scheduling.
type LimitsConfig struct {
	MaxTasks          int     `json:"max_tasks"`
	MaxTitleLength    int     `json:"max_title_length"`
	MinEstimatedHours float64 `json:"min_estimated_hours"` // Exclusive lower bound
	MaxEstimatedHours float64 `json:"max_estimated_hours"` // Inclusive upper bound
}

// RetryConfig configures exponential backoff for transient store errors.
type RetryConfig struct {
	InitialIntervalMs int `json:"initial_interval_ms"`
	MaxIntervalMs     int `json:"max_interval_ms"`
	MaxElapsedMs      int `json:"max_elapsed_ms"`
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	ConsecutiveFailures int `json:"consecutive_failures"` // Failures before the breaker opens
	OpenTimeoutSeconds  int `json:"open_timeout_seconds"` // Time spent open before probing
}

// StoreConfig groups the resilience settings of the store wrapper.
type StoreConfig struct {
	Retry   RetryConfig   `json:"retry"`
	Breaker BreakerConfig `json:"breaker"`
}

// PlannerConfig is the top-level configuration.
type PlannerConfig struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Limits   LimitsConfig   `json:"limits"`
	Store    StoreConfig    `json:"store"`
}

// RequestTimeout returns the per-request deadline.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown window.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
