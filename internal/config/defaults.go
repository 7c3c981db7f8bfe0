package config

import (
	"errors"
	"fmt"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *PlannerConfig {
	return &PlannerConfig{
		Server: ServerConfig{
			Addr:                   ":8080",
			RequestTimeoutSeconds:  10,
			ShutdownTimeoutSeconds: 10,
			UserHeader:             "X-User-ID",
		},
		Database: DatabaseConfig{
			Path: "planner.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Limits: LimitsConfig{
			MaxTasks:          500,
			MaxTitleLength:    200,
			MinEstimatedHours: 0,
			MaxEstimatedHours: 1000,
		},
		Store: StoreConfig{
			Retry: RetryConfig{
				InitialIntervalMs: 50,
				MaxIntervalMs:     1000,
				MaxElapsedMs:      5000,
			},
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenTimeoutSeconds:  30,
			},
		},
	}
}

// Validate rejects settings the server cannot run with.
func (c *PlannerConfig) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("server.request_timeout_seconds must be positive"))
	}
	if c.Server.UserHeader == "" {
		errs = append(errs, errors.New("server.user_header must not be empty"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	if c.Limits.MaxTasks <= 0 {
		errs = append(errs, errors.New("limits.max_tasks must be positive"))
	}
	if c.Limits.MaxTitleLength <= 0 {
		errs = append(errs, errors.New("limits.max_title_length must be positive"))
	}
	if c.Limits.MinEstimatedHours < 0 || c.Limits.MaxEstimatedHours <= c.Limits.MinEstimatedHours {
		errs = append(errs, fmt.Errorf("limits: estimated hours range (%g, %g] is empty",
			c.Limits.MinEstimatedHours, c.Limits.MaxEstimatedHours))
	}
	if c.Store.Breaker.ConsecutiveFailures <= 0 {
		errs = append(errs, errors.New("store.breaker.consecutive_failures must be positive"))
	}

	return errors.Join(errs...)
}
