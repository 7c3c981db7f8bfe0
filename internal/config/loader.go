package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Load reads and merges configuration from the given paths in order.
// Later paths take precedence; fields absent from a file keep their earlier value.
// Empty and missing paths are skipped; malformed JSON returns an error.
func Load(paths ...string) (*PlannerConfig, error) {
	// Start with defaults
	cfg := DefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := mergeConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	return cfg, nil
}

// DefaultPaths returns the conventional config locations, lowest precedence first.
// Global: ~/.planner/config.json
// Project: .planner/config.json (relative to cwd)
func DefaultPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".planner", "config.json"),
		filepath.Join(".planner", "config.json"),
	}, nil
}

// LoadDefault loads configuration from the conventional paths, then from
// explicit (if non-empty), which wins over both.
func LoadDefault(explicit string) (*PlannerConfig, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, err
	}

	if explicit != "" {
		// An explicitly requested file must exist
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("config file %s: %w", explicit, err)
		}
		paths = append(paths, explicit)
	}

	return Load(paths...)
}

// mergeConfigFile decodes a JSON config file over base.
// Missing files are silently skipped. On malformed JSON base is left untouched.
func mergeConfigFile(base *PlannerConfig, path string) error {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Missing file is not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	// Decode onto a copy so only fields present in the file change
	merged := *base
	if err := json.Unmarshal(data, &merged); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	*base = merged
	return nil
}
