package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		globalConfig  string
		projectConfig string
		check         func(t *testing.T, cfg *PlannerConfig)
	}{
		{
			name: "No config files - returns defaults",
			check: func(t *testing.T, cfg *PlannerConfig) {
				if cfg.Server.Addr != ":8080" {
					t.Errorf("addr = %q, want :8080", cfg.Server.Addr)
				}
				if cfg.Limits.MaxTitleLength != 200 {
					t.Errorf("max_title_length = %d, want 200", cfg.Limits.MaxTitleLength)
				}
			},
		},
		{
			name:         "Global only - overrides one field, keeps siblings",
			globalConfig: `{"server": {"addr": ":9090"}}`,
			check: func(t *testing.T, cfg *PlannerConfig) {
				if cfg.Server.Addr != ":9090" {
					t.Errorf("addr = %q, want :9090", cfg.Server.Addr)
				}
				if cfg.Server.UserHeader != "X-User-ID" {
					t.Errorf("user_header = %q, want default", cfg.Server.UserHeader)
				}
			},
		},
		{
			name:          "Project overrides global - project wins",
			globalConfig:  `{"logging": {"level": "debug", "format": "json"}}`,
			projectConfig: `{"logging": {"level": "warn"}}`,
			check: func(t *testing.T, cfg *PlannerConfig) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("level = %q, want warn", cfg.Logging.Level)
				}
				if cfg.Logging.Format != "json" {
					t.Errorf("format = %q, want json from global", cfg.Logging.Format)
				}
			},
		},
		{
			name:          "Both with merge - disjoint sections combine",
			globalConfig:  `{"database": {"path": "/var/lib/planner.db"}}`,
			projectConfig: `{"limits": {"max_tasks": 50}}`,
			check: func(t *testing.T, cfg *PlannerConfig) {
				if cfg.Database.Path != "/var/lib/planner.db" {
					t.Errorf("database.path = %q", cfg.Database.Path)
				}
				if cfg.Limits.MaxTasks != 50 {
					t.Errorf("max_tasks = %d, want 50", cfg.Limits.MaxTasks)
				}
				if cfg.Limits.MaxEstimatedHours != 1000 {
					t.Errorf("max_estimated_hours = %g, want default 1000", cfg.Limits.MaxEstimatedHours)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()

			globalPath := ""
			if tt.globalConfig != "" {
				globalPath = writeFile(t, tmpDir, "global.json", tt.globalConfig)
			}
			projectPath := ""
			if tt.projectConfig != "" {
				projectPath = writeFile(t, tmpDir, "project.json", tt.projectConfig)
			}

			cfg, err := Load(globalPath, projectPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	tmpDir := t.TempDir()
	globalPath := writeFile(t, tmpDir, "global.json", "{invalid json")

	_, err := Load(globalPath, "")
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}

	// Error should mention the file
	if !strings.Contains(err.Error(), "global.json") {
		t.Errorf("error %q does not name the file", err.Error())
	}
}

func TestLoad_MissingFilesNotError(t *testing.T) {
	cfg, err := Load("/nonexistent/global.json", "/nonexistent/project.json")
	if err != nil {
		t.Fatalf("expected no error for missing files, got: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadDefault_ExplicitMustExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := LoadDefault(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}

	path := writeFile(t, t.TempDir(), "explicit.json", `{"server": {"addr": "127.0.0.1:7000"}}`)
	cfg, err := LoadDefault(path)
	if err != nil {
		t.Fatalf("LoadDefault() error: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q, want explicit value", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(cfg *PlannerConfig)
		errContains string
	}{
		{"defaults", func(cfg *PlannerConfig) {}, ""},
		{"empty addr", func(cfg *PlannerConfig) { cfg.Server.Addr = "" }, "server.addr"},
		{"zero max tasks", func(cfg *PlannerConfig) { cfg.Limits.MaxTasks = 0 }, "max_tasks"},
		{"inverted hours", func(cfg *PlannerConfig) {
			cfg.Limits.MinEstimatedHours = 10
			cfg.Limits.MaxEstimatedHours = 5
		}, "estimated hours"},
		{"no database", func(cfg *PlannerConfig) { cfg.Database.Path = "" }, "database.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %v doesn't contain %q", err, tt.errContains)
			}
		})
	}
}
