package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parapet.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Policy.Source != "file" || cfg.Policy.Path != "policies" {
		t.Errorf("policy defaults = %q/%q", cfg.Policy.Source, cfg.Policy.Path)
	}
	if !cfg.Policy.Watch {
		t.Error("watch should default to true")
	}
	if cfg.Policy.DebounceInterval != 100*time.Millisecond {
		t.Errorf("debounce default = %v", cfg.Policy.DebounceInterval)
	}
	if !cfg.Audit.Enabled || cfg.Audit.Backend != "sqlite" || cfg.Audit.RetentionDays != 90 {
		t.Errorf("audit defaults = %+v", cfg.Audit)
	}
	if cfg.Telemetry.LogLevel != "info" || cfg.Telemetry.LogFormat != "json" {
		t.Errorf("telemetry defaults = %+v", cfg.Telemetry)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
policy:
  path: /etc/parapet/policies
  watch: false
audit:
  backend: memory
  retention_days: 0
telemetry:
  log_level: debug
  log_format: text
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Policy.Path != "/etc/parapet/policies" {
		t.Errorf("Path = %q", cfg.Policy.Path)
	}
	if cfg.Policy.Watch {
		t.Error("watch: false not honored")
	}
	if cfg.Audit.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Audit.Backend)
	}
	if cfg.Audit.RetentionDays != 0 {
		t.Errorf("retention_days: 0 not honored, got %d", cfg.Audit.RetentionDays)
	}
	if cfg.Telemetry.LogLevel != "debug" || cfg.Telemetry.LogFormat != "text" {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PARAPET_POLICY_PATH", "/env/policies")
	t.Setenv("PARAPET_TELEMETRY_LOG_LEVEL", "warn")
	t.Setenv("PARAPET_AUDIT_RETENTION_DAYS", "14")

	cfg, err := Load(writeConfig(t, "policy:\n  path: /file/policies\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy.Path != "/env/policies" {
		t.Errorf("env override lost: %q", cfg.Policy.Path)
	}
	if cfg.Telemetry.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.Telemetry.LogLevel)
	}
	if cfg.Audit.RetentionDays != 14 {
		t.Errorf("RetentionDays = %d", cfg.Audit.RetentionDays)
	}
}

func TestLoad_GitSourceRequiresURL(t *testing.T) {
	_, err := Load(writeConfig(t, "policy:\n  source: git\n"))
	if err == nil {
		t.Fatal("git source without url should fail validation")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad source", func(c *Config) { c.Policy.Source = "s3" }},
		{"bad backend", func(c *Config) { c.Audit.Backend = "postgres" }},
		{"negative retention", func(c *Config) { c.Audit.RetentionDays = -1 }},
		{"bad cron", func(c *Config) { c.Audit.PruneSchedule = "whenever" }},
		{"bad log level", func(c *Config) { c.Telemetry.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.Telemetry.LogFormat = "xml" }},
		{"bad metrics address", func(c *Config) { c.Telemetry.MetricsAddress = "no-port" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("missing file should error")
	}
}
