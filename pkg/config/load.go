package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// baseConfig returns a config with the defaults that cannot be expressed
// as zero-value fills: booleans that default to true, and counts where
// zero is itself meaningful.
func baseConfig() *Config {
	return &Config{
		Policy: PolicyConfig{Watch: true},
		Audit: AuditConfig{
			Enabled:       true,
			RetentionDays: 90,
		},
		Telemetry: TelemetryConfig{MetricsEnabled: true},
	}
}

// Load reads a YAML configuration file, applies defaults and environment
// overrides, and validates the result. Environment variables use the
// PARAPET_SECTION_FIELD convention and take precedence over the file.
func Load(path string) (*Config, error) {
	cfg := baseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies PARAPET_* environment variables over the
// loaded configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARAPET_POLICY_SOURCE"); v != "" {
		cfg.Policy.Source = v
	}
	if v := os.Getenv("PARAPET_POLICY_PATH"); v != "" {
		cfg.Policy.Path = v
	}
	if v := os.Getenv("PARAPET_POLICY_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Policy.Watch = b
		}
	}
	if v := os.Getenv("PARAPET_POLICY_GIT_URL"); v != "" {
		cfg.Policy.Git.URL = v
	}
	if v := os.Getenv("PARAPET_POLICY_GIT_BRANCH"); v != "" {
		cfg.Policy.Git.Branch = v
	}
	if v := os.Getenv("PARAPET_POLICY_GIT_TOKEN"); v != "" {
		cfg.Policy.Git.Token = v
	}
	if v := os.Getenv("PARAPET_POLICY_GIT_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Policy.Git.PollInterval = d
		}
	}

	if v := os.Getenv("PARAPET_AUDIT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if v := os.Getenv("PARAPET_AUDIT_BACKEND"); v != "" {
		cfg.Audit.Backend = v
	}
	if v := os.Getenv("PARAPET_AUDIT_PATH"); v != "" {
		cfg.Audit.Path = v
	}
	if v := os.Getenv("PARAPET_AUDIT_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Audit.RetentionDays = n
		}
	}

	if v := os.Getenv("PARAPET_TELEMETRY_LOG_LEVEL"); v != "" {
		cfg.Telemetry.LogLevel = v
	}
	if v := os.Getenv("PARAPET_TELEMETRY_LOG_FORMAT"); v != "" {
		cfg.Telemetry.LogFormat = v
	}
	if v := os.Getenv("PARAPET_TELEMETRY_METRICS_ADDRESS"); v != "" {
		cfg.Telemetry.MetricsAddress = v
	}
}
