package config

import "time"

// DefaultConfig returns a configuration populated with every default.
func DefaultConfig() *Config {
	cfg := baseConfig()
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields. Defaults that zero cannot
// express, true booleans and the retention window, are seeded by
// baseConfig before the file is unmarshalled.
func ApplyDefaults(cfg *Config) {
	if cfg.Policy.Source == "" {
		cfg.Policy.Source = "file"
	}
	if cfg.Policy.Path == "" {
		cfg.Policy.Path = "policies"
	}
	if cfg.Policy.DebounceInterval <= 0 {
		cfg.Policy.DebounceInterval = 100 * time.Millisecond
	}
	if cfg.Policy.Git.Branch == "" {
		cfg.Policy.Git.Branch = "main"
	}
	if cfg.Policy.Git.PollInterval <= 0 {
		cfg.Policy.Git.PollInterval = 60 * time.Second
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "sqlite"
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = "data/audit.db"
	}
	if cfg.Audit.Buffer <= 0 {
		cfg.Audit.Buffer = 1000
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = "0 3 * * *"
	}

	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = "info"
	}
	if cfg.Telemetry.LogFormat == "" {
		cfg.Telemetry.LogFormat = "json"
	}
	if cfg.Telemetry.MetricsAddress == "" {
		cfg.Telemetry.MetricsAddress = "127.0.0.1:9090"
	}
}
