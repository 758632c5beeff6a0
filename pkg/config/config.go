package config

import "time"

// Config is the root configuration for Parapet. Sections cover the policy
// source, the audit trail, and telemetry.
type Config struct {
	// Policy configures where policy definitions come from and how they
	// are reloaded.
	Policy PolicyConfig `yaml:"policy"`

	// Audit configures decision recording, storage, and retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PolicyConfig selects and tunes the policy source.
type PolicyConfig struct {
	// Source is "file" or "git".
	// Default: "file"
	Source string `yaml:"source"`

	// Path is the policy file or directory for the file source.
	// Default: "policies"
	Path string `yaml:"path"`

	// Watch enables hot reload for the file source.
	// Default: true
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload after file
	// changes. Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Git configures the git source; used when Source is "git".
	Git GitConfig `yaml:"git"`
}

// GitConfig configures the git-backed policy source.
type GitConfig struct {
	// URL is the repository clone URL.
	URL string `yaml:"url"`

	// Branch to track. Default: "main"
	Branch string `yaml:"branch"`

	// Subdir restricts loading to a directory inside the repository.
	Subdir string `yaml:"subdir"`

	// LocalPath is where the working clone lives.
	LocalPath string `yaml:"local_path"`

	// Token enables HTTP token auth for private repositories.
	Token string `yaml:"token"`

	// PollInterval is how often to check for new commits.
	// Default: 60s
	PollInterval time.Duration `yaml:"poll_interval"`
}

// AuditConfig configures the decision audit trail.
type AuditConfig struct {
	// Enabled turns decision recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file.
	// Default: "data/audit.db"
	Path string `yaml:"path"`

	// Buffer is the async recorder buffer size.
	// Default: 1000
	Buffer int `yaml:"buffer"`

	// RetentionDays is how many days of records to keep. 0 keeps forever.
	// Default: 90
	RetentionDays int `yaml:"retention_days"`

	// MaxRecords caps total records. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	// LogLevel is "debug", "info", "warn", or "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text".
	// Default: "json"
	LogFormat string `yaml:"log_format"`

	// MetricsEnabled exposes Prometheus metrics.
	// Default: true
	MetricsEnabled bool `yaml:"metrics_enabled"`

	// MetricsAddress is the listen address for the metrics endpoint.
	// Default: "127.0.0.1:9090"
	MetricsAddress string `yaml:"metrics_address"`
}
