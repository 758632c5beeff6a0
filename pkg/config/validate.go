package config

import (
	"fmt"
	"net"

	"github.com/robfig/cron/v3"

	"parapet-hq/parapet/pkg/telemetry/logging"
)

// Validate checks a fully defaulted configuration for contradictions.
func Validate(cfg *Config) error {
	switch cfg.Policy.Source {
	case "file":
		if cfg.Policy.Path == "" {
			return fmt.Errorf("policy.path is required for the file source")
		}
	case "git":
		if cfg.Policy.Git.URL == "" {
			return fmt.Errorf("policy.git.url is required for the git source")
		}
		if cfg.Policy.Git.Branch == "" {
			return fmt.Errorf("policy.git.branch is required for the git source")
		}
	default:
		return fmt.Errorf("policy.source must be \"file\" or \"git\", got %q", cfg.Policy.Source)
	}

	if cfg.Audit.Enabled {
		switch cfg.Audit.Backend {
		case "sqlite":
			if cfg.Audit.Path == "" {
				return fmt.Errorf("audit.path is required for the sqlite backend")
			}
		case "memory":
		default:
			return fmt.Errorf("audit.backend must be \"sqlite\" or \"memory\", got %q", cfg.Audit.Backend)
		}
		if cfg.Audit.RetentionDays < 0 {
			return fmt.Errorf("audit.retention_days cannot be negative")
		}
		if cfg.Audit.PruneSchedule != "" {
			if _, err := cron.ParseStandard(cfg.Audit.PruneSchedule); err != nil {
				return fmt.Errorf("audit.prune_schedule: %w", err)
			}
		}
	}

	if _, err := logging.ParseLevel(cfg.Telemetry.LogLevel); err != nil {
		return fmt.Errorf("telemetry.log_level: %w", err)
	}
	switch cfg.Telemetry.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.log_format must be \"json\" or \"text\", got %q", cfg.Telemetry.LogFormat)
	}
	if cfg.Telemetry.MetricsEnabled {
		if _, _, err := net.SplitHostPort(cfg.Telemetry.MetricsAddress); err != nil {
			return fmt.Errorf("telemetry.metrics_address: %w", err)
		}
	}
	return nil
}
