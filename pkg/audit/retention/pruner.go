// Package retention enforces the audit trail's retention policy by
// deleting records past their retention window, on demand or on a cron
// schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"parapet-hq/parapet/pkg/audit"
)

// Config configures retention pruning.
type Config struct {
	// RetentionDays is how many days of records to keep. 0 disables
	// age-based pruning.
	RetentionDays int

	// MaxRecords caps the total record count; the oldest records beyond
	// the cap are deleted. 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression for scheduled pruning, for
	// example "0 3 * * *". Empty disables the scheduler.
	PruneSchedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner deletes decision records per the retention configuration.
type Pruner struct {
	storage audit.Storage
	config  *Config
	logger  *slog.Logger
}

// NewPruner creates a pruner over storage.
func NewPruner(storage audit.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "audit.retention"),
	}
}

// Prune runs age-based pruning, then count-based pruning, and returns the
// total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("audit records pruned", "deleted", total)
	}
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	return p.storage.Delete(ctx, &audit.Query{End: &cutoff})
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, err
	}
	excess := count - p.config.MaxRecords
	if excess <= 0 {
		return 0, nil
	}

	// Find the cutoff time of the oldest record to keep, then delete
	// everything at or before the record just past it.
	victims, err := p.storage.Query(ctx, &audit.Query{
		Limit:  1,
		Offset: int(p.config.MaxRecords),
	})
	if err != nil {
		return 0, err
	}
	if len(victims) == 0 {
		return 0, nil
	}
	cutoff := victims[0].Time
	return p.storage.Delete(ctx, &audit.Query{End: &cutoff})
}
