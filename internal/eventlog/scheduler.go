package eventlog

import (
	"context"
	"log/slog"
	"time"
)

// Purger deletes events older than a retention window.
type Purger interface {
	Purge(ctx context.Context, retentionDays int) (int64, error)
}

// RetentionConfig controls the purge scheduler.
type RetentionConfig struct {
	RetentionDays int           // default: 30
	Interval      time.Duration // default: 24h
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 30
	}
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	return c
}

// StartPurgeScheduler purges once immediately, then every Interval until ctx
// is cancelled. Failed purges are logged and retried on the next tick.
func StartPurgeScheduler(ctx context.Context, p Purger, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("event purge scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.Interval,
	)

	runPurge(ctx, p, cfg.RetentionDays)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("event purge scheduler stopped")
			return
		case <-ticker.C:
			runPurge(ctx, p, cfg.RetentionDays)
		}
	}
}

func runPurge(ctx context.Context, p Purger, retentionDays int) {
	start := time.Now()
	n, err := p.Purge(ctx, retentionDays)
	if err != nil {
		slog.Error("event purge failed", "error", err)
		return
	}
	slog.Info("purged old events",
		"entries_purged", n,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
