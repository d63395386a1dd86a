// Package cleanup purges expired export artifacts on a cron schedule.
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"datareduce/internal/domain"
)

// Janitor removes export files once they outlive their TTL, and drops the
// metastore records alongside.
type Janitor struct {
	artifacts domain.ArtifactRepository
	ttl       time.Duration
	logger    *slog.Logger

	cron *cron.Cron
}

func NewJanitor(artifacts domain.ArtifactRepository, ttl time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		artifacts: artifacts,
		ttl:       ttl,
		logger:    logger,
		cron:      cron.New(),
	}
}

// Start registers the sweep on the given cron schedule and starts the
// scheduler.
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.logger.Warn("artifact sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("artifact janitor started", "schedule", schedule, "ttl", j.ttl.String())
	return nil
}

// Stop halts the scheduler. A sweep already in flight finishes.
func (j *Janitor) Stop() {
	j.cron.Stop()
	j.logger.Info("artifact janitor stopped")
}

// Sweep deletes every artifact older than the TTL and returns how many
// were removed. A file that is already gone still gets its record dropped.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-j.ttl)

	expired, err := j.artifacts.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, artifact := range expired {
		if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("could not remove export file",
				"artifact_id", artifact.ID, "path", artifact.Path, "error", err)
			continue
		}
		if err := j.artifacts.Delete(ctx, artifact.ID); err != nil {
			j.logger.Warn("could not drop artifact record",
				"artifact_id", artifact.ID, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("swept expired export artifacts", "removed", removed)
	}
	return removed, nil
}
