package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/stockpilot/pkg/logger"
)

// HistoryPruner deletes query history older than a cutoff
type HistoryPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HistoryRetentionJob trims query history daily
type HistoryRetentionJob struct {
	pruner HistoryPruner
	keep   time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewHistoryRetentionJob keeps retentionDays of history
func NewHistoryRetentionJob(pruner HistoryPruner, retentionDays int, log *logger.Logger) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		pruner: pruner,
		keep:   time.Duration(retentionDays) * 24 * time.Hour,
		now:    time.Now,
		logger: log,
	}
}

// Name returns the job name
func (j *HistoryRetentionJob) Name() string {
	return "history_retention"
}

// Schedule returns the cron schedule (daily at 03:00)
func (j *HistoryRetentionJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run deletes expired history
func (j *HistoryRetentionJob) Run(ctx context.Context) error {
	if j.keep <= 0 {
		return nil // 보존 기간 0 = 무기한
	}

	cutoff := j.now().Add(-j.keep)
	deleted, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":  cutoff.Format(time.RFC3339),
		"deleted": deleted,
	}).Info("History retention completed")
	return nil
}
