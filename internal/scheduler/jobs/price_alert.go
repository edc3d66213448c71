package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/pkg/logger"
)

// AlertChecker fires pending price alerts
type AlertChecker interface {
	Check(ctx context.Context) (alerts.CheckResult, error)
}

// PriceAlertJob compares pending alerts with cached prices
type PriceAlertJob struct {
	checker  AlertChecker
	schedule string
	logger   *logger.Logger
}

// NewPriceAlertJob creates a new price alert job
func NewPriceAlertJob(checker AlertChecker, schedule string, log *logger.Logger) *PriceAlertJob {
	if schedule == "" {
		schedule = "0 */5 * * * *"
	}
	return &PriceAlertJob{
		checker:  checker,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *PriceAlertJob) Name() string {
	return "price_alert_check"
}

// Schedule returns the cron schedule
func (j *PriceAlertJob) Schedule() string {
	return j.schedule
}

// Run checks every pending alert once
func (j *PriceAlertJob) Run(ctx context.Context) error {
	res, err := j.checker.Check(ctx)
	if err != nil {
		return fmt.Errorf("check price alerts: %w", err)
	}

	if res.Pending > 0 {
		j.logger.WithFields(map[string]interface{}{
			"pending":   res.Pending,
			"symbols":   res.Symbols,
			"unpriced":  res.Unpriced,
			"triggered": res.Triggered,
		}).Info("Price alerts checked")
	}
	return nil
}
