package jobs

import (
	"context"

	"github.com/wonny/stockpilot/pkg/logger"
)

// SessionSweeper removes expired sessions
type SessionSweeper interface {
	Sweep() int
}

// SessionSweepJob frees idle in-memory sessions that are never read again
type SessionSweepJob struct {
	sweeper SessionSweeper
	logger  *logger.Logger
}

// NewSessionSweepJob creates a new sweep job
func NewSessionSweepJob(sweeper SessionSweeper, log *logger.Logger) *SessionSweepJob {
	return &SessionSweepJob{sweeper: sweeper, logger: log}
}

// Name returns the job name
func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *SessionSweepJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run drops expired sessions
func (j *SessionSweepJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	removed := j.sweeper.Sweep()
	if removed > 0 {
		j.logger.WithField("removed", removed).Debug("Expired sessions swept")
	}
	return nil
}
