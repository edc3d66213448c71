package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/scheduler"
	"github.com/wonny/stockpilot/internal/scheduler/jobs"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run scheduled background jobs",
	Long: `Runs the cron scheduler.

Jobs:
  universe_warmup    - refresh cached snapshots for every lexicon symbol
  history_retention  - delete query history older than HISTORY_RETENTION_DAYS
  price_alert_check  - fire price alerts and publish them to API servers

Example:
  go run ./cmd/stockpilot worker
  go run ./cmd/stockpilot worker --run universe_warmup`,
	RunE: runWorker,
}

var workerRunOnce string

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVar(&workerRunOnce, "run", "", "run a single job now and exit")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	s := scheduler.New(log)
	if err := s.AddJob(jobs.NewUniverseWarmupJob(c.universe, c.lexicon.AllSymbols(), cfg.MarketData.WarmupCron, log)); err != nil {
		return err
	}
	if c.db != nil {
		if err := s.AddJob(jobs.NewHistoryRetentionJob(c.history, cfg.Database.HistoryRetentionDays, log)); err != nil {
			return err
		}

		if !c.bus.Enabled() {
			log.Warn("Redis disabled, triggered alerts are stored but not pushed")
		}
		checker := alerts.NewChecker(c.alerts, c.universe, alertNotifiers(c, c.bus), log)
		if err := s.AddJob(jobs.NewPriceAlertJob(checker, cfg.Alerts.CheckCron, log)); err != nil {
			return err
		}
	}

	if workerRunOnce != "" {
		result, err := s.RunNow(ctx, workerRunOnce)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("job %s failed: %s", result.JobName, result.Error)
		}
		fmt.Printf("✅ %s completed in %s\n", result.JobName, result.Duration)
		return nil
	}

	s.Start(ctx)
	fmt.Printf("🚀 Worker started with jobs %v\n   Press Ctrl+C to stop gracefully\n", s.JobNames())

	<-ctx.Done()
	s.Stop()

	for name, st := range s.Stats() {
		log.WithFields(map[string]interface{}{
			"job":          name,
			"total_runs":   st.TotalRuns,
			"success_rate": st.SuccessRate,
			"last_error":   st.LastError,
		}).Info("Job summary")
	}
	return nil
}

