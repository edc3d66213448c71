package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/api"
	"github.com/wonny/stockpilot/internal/api/handlers"
	"github.com/wonny/stockpilot/internal/scheduler"
	"github.com/wonny/stockpilot/internal/scheduler/jobs"
	"github.com/wonny/stockpilot/internal/session"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                              - Health check
  POST /api/screen                          - Screen with a free-text query
  GET  /api/screen/history                  - Recent queries of this session
  GET  /api/stocks/{symbol}/sentiment       - News sentiment
  GET  /api/stocks/{symbol}/indicators      - Technical indicators
  GET  /api/market/sentiment                - Market-wide sentiment
  GET  /api/alerts                          - Price alerts of this session
  POST /api/alerts                          - Create a price alert
  DEL  /api/alerts/{id}                     - Delete a price alert
  GET  /api/alerts/stream                   - Triggered alerts (WebSocket)
  GET  /api/favorites                       - Watchlist
  PUT  /api/favorites/{symbol}              - Add to watchlist
  DEL  /api/favorites/{symbol}              - Remove from watchlist
  GET  /api/session                         - Current session
  PUT  /api/session/plan                    - Change plan tier

Example:
  go run ./cmd/stockpilot serve
  go run ./cmd/stockpilot serve --port 8080`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default $PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	c, err := wire(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	bg, stopBackground := context.WithCancel(cmd.Context())
	defer stopBackground()

	hub := alerts.NewHub(log)
	defer hub.Close()

	h := api.Handlers{
		Screen:    handlers.NewScreenHandler(c.pipeline, c.history, c.sessions, log),
		Stock:     handlers.NewStockHandler(c.sentiment, c.market.Candles, c.sessions, log),
		Market:    handlers.NewMarketHandler(c.sentiment, c.sessions, log),
		Alerts:    handlers.NewAlertHandler(c.alerts, c.market.Provider, hub, c.sessions, log),
		Favorites: handlers.NewFavoriteHandler(c.favorites, c.market.Provider, log),
		Session:   handlers.NewSessionHandler(c.sessions, log),
	}
	router := api.NewRouter(h, api.RouterDeps{
		Sessions:         c.sessions,
		Limiter:          c.limiter,
		ScreenRatePerMin: cfg.Screener.RateLimitPerMin,
		ScreenTimeout:    cfg.Screener.RequestTimeout,
	}, log)
	server := api.New(cfg, log, router)

	// 워커가 발행한 알림을 이 서버의 WebSocket 클라이언트로 전달
	if c.bus.Enabled() {
		go func() {
			if err := c.bus.Listen(bg, hub.Deliver); err != nil {
				log.WithError(err).Warn("Alert bus subscription ended")
			}
		}()
	}

	local, err := serveJobs(c, hub)
	if err != nil {
		return err
	}
	if len(local.JobNames()) > 0 {
		local.Start(bg)
		defer local.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

// serveJobs returns the jobs that only work inside the API process:
// memory sessions need sweeping and memory alerts are invisible to the worker.
func serveJobs(c *components, hub *alerts.Hub) (*scheduler.Scheduler, error) {
	s := scheduler.New(c.log)

	if mem, ok := c.store.(*session.MemoryStore); ok {
		if err := s.AddJob(jobs.NewSessionSweepJob(mem, c.log)); err != nil {
			return nil, err
		}
	}
	if c.db == nil {
		checker := alerts.NewChecker(c.alerts, c.universe, alertNotifiers(c, hub), c.log)
		if err := s.AddJob(jobs.NewPriceAlertJob(checker, c.cfg.Alerts.CheckCron, c.log)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
