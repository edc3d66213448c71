package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpilot/internal/alerts"
	"github.com/wonny/stockpilot/internal/favorites"
	"github.com/wonny/stockpilot/internal/history"
	"github.com/wonny/stockpilot/pkg/database"
)

// migrateCmd creates the application schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the application schema",
	Long: `Creates app.screen_queries, app.price_alerts and app.favorite_stocks
when missing. Requires DATABASE_URL.

Example:
  go run ./cmd/stockpilot migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := database.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	health, err := db.HealthCheck(cmd.Context())
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	log.WithField("response_time", health.ResponseTime).Info("Database reachable")

	schemas := []struct {
		table  string
		ensure func(context.Context) error
	}{
		{"app.screen_queries", history.NewRepository(db.Pool).EnsureSchema},
		{"app.price_alerts", alerts.NewRepository(db.Pool).EnsureSchema},
		{"app.favorite_stocks", favorites.NewRepository(db.Pool).EnsureSchema},
	}
	for _, sc := range schemas {
		if err := sc.ensure(cmd.Context()); err != nil {
			return err
		}
		log.WithField("table", sc.table).Info("Schema ready")
		fmt.Printf("✅ %s ready\n", sc.table)
	}
	return nil
}
