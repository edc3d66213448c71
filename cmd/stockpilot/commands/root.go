package commands

import (
	"context"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	envOverride string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockpilot",
	Short: "Natural-language stock screener",
	Long: `stockpilot unified CLI

Turns free-text requests such as "tech stocks under $50 with strong growth"
into screening criteria, filters live market data and ranks the matches.

Usage:
  go run ./cmd/stockpilot [command]

Examples:
  go run ./cmd/stockpilot serve
  go run ./cmd/stockpilot worker
  go run ./cmd/stockpilot screen "dividend stocks with P/E below 20"
  go run ./cmd/stockpilot sentiment AAPL
  go run ./cmd/stockpilot migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envOverride, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
