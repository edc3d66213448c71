package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// sentimentCmd prints news sentiment for a symbol
var sentimentCmd = &cobra.Command{
	Use:   "sentiment <SYMBOL>",
	Short: "Show news sentiment for a stock",
	Long: `Fetches recent headlines and scores them bullish / neutral / bearish.

Example:
  go run ./cmd/stockpilot sentiment AAPL`,
	Args: cobra.ExactArgs(1),
	RunE: runSentiment,
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := wire(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.sentiment.Report(cmd.Context(), strings.ToUpper(args[0]))
	if err != nil {
		return fmt.Errorf("sentiment: %w", err)
	}

	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  %s  %s (%.2f, %s)\n", report.Symbol, strings.ToUpper(string(report.Label)), report.Score, report.Method)
	fmt.Println("───────────────────────────────────────────────────────────")
	fmt.Printf("  Bullish %.1f%%  Neutral %.1f%%  Bearish %.1f%%\n",
		report.Distribution.Bullish, report.Distribution.Neutral, report.Distribution.Bearish)
	fmt.Println("───────────────────────────────────────────────────────────")
	for _, h := range report.Headlines {
		fmt.Printf("  [%-7s %.2f] %s\n", h.Label, h.Score, h.Headline)
	}
	if len(report.Headlines) == 0 {
		fmt.Println("  No recent headlines")
	}
	return nil
}
