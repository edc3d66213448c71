package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/stockpilot/internal/pipeline"
	"github.com/wonny/stockpilot/internal/render"
)

// screenCmd runs a single screen from the command line
var screenCmd = &cobra.Command{
	Use:   "screen <query>",
	Short: "Screen stocks with a free-text query",
	Long: `Interprets the query, fetches the candidate universe and prints the ranked matches.

Example:
  go run ./cmd/stockpilot screen "tech stocks under $50 with strong growth"
  go run ./cmd/stockpilot screen --limit 5 --json "healthcare with dividend above 3%"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScreen,
}

var (
	screenLimit int
	screenJSON  bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().IntVar(&screenLimit, "limit", 0, "maximum results (default $SCREENER_MAX_RESULTS)")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print the view as JSON")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Screener.RequestTimeout)
	defer cancel()

	c, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	run, err := c.pipeline.Run(ctx, pipeline.RunConfig{
		Query: strings.Join(args, " "),
		Limit: screenLimit,
	})
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}

	view := render.FromScreen(run.Result)
	if screenJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return render.WriteText(os.Stdout, view)
}
