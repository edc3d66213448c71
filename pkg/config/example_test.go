package config_test

import (
	"fmt"

	"github.com/wonny/stockpilot/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Server running on port: %s\n", cfg.Port)
	fmt.Printf("LLM provider: %s (timeout %s)\n", cfg.LLM.Provider, cfg.LLM.Timeout)
	fmt.Printf("Market data: %s\n", cfg.MarketData.Provider)
	fmt.Printf("Max results: %d\n", cfg.Screener.MaxResults)
}
