package main

import (
	"os"

	"github.com/wonny/stockpilot/cmd/stockpilot/commands"
)

// main is the entry point for the stockpilot CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/stockpilot [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
