// Package main provides the entry point for the portfolio agent HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portfolio_agent",
	Short: "Portfolio agent HTTP API server",
	Long:  "Portfolio agent serves the AI-backed endpoints of a personal portfolio site: visitor chat, job-fit assessments, and the admin prompt-testing workbench.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
