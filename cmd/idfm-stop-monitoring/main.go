// Package main provides the IDF Mobilité stop monitoring CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idfm-stop-monitoring",
	Short: "IDF Mobilité stop monitoring retrieval",
	Long: "Retrieves real-time public transit arrival predictions from the IDF Mobilité " +
		"stop monitoring API for a set of towns, flattens the responses and persists " +
		"them as a tabular artifact.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
