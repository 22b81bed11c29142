// Package cli provides the command-line interface for datapilot.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkarlsen/datapilot/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "datapilot",
	Short: "Data engineering copilot for BigQuery, Dataform, dbt, and Spark",
	Long: `Datapilot is a data engineering copilot. It diagnoses failed BigQuery jobs
and Dataform workflows, suggests query optimizations, and drives pipelines
across BigQuery, Dataform, GitHub, dbt, Dataproc, and Databricks.

The ask, task, and tools commands talk to a running datapilot API server.
The diagnose commands work offline on local input.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "",
		"API server URL (default $DATAPILOT_API_URL or http://127.0.0.1:8080)")
}

// apiClient builds a client for the configured server.
func apiClient() *client.Client {
	return client.New(serverURL)
}
