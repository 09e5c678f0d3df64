package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reporting-sync",
		Short: "Incremental sync of reporting data exports into a local sink",
		Long: `reporting-sync pulls asynchronously generated reporting exports
window by window: it submits an export job for the next time window,
polls until the job completes, streams the compressed result into the
configured sink, and commits the cursor only after the whole window
landed. Configuration comes from environment variables.`,
	}

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
