package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roomsync",
	Short: "Virtual classroom rooms and calendar invitation sync",
	Long:  `Room provisioning + recurring calendar event reconciliation. Commands: api, migrate, seed, sync.`,
	RunE:  runAPI, // default: run API (same as "roomsync api")
}

func init() {
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(syncCmd)
}

// Execute runs the root command and returns the error (for main to log.Fatal).
func Execute() error {
	return rootCmd.Execute()
}
