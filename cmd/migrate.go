package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nurfog/bbbAPIGL/internal/config"
	"github.com/Nurfog/bbbAPIGL/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending room-store migrations",
	RunE:  runMigrateUp,
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
