package main

import (
	"log/slog"

	"github.com/calculon/goals-api/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if err := database.Connect(cfg); err != nil {
			return err
		}
		if err := database.Migrate(); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}
