package main

import (
	"os"

	"github.com/calculon/goals-api/internal/config"
	"github.com/calculon/goals-api/internal/logger"
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "calculon",
	Short:        "Goal and budget tracker API",
	Long:         "Track savings goals, expenses and budget adjustments, shared with collaborators.",
	RunE:         runServe,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (default $CALCULON_CONFIG)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// setup loads the configuration and installs the logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	return cfg, nil
}
