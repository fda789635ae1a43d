package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/handlers"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/calculon/goals-api/internal/routes"
	"github.com/calculon/goals-api/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer sentry.Flush(2 * time.Second)

	if cfg.UsesDefaultSecret() && !cfg.IsDevelopment() {
		slog.Warn("JWT_SECRET is not set, using the development secret")
	}

	if err := database.Connect(cfg); err != nil {
		slog.Error("failed to connect to database", "error", err)
		return err
	}
	if err := database.Migrate(); err != nil {
		slog.Error("failed to migrate database", "error", err)
		return err
	}

	store := database.NewStore(database.DB)
	middleware.Configure(cfg.JWTSecret, store)
	handlers.Configure(cfg)
	services.InitPush(context.Background(), cfg.FCMServiceAccount, store)
	defer handlers.WS.Attach(services.Events)()

	app := routes.NewApp(cfg)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		return err
	}
	return nil
}
