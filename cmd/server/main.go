// Package main runs the TaskFlow API process: it loads configuration, opens
// the configured task store, starts the hourly reminder trigger when mail
// credentials are present and serves the operational HTTP endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command and exit ("+strings.Join(postgres.MigrationCommands, ", ")+")")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *migrateCmd); err != nil {
		log.Fatalf("taskflow-api: %v", err)
	}
}

func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	ctx = logger.WithLogger(ctx, l)

	l.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("store_backend", cfg.Store.Backend),
		slog.Bool("mail_enabled", cfg.Mail.Enabled()))

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, migrateCmd, l)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
