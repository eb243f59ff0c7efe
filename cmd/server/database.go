package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/redact"
)

// setupAppDatabase opens the PostgreSQL pool and verifies it with a ping.
func setupAppDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		logger.Error("database ping failed", slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("url", redact.URL(cfg.URL)),
		slog.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// runMigrations applies a goose command to the configured database.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Store.Backend != config.BackendPostgres {
		return fmt.Errorf("migrations only apply to the %s backend, configured backend is %s",
			config.BackendPostgres, cfg.Store.Backend)
	}

	db, err := setupAppDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(ctx, db, command, logger)
}
