package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	gcfs "cloud.google.com/go/firestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/platform/firestore"
	"github.com/taskflow-app/taskflow-api/internal/platform/mail"
	"github.com/taskflow-app/taskflow-api/internal/platform/postgres"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
	"github.com/taskflow-app/taskflow-api/internal/store"
)

type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	firestore *gcfs.Client
	registry  *prometheus.Registry

	userStore     store.UserStore
	reminderStore reminder.Store

	metrics    *reminder.Metrics
	dispatcher *reminder.Dispatcher
	trigger    *reminder.Trigger
}

func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	candidates, err := app.setupStores(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}
	app.reminderStore = reminder.NewStore(candidates, app.userStore)

	mailer := mail.NewMailer(cfg.Mail, cfg.Server.AppURL, logger)

	app.metrics = reminder.NewMetrics(app.registry)
	app.dispatcher = reminder.NewDispatcher(
		app.reminderStore,
		mailer,
		reminder.SystemClock,
		reminder.DispatcherConfig{
			Concurrency: cfg.Reminder.Concurrency,
			SendTimeout: cfg.Reminder.SendTimeout,
		},
		logger,
		app.metrics,
	)
	app.trigger = reminder.NewTrigger(app.dispatcher, reminder.TriggerConfig{Metrics: app.metrics}, logger)

	logger.Info("application initialized")
	return app, nil
}

// setupStores opens the configured backend and returns the reminder
// candidate store backed by it.
func (app *application) setupStores(ctx context.Context) (reminder.CandidateStore, error) {
	switch app.config.Store.Backend {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, app.config.Store.FirestoreProjectID)
		if err != nil {
			return nil, err
		}
		app.firestore = client

		tasks := firestore.NewTaskStore(client)
		app.userStore = firestore.NewUserStore(client)
		app.logger.Info("using firestore task store",
			slog.String("project_id", app.config.Store.FirestoreProjectID))
		return tasks, nil

	case config.BackendPostgres:
		db, err := setupAppDatabase(ctx, app.config.Database, app.logger)
		if err != nil {
			return nil, err
		}
		app.db = db

		tasks := postgres.NewPostgresTaskStore(db)
		app.userStore = postgres.NewPostgresUserStore(db)
		return tasks, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", app.config.Store.Backend)
}

// Run starts the reminder trigger when mail is configured and serves HTTP
// until ctx is cancelled. An in-flight reminder pass is allowed to finish.
func (app *application) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reminder.StartIfEnabled(runCtx, app.config.Mail.Enabled(), app.trigger, app.logger)

	err := app.startHTTPServer(runCtx, app.setupRouter())

	cancel()
	app.trigger.Wait()

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	if app.firestore != nil {
		if err := app.firestore.Close(); err != nil {
			app.logger.Error("error closing firestore client", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
