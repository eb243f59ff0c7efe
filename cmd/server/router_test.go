package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-app/taskflow-api/internal/config"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/reminder"
)

func testApplication(t *testing.T) *application {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "info", AppURL: "http://localhost:3000"},
		Store:  config.StoreConfig{Backend: config.BackendPostgres},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := prometheus.NewRegistry()
	metrics := reminder.NewMetrics(registry)
	runner := reminder.NewDispatcher(nil, nil, nil, reminder.DefaultDispatcherConfig(), log, metrics)

	return &application{
		config:     cfg,
		logger:     log,
		registry:   registry,
		metrics:    metrics,
		dispatcher: runner,
		trigger:    reminder.NewTrigger(runner, reminder.TriggerConfig{Metrics: metrics}, log),
	}
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) healthResponse {
	t.Helper()
	var resp healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	t.Run("reminders disabled without mail credentials", func(t *testing.T) {
		app := testApplication(t)
		rec := httptest.NewRecorder()

		app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		resp := decodeHealth(t, rec)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, config.BackendPostgres, resp.Store)
		assert.Equal(t, "disabled", resp.Reminders)
	})

	t.Run("reports trigger state when mail is configured", func(t *testing.T) {
		app := testApplication(t)
		app.config.Mail = config.MailConfig{Username: "bot@example.com", Password: "secret"}
		rec := httptest.NewRecorder()

		app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, reminder.StateIdle.String(), decodeHealth(t, rec).Reminders)
	})

	t.Run("database ping failure", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		mock.ExpectPing().WillReturnError(assert.AnError)

		app := testApplication(t)
		app.db = db
		rec := httptest.NewRecorder()

		app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unavailable", decodeHealth(t, rec).Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMetricsEndpoint(t *testing.T) {
	app := testApplication(t)
	rec := httptest.NewRecorder()

	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskflow_reminder_")
}

func TestUnknownRoute(t *testing.T) {
	app := testApplication(t)
	rec := httptest.NewRecorder()

	app.setupRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cards", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := testApplication(t)
	app.logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var reqLog *slog.Logger
	h := middleware.RequestID(app.requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog = logger.FromContext(r.Context())
		reqLog.Info("inside handler")
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, reqLog)
	assert.Contains(t, buf.String(), `"msg":"request started"`)
	assert.Contains(t, buf.String(), `"msg":"inside handler","trace_id":"req-123"`)
}
