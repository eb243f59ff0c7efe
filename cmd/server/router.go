package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
	"github.com/taskflow-app/taskflow-api/internal/redact"
)

type healthResponse struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Reminders string `json:"reminders"`
}

func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", app.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	return r
}

func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Store:     app.config.Store.Backend,
		Reminders: "disabled",
	}
	if app.config.Mail.Enabled() && app.trigger != nil {
		resp.Reminders = app.trigger.State().String()
	}

	code := http.StatusOK
	if app.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.db.PingContext(ctx); err != nil {
			logger.FromContextOrDefault(r.Context(), app.logger).
				Warn("health check database ping failed", "error", redact.Error(err))
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		app.logger.Error("failed to write health check response", "error", err)
	}
}
