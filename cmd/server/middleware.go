package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/taskflow-app/taskflow-api/internal/platform/logger"
)

// requestLogger stores a logger tagged with the chi request ID in the request
// context. It must run after middleware.RequestID.
func (app *application) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := app.logger.With(slog.String("trace_id", middleware.GetReqID(r.Context())))

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(logger.WithLogger(r.Context(), log)))
	})
}
