package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tkserver/internal/middleware"
)

// Logging creates request logging middleware for the admin API.
// Health checks and metric scrapes log at debug level.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger.With(slog.String("component", "admin")), "/api/v1/health", "/metrics")
}
