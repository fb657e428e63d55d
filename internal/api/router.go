package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/tkserver/internal/api/handler"
	"github.com/mcoot/tkserver/internal/api/middleware"
	"github.com/mcoot/tkserver/internal/dependencies/clock"
	"github.com/mcoot/tkserver/internal/services/clients"
	"github.com/mcoot/tkserver/internal/services/restart"
	"github.com/mcoot/tkserver/internal/services/whitelist"
)

// RouterConfig holds configuration for the admin router
type RouterConfig struct {
	Logger    *slog.Logger
	Clock     clock.Clock
	Whitelist *whitelist.Service
	Clients   *clients.Registry
	Scheduler *restart.Scheduler
	// Token guards everything but health and metrics; empty disables auth
	Token string
}

// NewRouter creates the admin router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.Whitelist, cfg.Clients, cfg.Scheduler, cfg.Clock)
	restartHandler := handler.NewRestartHandler(cfg.Scheduler)

	authMiddleware := middleware.Auth(cfg.Token)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/status", statusHandler.Status).Methods(http.MethodGet)
	protected.HandleFunc("/users", statusHandler.Users).Methods(http.MethodGet)
	protected.HandleFunc("/clients", statusHandler.Clients).Methods(http.MethodGet)
	protected.HandleFunc("/restart", restartHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/restart", restartHandler.Set).Methods(http.MethodPut)
	protected.HandleFunc("/restart", restartHandler.Cancel).Methods(http.MethodDelete)

	r.Handle("/metrics", loggingMiddleware(promhttp.Handler())).Methods(http.MethodGet)

	return r
}
