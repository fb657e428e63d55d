package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection Metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tk_connections_active",
		Help: "The current number of connected game clients.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_connections_total",
		Help: "The total number of game client connections accepted.",
	})
	LinesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_lines_received_total",
		Help: "The total number of protocol lines received from clients.",
	})

	// Whitelist Metrics
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tk_registrations_total",
		Help: "Registration attempts by outcome.",
	}, []string{"outcome"})
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tk_persistence_failures_total",
		Help: "Whitelist projection writes that failed after retries.",
	}, []string{"projection"})

	// Shell Metrics
	ShellAuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_shell_auth_failures_total",
		Help: "The total number of wrong shell passwords.",
	})
	ShellCommands = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_shell_commands_total",
		Help: "The total number of commands run through the shell gateway.",
	})

	// Restart Metrics
	RestartsFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_restarts_fired_total",
		Help: "The total number of scheduled restarts executed.",
	})
	RestartActionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tk_restart_action_failures_total",
		Help: "Stop/start script failures.",
	}, []string{"action"})

	// Admin API Metrics
	AdminRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tk_admin_requests_total",
		Help: "Admin API requests by method and status code.",
	}, []string{"method", "code"})
	AdminPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tk_admin_panics_total",
		Help: "Admin API handler panics recovered.",
	})
)
