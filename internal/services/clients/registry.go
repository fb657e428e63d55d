package clients

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/tkserver/internal/dependencies/clock"
	"github.com/mcoot/tkserver/internal/metrics"
)

// Client is the registry's handle for one live connection
type Client struct {
	ID          string
	RemoteAddr  string
	ConnectedAt time.Time
}

// Registry tracks the set of live connections
type Registry struct {
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*Client]struct{}
}

// New creates an empty Registry
func New(clk clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		clock:   clk,
		logger:  logger.With(slog.String("component", "clients")),
		clients: make(map[*Client]struct{}),
	}
}

// NewClient builds a handle for a connection from remoteAddr.
// The handle is not registered until Add is called.
func (r *Registry) NewClient(remoteAddr string) *Client {
	return &Client{
		ID:          uuid.NewString(),
		RemoteAddr:  remoteAddr,
		ConnectedAt: r.clock.Now(),
	}
}

// Add registers a client; adding the same handle twice is a no-op
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	if _, ok := r.clients[c]; ok {
		r.mu.Unlock()
		return
	}
	r.clients[c] = struct{}{}
	count := len(r.clients)
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()
	r.logger.Info("client connected",
		slog.String("client_id", c.ID),
		slog.String("remote_addr", c.RemoteAddr),
		slog.Int("total_clients", count))
}

// Remove deregisters a client; removing an unknown handle is a no-op
func (r *Registry) Remove(c *Client) {
	r.mu.Lock()
	if _, ok := r.clients[c]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, c)
	count := len(r.clients)
	r.mu.Unlock()

	metrics.ActiveConnections.Dec()
	r.logger.Info("client disconnected",
		slog.String("client_id", c.ID),
		slog.Duration("connection_duration", r.clock.Now().Sub(c.ConnectedAt)),
		slog.Int("total_clients", count))
}

// Count returns the number of registered clients at this instant
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Snapshot returns copies of all registered clients, oldest first
func (r *Registry) Snapshot() []Client {
	r.mu.Lock()
	result := make([]Client, 0, len(r.clients))
	for c := range r.clients {
		result = append(result, *c)
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].ConnectedAt.Equal(result[j].ConnectedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].ConnectedAt.Before(result[j].ConnectedAt)
	})
	return result
}
