package handler

import (
	"net/http"

	"github.com/mcoot/tkserver/internal/api/response"
	"github.com/mcoot/tkserver/internal/dependencies/clock"
	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/services/clients"
)

// Whitelist is the registry view used by the admin API
type Whitelist interface {
	Count() int
	ListAll() []model.IdentityRecord
	Members() []string
	IsMember(id string) bool
	Inconsistent() bool
}

// Clients lists live connections
type Clients interface {
	Count() int
	Snapshot() []clients.Client
}

// ScheduleReader exposes the restart schedule
type ScheduleReader interface {
	Schedule() model.Schedule
}

// StatusHandler serves read-only views of the server state
type StatusHandler struct {
	whitelist Whitelist
	clients   Clients
	scheduler ScheduleReader
	clock     clock.Clock
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(whitelist Whitelist, clients Clients, scheduler ScheduleReader, clk clock.Clock) *StatusHandler {
	return &StatusHandler{
		whitelist: whitelist,
		clients:   clients,
		scheduler: scheduler,
		clock:     clk,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Status{
		Clients:        h.clients.Count(),
		WhitelistSize:  h.whitelist.Count(),
		MembershipSize: len(h.whitelist.Members()),
		Inconsistent:   h.whitelist.Inconsistent(),
		Restart:        response.ScheduleFromModel(h.scheduler.Schedule()),
		Time:           h.clock.Now(),
	})
}

// Users handles GET /api/v1/users
func (h *StatusHandler) Users(w http.ResponseWriter, r *http.Request) {
	records := h.whitelist.ListAll()
	users := make([]response.User, len(records))
	for i, rec := range records {
		users[i] = response.User{
			ID:          rec.ID,
			DisplayName: rec.DisplayName,
			Member:      h.whitelist.IsMember(rec.ID),
		}
	}
	response.JSON(w, http.StatusOK, response.Users{Users: users, Count: len(users)})
}

// Clients handles GET /api/v1/clients
func (h *StatusHandler) Clients(w http.ResponseWriter, r *http.Request) {
	snapshot := h.clients.Snapshot()
	list := make([]response.Client, len(snapshot))
	for i, c := range snapshot {
		list[i] = response.ClientFromModel(c)
	}
	response.JSON(w, http.StatusOK, response.Clients{Clients: list, Count: len(list)})
}
