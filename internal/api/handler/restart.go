package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcoot/tkserver/internal/api/request"
	"github.com/mcoot/tkserver/internal/api/response"
	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/services/restart"
)

// Scheduler is the restart schedule controlled over the admin API
type Scheduler interface {
	SetInterval(d time.Duration) (time.Time, error)
	Cancel()
	Schedule() model.Schedule
}

// RestartHandler handles restart schedule endpoints
type RestartHandler struct {
	scheduler Scheduler
}

// NewRestartHandler creates a new restart handler
func NewRestartHandler(scheduler Scheduler) *RestartHandler {
	return &RestartHandler{scheduler: scheduler}
}

// Get handles GET /api/v1/restart
func (h *RestartHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.ScheduleFromModel(h.scheduler.Schedule()))
}

// Set handles PUT /api/v1/restart
func (h *RestartHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req request.SetRestartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.Interval == "" {
		WriteError(w, NewInvalidRequestError("interval is required"))
		return
	}

	d, err := restart.ParseInterval(req.Interval)
	if err != nil {
		WriteError(w, err)
		return
	}
	if _, err := h.scheduler.SetInterval(d); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ScheduleFromModel(h.scheduler.Schedule()))
}

// Cancel handles DELETE /api/v1/restart
func (h *RestartHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.scheduler.Cancel()
	response.NoContent(w)
}
