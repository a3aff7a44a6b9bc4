// Package api exposes a small HTTP surface for checking on and triggering runs.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"QuoteKeeper/internal/model"
	"QuoteKeeper/internal/scheduler"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sched  *scheduler.Scheduler
	logger *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(sched *scheduler.Scheduler, logger *zap.Logger) *Handler {
	return &Handler{sched: sched, logger: logger.Named("api")}
}

type healthResponse struct {
	Status    string     `json:"status"`
	Scheduler string     `json:"scheduler"`
	Running   bool       `json:"running"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Scheduler: h.sched.State().String(),
		Running:   h.sched.Collector.Running(),
	}
	if next := h.sched.Next(); !next.IsZero() {
		resp.NextRun = &next
	}
	respondJSON(w, http.StatusOK, resp)
}

// LatestRun handles GET /runs/latest
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	latest := h.sched.Collector.Latest()
	if latest == nil {
		http.Error(w, "no run has finished yet", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, latest)
}

// TriggerRun handles POST /runs. The run outlives the request.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	status := "started"
	if h.sched.Collector.Running() {
		status = "already_running"
	}
	h.logger.Info("run requested", zap.String("remote", r.RemoteAddr), zap.String("status", status))
	h.sched.RunAsync(model.TriggerHTTP)

	respondJSON(w, http.StatusAccepted, map[string]string{"status": status})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
