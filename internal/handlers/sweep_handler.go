package handlers

import (
	"net/http"

	"pos-backend/internal/services"
)

type SweepHandler struct {
	Scheduler *services.Scheduler
}

func NewSweepHandler(scheduler *services.Scheduler) *SweepHandler {
	return &SweepHandler{Scheduler: scheduler}
}

// RunSweep triggers one reconciliation pass now.
func (h *SweepHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	report := h.Scheduler.RunOnce(r.Context())
	if report == nil {
		writeError(w, http.StatusConflict, "A sweep is already running")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *SweepHandler) LastReport(w http.ResponseWriter, r *http.Request) {
	report := h.Scheduler.LastReport()
	if report == nil {
		writeError(w, http.StatusNotFound, "No sweep has run yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
