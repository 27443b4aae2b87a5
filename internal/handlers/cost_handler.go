package handlers

import (
	"net/http"
	"strconv"

	"pos-backend/internal/models"
	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"

	"github.com/gorilla/mux"
)

type CostHandler struct {
	Costs      *services.CostService
	Recurrence *services.RecurrenceService
	Clock      timeutil.Clock
}

func NewCostHandler(costs *services.CostService, rec *services.RecurrenceService, clock timeutil.Clock) *CostHandler {
	return &CostHandler{Costs: costs, Recurrence: rec, Clock: clock}
}

func (h *CostHandler) CreateCost(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCostRequest
	if !decode(w, r, &req) {
		return
	}
	cost, err := h.Costs.CreateCost(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cost)
}

func (h *CostHandler) GetCost(w http.ResponseWriter, r *http.Request) {
	cost, err := h.Costs.GetCost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cost)
}

// ListCosts supports ?status=, ?due_before=YYYY-MM-DD and ?recurring=true.
func (h *CostHandler) ListCosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter models.CostFilter
	if s := q.Get("status"); s != "" {
		filter.Status = models.CostStatus(s)
		if !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status")
			return
		}
	}
	if s := q.Get("due_before"); s != "" {
		d, err := timeutil.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid due_before date")
			return
		}
		filter.DueBefore = &d
	}
	if s := q.Get("recurring"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid recurring flag")
			return
		}
		filter.RecurringRoot = b
	}

	costs, err := h.Costs.ListCosts(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (h *CostHandler) PayCost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entryID, err := h.Costs.MarkPaid(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cost_id": id, "ledger_entry_id": entryID})
}

func (h *CostHandler) CorrectStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	cost, err := h.Costs.CorrectStatus(r.Context(), mux.Vars(r)["id"], models.CostStatus(req.Status))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cost)
}

func (h *CostHandler) ExpandCost(w http.ResponseWriter, r *http.Request) {
	at, err := asOf(r, h.Clock)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of date")
		return
	}
	created, err := h.Recurrence.ExpandCost(r.Context(), mux.Vars(r)["id"], at)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}
