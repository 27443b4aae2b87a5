package handlers

import (
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"

	"github.com/gorilla/mux"
)

type ReceiptHandler struct {
	Receipts    *services.ReceiptService
	Coordinator *services.Coordinator
}

func NewReceiptHandler(receipts *services.ReceiptService, coordinator *services.Coordinator) *ReceiptHandler {
	return &ReceiptHandler{Receipts: receipts, Coordinator: coordinator}
}

func (h *ReceiptHandler) CreateReceipt(w http.ResponseWriter, r *http.Request) {
	var req models.CreateReceiptRequest
	if !decode(w, r, &req) {
		return
	}
	receipt, err := h.Receipts.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *ReceiptHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Receipts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (h *ReceiptHandler) CompleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entryID, err := h.Coordinator.CompleteReceipt(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"receipt_id": id, "ledger_entry_id": entryID})
}

func (h *ReceiptHandler) CancelReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Receipts.Cancel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
