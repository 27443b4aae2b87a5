package handlers

import (
	"fmt"
	"net/http"

	"pos-backend/internal/models"
	"pos-backend/internal/services"

	"github.com/gorilla/mux"
)

type WalletHandler struct {
	Ledger     *services.LedgerService
	Statements *services.StatementService
}

func NewWalletHandler(ledger *services.LedgerService, statements *services.StatementService) *WalletHandler {
	return &WalletHandler{Ledger: ledger, Statements: statements}
}

func (h *WalletHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWalletRequest
	if !decode(w, r, &req) {
		return
	}
	wallet, err := h.Ledger.CreateWallet(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "client_id parameter required")
		return
	}
	wallets, err := h.Ledger.ListWallets(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.Ledger.GetWallet(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) DeactivateWallet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Ledger.DeactivateWallet(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated", "id": id})
}

func (h *WalletHandler) GetEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Ledger.Entries(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// VerifyBalance reports whether the cached balance matches the entries.
func (h *WalletHandler) VerifyBalance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Ledger.VerifyBalance(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "consistent": true})
}

func (h *WalletHandler) GetStatement(w http.ResponseWriter, r *http.Request) {
	data, err := h.Statements.GetStatementData(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *WalletHandler) GetStatementPDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.Statements.GetStatementData(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pdf, err := h.Statements.GenerateStatementPDF(data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%s.pdf", id))
	w.Write(pdf)
}

func (h *WalletHandler) GetStatementCSV(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	data, err := h.Statements.GetStatementData(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out, err := h.Statements.GenerateStatementCSV(data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=statement_%s.csv", id))
	w.Write(out)
}

func (h *WalletHandler) ArchiveStatement(w http.ResponseWriter, r *http.Request) {
	key, err := h.Statements.ArchiveStatement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": key})
}
