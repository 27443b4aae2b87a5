package http

import (
	"net/http"

	"pos-backend/internal/auth"
	"pos-backend/internal/handlers"
	"pos-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything the router mounts
type Handlers struct {
	Wallets  *handlers.WalletHandler
	Costs    *handlers.CostHandler
	Receipts *handlers.ReceiptHandler
	Bookings *handlers.BookingHandler
	Sweep    *handlers.SweepHandler
	Health   *handlers.HealthHandler
}

func NewRouter(h Handlers, authMiddleware *middleware.AuthMiddleware) *mux.Router {
	r := mux.NewRouter()
	// Runs after route matching so requests are labelled by path template.
	r.Use(middleware.MetricsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	guard := func(perm auth.Permission, fn http.HandlerFunc) http.Handler {
		return middleware.RequirePermission(perm)(fn)
	}
	// Till and back-office routes also need the matching portal.
	portal := func(p auth.Portal, perm auth.Permission, fn http.HandlerFunc) http.Handler {
		return middleware.RequirePortal(p)(guard(perm, fn))
	}

	// Wallets and ledger
	api.Handle("/wallets", guard(auth.PermWalletWrite, h.Wallets.CreateWallet)).Methods("POST")
	api.Handle("/wallets", guard(auth.PermWalletRead, h.Wallets.ListWallets)).Methods("GET")
	api.Handle("/wallets/{id}", guard(auth.PermWalletRead, h.Wallets.GetWallet)).Methods("GET")
	api.Handle("/wallets/{id}/deactivate", guard(auth.PermWalletWrite, h.Wallets.DeactivateWallet)).Methods("POST")
	api.Handle("/wallets/{id}/entries", guard(auth.PermWalletRead, h.Wallets.GetEntries)).Methods("GET")
	api.Handle("/wallets/{id}/verify", guard(auth.PermWalletRead, h.Wallets.VerifyBalance)).Methods("GET")
	api.Handle("/wallets/{id}/statement", guard(auth.PermWalletRead, h.Wallets.GetStatement)).Methods("GET")
	api.Handle("/wallets/{id}/statement.pdf", guard(auth.PermWalletRead, h.Wallets.GetStatementPDF)).Methods("GET")
	api.Handle("/wallets/{id}/statement.csv", guard(auth.PermWalletRead, h.Wallets.GetStatementCSV)).Methods("GET")
	api.Handle("/wallets/{id}/statement/archive", guard(auth.PermWalletWrite, h.Wallets.ArchiveStatement)).Methods("POST")

	// Costs
	api.Handle("/costs", guard(auth.PermCostWrite, h.Costs.CreateCost)).Methods("POST")
	api.Handle("/costs", guard(auth.PermWalletRead, h.Costs.ListCosts)).Methods("GET")
	api.Handle("/costs/{id}", guard(auth.PermWalletRead, h.Costs.GetCost)).Methods("GET")
	api.Handle("/costs/{id}/pay", guard(auth.PermWalletPost, h.Costs.PayCost)).Methods("POST")
	api.Handle("/costs/{id}/correct", guard(auth.PermCostWrite, h.Costs.CorrectStatus)).Methods("POST")
	api.Handle("/costs/{id}/expand", guard(auth.PermCostWrite, h.Costs.ExpandCost)).Methods("POST")

	// Receipts
	api.Handle("/receipts", portal(auth.PortalCashier, auth.PermReceiptWrite, h.Receipts.CreateReceipt)).Methods("POST")
	api.Handle("/receipts/{id}", guard(auth.PermWalletRead, h.Receipts.GetReceipt)).Methods("GET")
	api.Handle("/receipts/{id}/complete", portal(auth.PortalCashier, auth.PermWalletPost, h.Receipts.CompleteReceipt)).Methods("POST")
	api.Handle("/receipts/{id}/cancel", portal(auth.PortalCashier, auth.PermReceiptWrite, h.Receipts.CancelReceipt)).Methods("POST")

	// Bookings
	api.Handle("/bookings", guard(auth.PermBookingWrite, h.Bookings.CreateBooking)).Methods("POST")
	api.Handle("/bookings/{id}", guard(auth.PermWalletRead, h.Bookings.GetBooking)).Methods("GET")
	api.Handle("/bookings/{id}/occurrences", guard(auth.PermWalletRead, h.Bookings.ListOccurrences)).Methods("GET")
	api.Handle("/bookings/{id}/expand", guard(auth.PermBookingWrite, h.Bookings.ExpandBooking)).Methods("POST")

	// Reconciliation sweep
	api.Handle("/sweep", portal(auth.PortalAdmin, auth.PermSweepRun, h.Sweep.RunSweep)).Methods("POST")
	api.Handle("/sweep/last", portal(auth.PortalAdmin, auth.PermSweepRun, h.Sweep.LastReport)).Methods("GET")

	// Health check endpoints (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
