package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pos-backend/internal/auth"
	"pos-backend/internal/handlers"
	"pos-backend/internal/health"
	"pos-backend/internal/locks"
	"pos-backend/internal/middleware"
	"pos-backend/internal/repositories/memstore"
	"pos-backend/internal/services"
	"pos-backend/internal/timeutil"
)

type testServer struct {
	router http.Handler
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	locker := locks.NewLocal()
	clock := timeutil.NewFixedClock(time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))

	ledger := services.NewLedgerService(store, locker, clock, services.LedgerConfig{DefaultCurrency: "INR"})
	costs := services.NewCostService(store, locker, clock, ledger)
	receipts := services.NewReceiptService(store, locker, clock, ledger)
	rec := services.NewRecurrenceService(store, locker, clock)
	coordinator := services.NewCoordinator(store, receipts, costs, rec, 2)
	scheduler := services.NewScheduler(coordinator, clock, time.Minute, locker)
	statements := services.NewStatementService(ledger, nil, "statements/", clock)

	jwtManager := auth.NewJWTManager("test-secret", "pos-backend", time.Hour, clock)
	router := NewRouter(Handlers{
		Wallets:  handlers.NewWalletHandler(ledger, statements),
		Costs:    handlers.NewCostHandler(costs, rec, clock),
		Receipts: handlers.NewReceiptHandler(receipts, coordinator),
		Bookings: handlers.NewBookingHandler(services.NewBookingService(store, clock), rec, clock),
		Sweep:    handlers.NewSweepHandler(scheduler),
		Health:   handlers.NewHealthHandler(health.NewHealthChecker()),
	}, middleware.NewAuthMiddleware(jwtManager))
	return &testServer{router: router, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, portals []auth.Portal, perms ...auth.Permission) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken("staff-1", "staff@example.com", portals, perms)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_AuthGuards(t *testing.T) {
	s := newTestServer(t)
	reader := s.token(t, []auth.Portal{auth.PortalStaff}, auth.PermWalletRead)
	staffSweeper := s.token(t, []auth.Portal{auth.PortalStaff}, auth.PermSweepRun)
	staffPoster := s.token(t, []auth.Portal{auth.PortalStaff}, auth.PermWalletPost)
	cashier := s.token(t, []auth.Portal{auth.PortalCashier}, auth.PermWalletPost)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", "GET", "/health", "", http.StatusOK},
		{"readiness is public", "GET", "/health/ready", "", http.StatusOK},
		{"missing token", "GET", "/api/wallets/w1", "", http.StatusUnauthorized},
		{"garbage token", "GET", "/api/wallets/w1", "not-a-jwt", http.StatusUnauthorized},
		{"missing permission", "POST", "/api/sweep", reader, http.StatusForbidden},
		{"unknown wallet", "GET", "/api/wallets/w1", reader, http.StatusNotFound},
		{"sweep needs admin portal", "POST", "/api/sweep", staffSweeper, http.StatusForbidden},
		{"sweep report needs admin portal", "GET", "/api/sweep/last", staffSweeper, http.StatusForbidden},
		{"complete needs cashier portal", "POST", "/api/receipts/r1/complete", staffPoster, http.StatusForbidden},
		{"cashier reaches complete", "POST", "/api/receipts/r1/complete", cashier, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil)
			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (%s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_ReceiptToLedger(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, []auth.Portal{auth.PortalAdmin})

	rec := s.do(t, "POST", "/api/wallets", admin, map[string]interface{}{
		"client_id": "client-1", "name": "Main", "type": "business", "is_default": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wallet = %d: %s", rec.Code, rec.Body.String())
	}
	walletID := decodeBody(t, rec)["id"].(string)

	rec = s.do(t, "POST", "/api/receipts", admin, map[string]interface{}{
		"client_id": "client-1", "total_amount": "50.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create receipt = %d: %s", rec.Code, rec.Body.String())
	}
	receiptID := decodeBody(t, rec)["id"].(string)

	rec = s.do(t, "POST", "/api/receipts/"+receiptID+"/complete", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete = %d: %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, "POST", "/api/receipts/"+receiptID+"/complete", admin, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second complete = %d, want 409", rec.Code)
	}

	rec = s.do(t, "GET", "/api/wallets/"+walletID+"/entries", admin, nil)
	var entries []map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &entries)
	if len(entries) != 1 {
		t.Fatalf("entries = %s, want one", rec.Body.String())
	}

	rec = s.do(t, "GET", "/api/wallets/"+walletID+"/verify", admin, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("verify = %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, "GET", "/api/wallets/"+walletID+"/statement.pdf", admin, nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("statement.pdf = %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Error("statement.pdf body is not a PDF")
	}

	rec = s.do(t, "POST", "/api/wallets/"+walletID+"/statement/archive", admin, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("archive without bucket = %d, want 400", rec.Code)
	}
}

func TestRouter_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, []auth.Portal{auth.PortalAdmin})

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"receipt with both client and customer", "/api/receipts", map[string]interface{}{
			"client_id": "c1", "customer_name": "Asha", "total_amount": "10",
		}, http.StatusBadRequest},
		{"receipt totals diverge", "/api/receipts", map[string]interface{}{
			"customer_name": "Asha", "total_amount": "50", "total": "60",
		}, http.StatusConflict},
		{"cost with bad pattern", "/api/costs", map[string]interface{}{
			"client_id": "c1", "title": "Rent", "amount": "10", "due_date": "2024-01-31",
			"is_recurring": true, "recurring_pattern": "fortnightly",
		}, http.StatusBadRequest},
		{"malformed body", "/api/bookings", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", tt.path, admin, tt.body)
			if rec.Code != tt.want {
				t.Errorf("POST %s = %d, want %d (%s)", tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_Sweep(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, []auth.Portal{auth.PortalAdmin}, auth.PermSweepRun)

	if rec := s.do(t, "GET", "/api/sweep/last", tok, nil); rec.Code != http.StatusNotFound {
		t.Errorf("last report before any sweep = %d, want 404", rec.Code)
	}
	rec := s.do(t, "POST", "/api/sweep", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sweep = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := s.do(t, "GET", "/api/sweep/last", tok, nil); rec.Code != http.StatusOK {
		t.Errorf("last report = %d, want 200", rec.Code)
	}
}
