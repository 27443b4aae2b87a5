package services

import (
	"context"
	"testing"
	"time"

	"pos-backend/internal/locks"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories/memstore"
	"pos-backend/internal/timeutil"

	"github.com/shopspring/decimal"
)

// engine wires every service against one in-memory store.
type engine struct {
	store       *memstore.Store
	clock       *timeutil.FixedClock
	ledger      *LedgerService
	costs       *CostService
	receipts    *ReceiptService
	recurrence  *RecurrenceService
	bookings    *BookingService
	coordinator *Coordinator
}

func newEngine(t *testing.T, cfg LedgerConfig) *engine {
	t.Helper()
	store := memstore.New()
	locker := locks.NewLocal()
	clock := timeutil.NewFixedClock(time.Date(2024, 4, 15, 9, 0, 0, 0, time.UTC))
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}

	ledger := NewLedgerService(store, locker, clock, cfg)
	costs := NewCostService(store, locker, clock, ledger)
	receipts := NewReceiptService(store, locker, clock, ledger)
	rec := NewRecurrenceService(store, locker, clock)
	return &engine{
		store:       store,
		clock:       clock,
		ledger:      ledger,
		costs:       costs,
		receipts:    receipts,
		recurrence:  rec,
		bookings:    NewBookingService(store, clock),
		coordinator: NewCoordinator(store, receipts, costs, rec, 4),
	}
}

func (e *engine) wallet(t *testing.T, clientID string, isDefault bool) *models.Wallet {
	t.Helper()
	w, err := e.ledger.CreateWallet(context.Background(), &models.CreateWalletRequest{
		ClientID:  clientID,
		Name:      "Main",
		Type:      "business",
		IsDefault: isDefault,
	})
	if err != nil {
		t.Fatalf("CreateWallet() error: %v", err)
	}
	return w
}

func (e *engine) balance(t *testing.T, walletID string) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.Balance(context.Background(), walletID)
	if err != nil {
		t.Fatalf("Balance(%s) error: %v", walletID, err)
	}
	return b.Amount
}

func (e *engine) entries(t *testing.T, walletID string) []models.LedgerEntry {
	t.Helper()
	entries, err := e.ledger.Entries(context.Background(), walletID)
	if err != nil {
		t.Fatalf("Entries(%s) error: %v", walletID, err)
	}
	return entries
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
