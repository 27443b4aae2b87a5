package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/repositories"

	"github.com/shopspring/decimal"
)

func seedWallet(t *testing.T, s *Store, id string) {
	t.Helper()
	w := &models.Wallet{
		ID:        id,
		ClientID:  "c1",
		Name:      "Main",
		Balance:   models.Zero("EUR"),
		Type:      models.WalletTypeBusiness,
		IsActive:  true,
		IsDefault: true,
	}
	if err := s.Wallets().Create(context.Background(), w); err != nil {
		t.Fatalf("Create wallet: %v", err)
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	s := New()
	seedWallet(t, s, "w1")
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repositories.Repos) error {
		e := &models.LedgerEntry{ID: "e1", WalletID: "w1", Amount: models.MustMoney("10", "EUR"), Source: models.ReceiptSource("r1")}
		if err := tx.Ledger().Append(ctx, e); err != nil {
			return err
		}
		if err := tx.Wallets().SetBalance(ctx, "w1", decimal.NewFromInt(10), time.Now()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	entries, _ := s.Ledger().ListByWallet(ctx, "w1")
	if len(entries) != 0 {
		t.Errorf("entries after rollback = %d, want 0", len(entries))
	}
	w, _ := s.Wallets().Get(ctx, "w1")
	if !w.Balance.IsZero() {
		t.Errorf("balance after rollback = %s, want 0", w.Balance)
	}
	if _, err := s.Ledger().GetBySource(ctx, models.ReceiptSource("r1")); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("source index leaked from rolled back tx: %v", err)
	}
}

func TestWithTx_ReadsOwnWrites(t *testing.T) {
	s := New()
	seedWallet(t, s, "w1")
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx repositories.Repos) error {
		for i, amt := range []string{"5", "7.5"} {
			e := &models.LedgerEntry{
				ID:       string(rune('a' + i)),
				WalletID: "w1",
				Amount:   models.MustMoney(amt, "EUR"),
				Source:   models.CostSource(string(rune('a' + i))),
			}
			if err := tx.Ledger().Append(ctx, e); err != nil {
				return err
			}
		}
		sum, err := tx.Ledger().Sum(ctx, "w1")
		if err != nil {
			return err
		}
		if !sum.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("in-tx Sum() = %s, want 12.5", sum)
		}
		// Not visible outside yet.
		outside, _ := s.Ledger().Sum(ctx, "w1")
		if !outside.IsZero() {
			t.Errorf("uncommitted Sum() = %s, want 0", outside)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	sum, _ := s.Ledger().Sum(ctx, "w1")
	if !sum.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("committed Sum() = %s, want 12.5", sum)
	}
}

func TestLedgerAppend_DuplicateSource(t *testing.T) {
	s := New()
	seedWallet(t, s, "w1")
	ctx := context.Background()

	first := &models.LedgerEntry{ID: "e1", WalletID: "w1", Amount: models.MustMoney("1", "EUR"), Source: models.CostSource("c1")}
	if err := s.Ledger().Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	dup := &models.LedgerEntry{ID: "e2", WalletID: "w1", Amount: models.MustMoney("1", "EUR"), Source: models.CostSource("c1")}
	if err := s.Ledger().Append(ctx, dup); !errors.Is(err, models.ErrDuplicatePosting) {
		t.Errorf("Append(dup) error = %v, want ErrDuplicatePosting", err)
	}
}

func TestCostList_Filters(t *testing.T) {
	s := New()
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	root := "root"

	costs := []models.Cost{
		{ID: "root", Status: models.CostPending, DueDate: day(1), Recurrence: models.Recurrence{IsRecurring: true, Pattern: models.PatternWeekly}},
		{ID: "child", Status: models.CostPending, DueDate: day(8), ParentCostID: &root},
		{ID: "paid", Status: models.CostPaid, DueDate: day(2)},
	}
	for i := range costs {
		if err := s.Costs().Create(ctx, &costs[i]); err != nil {
			t.Fatal(err)
		}
	}

	cutoff := day(5)
	pending, _ := s.Costs().List(ctx, models.CostFilter{Status: models.CostPending, DueBefore: &cutoff})
	if len(pending) != 1 || pending[0].ID != "root" {
		t.Errorf("pending before cutoff = %+v", pending)
	}

	roots, _ := s.Costs().List(ctx, models.CostFilter{RecurringRoot: true})
	if len(roots) != 1 || roots[0].ID != "root" {
		t.Errorf("recurring roots = %+v", roots)
	}

	dup := models.Cost{ID: "child2", Status: models.CostPending, DueDate: day(8), ParentCostID: &root}
	if err := s.Costs().Create(ctx, &dup); !errors.Is(err, models.ErrConflict) {
		t.Errorf("duplicate occurrence error = %v, want ErrConflict", err)
	}
}

func TestWithTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.WithTx(ctx, func(tx repositories.Repos) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Errorf("WithTx() = %v, called = %v", err, called)
	}
}
