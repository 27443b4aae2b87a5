package memstore

import (
	"context"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

// ---- wallets ----

type walletRepo struct{ repos }

func (r walletRepo) Create(ctx context.Context, w *models.Wallet) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.wallet(w.ID); ok {
			return fmt.Errorf("wallet %s: %w", w.ID, models.ErrConflict)
		}
		t.wallets[w.ID] = *w
		return nil
	})
}

func (r walletRepo) Get(ctx context.Context, id string) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.read(func(t *memTx) error {
		w, ok := t.wallet(id)
		if !ok {
			return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
		}
		out = &w
		return nil
	})
	return out, err
}

// GetForUpdate needs no row lock: transactions are already serialized.
func (r walletRepo) GetForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	return r.Get(ctx, id)
}

func (r walletRepo) GetDefault(ctx context.Context, clientID string) (*models.Wallet, error) {
	var out *models.Wallet
	err := r.read(func(t *memTx) error {
		for _, w := range t.allWallets() {
			if w.ClientID == clientID && w.IsDefault && w.IsActive {
				w := w
				out = &w
				return nil
			}
		}
		return fmt.Errorf("default wallet for client %s: %w", clientID, models.ErrNotFound)
	})
	return out, err
}

func (r walletRepo) ListByClient(ctx context.Context, clientID string) ([]models.Wallet, error) {
	var out []models.Wallet
	err := r.read(func(t *memTx) error {
		for _, w := range t.allWallets() {
			if w.ClientID == clientID {
				out = append(out, w)
			}
		}
		return nil
	})
	sortWallets(out)
	return out, err
}

func (r walletRepo) SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error {
	return r.write(ctx, func(t *memTx) error {
		w, ok := t.wallet(id)
		if !ok {
			return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
		}
		w.Balance = models.NewMoney(balance, w.Balance.Currency)
		w.UpdatedAt = at
		t.wallets[id] = w
		return nil
	})
}

func (r walletRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	return r.write(ctx, func(t *memTx) error {
		w, ok := t.wallet(id)
		if !ok {
			return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
		}
		w.IsActive = active
		w.UpdatedAt = at
		t.wallets[id] = w
		return nil
	})
}

// ---- ledger ----

type ledgerRepo struct{ repos }

func (r ledgerRepo) Append(ctx context.Context, e *models.LedgerEntry) error {
	return r.write(ctx, func(t *memTx) error {
		if existing, ok := t.source(e.Source); ok {
			return fmt.Errorf("%s already posted as entry %s: %w", e.Source, existing, models.ErrDuplicatePosting)
		}
		if _, ok := t.entry(e.ID); ok {
			return fmt.Errorf("entry %s: %w", e.ID, models.ErrConflict)
		}
		t.entries = append(t.entries, *e)
		t.sources[e.Source] = e.ID
		return nil
	})
}

func (r ledgerRepo) GetBySource(ctx context.Context, src models.SourceRef) (*models.LedgerEntry, error) {
	var out *models.LedgerEntry
	err := r.read(func(t *memTx) error {
		id, ok := t.source(src)
		if !ok {
			return fmt.Errorf("entry for %s: %w", src, models.ErrNotFound)
		}
		e, _ := t.entry(id)
		out = &e
		return nil
	})
	return out, err
}

func (r ledgerRepo) ListByWallet(ctx context.Context, walletID string) ([]models.LedgerEntry, error) {
	var out []models.LedgerEntry
	err := r.read(func(t *memTx) error {
		out = t.walletEntries(walletID)
		return nil
	})
	return out, err
}

func (r ledgerRepo) Sum(ctx context.Context, walletID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.read(func(t *memTx) error {
		for _, e := range t.walletEntries(walletID) {
			sum = sum.Add(e.Amount.Amount)
		}
		return nil
	})
	return sum, err
}

// ---- costs ----

type costRepo struct{ repos }

func (r costRepo) Create(ctx context.Context, c *models.Cost) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.cost(c.ID); ok {
			return fmt.Errorf("cost %s: %w", c.ID, models.ErrConflict)
		}
		if c.ParentCostID != nil {
			for _, other := range t.allCosts() {
				if other.ParentCostID != nil && *other.ParentCostID == *c.ParentCostID && other.DueDate.Equal(c.DueDate) {
					return fmt.Errorf("occurrence of %s on %s: %w", *c.ParentCostID, c.DueDate.Format("2006-01-02"), models.ErrConflict)
				}
			}
		}
		t.costs[c.ID] = *c
		return nil
	})
}

func (r costRepo) Get(ctx context.Context, id string) (*models.Cost, error) {
	var out *models.Cost
	err := r.read(func(t *memTx) error {
		c, ok := t.cost(id)
		if !ok {
			return fmt.Errorf("cost %s: %w", id, models.ErrNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r costRepo) GetForUpdate(ctx context.Context, id string) (*models.Cost, error) {
	return r.Get(ctx, id)
}

func (r costRepo) Update(ctx context.Context, c *models.Cost) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.cost(c.ID); !ok {
			return fmt.Errorf("cost %s: %w", c.ID, models.ErrNotFound)
		}
		t.costs[c.ID] = *c
		return nil
	})
}

func (r costRepo) List(ctx context.Context, filter models.CostFilter) ([]models.Cost, error) {
	var out []models.Cost
	err := r.read(func(t *memTx) error {
		for _, c := range t.allCosts() {
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			if filter.DueBefore != nil && !c.DueDate.Before(*filter.DueBefore) {
				continue
			}
			if filter.RecurringRoot && (!c.IsRecurring || c.ParentCostID != nil) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

// ---- receipts ----

type receiptRepo struct{ repos }

func (r receiptRepo) Create(ctx context.Context, rc *models.Receipt) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.receipt(rc.ID); ok {
			return fmt.Errorf("receipt %s: %w", rc.ID, models.ErrConflict)
		}
		t.receipts[rc.ID] = *rc
		return nil
	})
}

func (r receiptRepo) Get(ctx context.Context, id string) (*models.Receipt, error) {
	var out *models.Receipt
	err := r.read(func(t *memTx) error {
		rc, ok := t.receipt(id)
		if !ok {
			return fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
		}
		out = &rc
		return nil
	})
	return out, err
}

func (r receiptRepo) GetForUpdate(ctx context.Context, id string) (*models.Receipt, error) {
	return r.Get(ctx, id)
}

func (r receiptRepo) Update(ctx context.Context, rc *models.Receipt) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.receipt(rc.ID); !ok {
			return fmt.Errorf("receipt %s: %w", rc.ID, models.ErrNotFound)
		}
		t.receipts[rc.ID] = *rc
		return nil
	})
}

// ---- bookings ----

type bookingRepo struct{ repos }

func (r bookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.booking(b.ID); ok {
			return fmt.Errorf("booking %s: %w", b.ID, models.ErrConflict)
		}
		if b.ParentBookingID != nil {
			for _, other := range t.allBookings() {
				if other.ParentBookingID != nil && *other.ParentBookingID == *b.ParentBookingID && other.StartsAt.Equal(b.StartsAt) {
					return fmt.Errorf("occurrence of %s at %s: %w", *b.ParentBookingID, b.StartsAt, models.ErrConflict)
				}
			}
		}
		t.bookings[b.ID] = *b
		return nil
	})
}

func (r bookingRepo) Get(ctx context.Context, id string) (*models.Booking, error) {
	var out *models.Booking
	err := r.read(func(t *memTx) error {
		b, ok := t.booking(id)
		if !ok {
			return fmt.Errorf("booking %s: %w", id, models.ErrNotFound)
		}
		out = &b
		return nil
	})
	return out, err
}

func (r bookingRepo) GetForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	return r.Get(ctx, id)
}

func (r bookingRepo) Update(ctx context.Context, b *models.Booking) error {
	return r.write(ctx, func(t *memTx) error {
		if _, ok := t.booking(b.ID); !ok {
			return fmt.Errorf("booking %s: %w", b.ID, models.ErrNotFound)
		}
		t.bookings[b.ID] = *b
		return nil
	})
}

func (r bookingRepo) ListRecurringRoots(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	err := r.read(func(t *memTx) error {
		for _, b := range t.allBookings() {
			if b.IsRecurring && b.ParentBookingID == nil {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}

func (r bookingRepo) ListChildren(ctx context.Context, rootID string) ([]models.Booking, error) {
	var out []models.Booking
	err := r.read(func(t *memTx) error {
		for _, b := range t.allBookings() {
			if b.ParentBookingID != nil && *b.ParentBookingID == rootID {
				out = append(out, b)
			}
		}
		return nil
	})
	return out, err
}
