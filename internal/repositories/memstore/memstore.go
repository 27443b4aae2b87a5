// Package memstore is an in-process implementation of repositories.Store.
// Transactions are serialized and published under a write lock, so readers
// always see whole commits. It backs the tests and embedded deployments that
// run without Postgres.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
)

type state struct {
	wallets  map[string]models.Wallet
	entries  map[string]models.LedgerEntry
	byWallet map[string][]string
	sources  map[models.SourceRef]string
	costs    map[string]models.Cost
	receipts map[string]models.Receipt
	bookings map[string]models.Booking
}

func newState() *state {
	return &state{
		wallets:  make(map[string]models.Wallet),
		entries:  make(map[string]models.LedgerEntry),
		byWallet: make(map[string][]string),
		sources:  make(map[models.SourceRef]string),
		costs:    make(map[string]models.Cost),
		receipts: make(map[string]models.Receipt),
		bookings: make(map[string]models.Booking),
	}
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: newState()}
}

// WithTx stages every write of fn and publishes them together. Writers are
// serialized; readers keep going against the last commit.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := newTx(s.data)
	if err := fn(repos{s: s, tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	tx.commit()
	s.mu.Unlock()
	return nil
}

func (s *Store) Wallets() repositories.WalletRepository   { return walletRepo{repos{s: s}} }
func (s *Store) Ledger() repositories.LedgerRepository    { return ledgerRepo{repos{s: s}} }
func (s *Store) Costs() repositories.CostRepository       { return costRepo{repos{s: s}} }
func (s *Store) Receipts() repositories.ReceiptRepository { return receiptRepo{repos{s: s}} }
func (s *Store) Bookings() repositories.BookingRepository { return bookingRepo{repos{s: s}} }

// CorruptReceiptTotal overwrites the legacy total column the way an outside
// writer could. It exists for reconciliation tests.
func (s *Store) CorruptReceiptTotal(id string, total string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.receipts[id]
	if !ok {
		return fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}
	r.LegacyTotal = models.MustMoney(total, r.TotalAmount.Currency).Amount
	s.data.receipts[id] = r
	return nil
}

// CorruptReceiptCustomer replaces the stored buyer contact without the
// create-time customer checks.
func (s *Store) CorruptReceiptCustomer(id string, contact models.CustomerContact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.receipts[id]
	if !ok {
		return fmt.Errorf("receipt %s: %w", id, models.ErrNotFound)
	}
	r.CustomerContact = contact
	s.data.receipts[id] = r
	return nil
}

// CorruptWalletBalance overwrites a cached balance, bypassing the ledger.
func (s *Store) CorruptWalletBalance(id string, balance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.data.wallets[id]
	if !ok {
		return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
	}
	w.Balance = models.MustMoney(balance, w.Balance.Currency)
	s.data.wallets[id] = w
	return nil
}

// repos binds the repositories either to a running transaction or, when tx
// is nil, to the committed state with one implicit transaction per write.
type repos struct {
	s  *Store
	tx *memTx
}

func (r repos) Wallets() repositories.WalletRepository   { return walletRepo{r} }
func (r repos) Ledger() repositories.LedgerRepository    { return ledgerRepo{r} }
func (r repos) Costs() repositories.CostRepository       { return costRepo{r} }
func (r repos) Receipts() repositories.ReceiptRepository { return receiptRepo{r} }
func (r repos) Bookings() repositories.BookingRepository { return bookingRepo{r} }

func (r repos) read(fn func(t *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return fn(newTx(r.s.data))
}

func (r repos) write(ctx context.Context, fn func(t *memTx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.WithTx(ctx, func(tx repositories.Repos) error {
		return fn(tx.(repos).tx)
	})
}

// memTx overlays staged writes on top of the committed state.
type memTx struct {
	base     *state
	wallets  map[string]models.Wallet
	entries  []models.LedgerEntry
	sources  map[models.SourceRef]string
	costs    map[string]models.Cost
	receipts map[string]models.Receipt
	bookings map[string]models.Booking
}

func newTx(base *state) *memTx {
	return &memTx{
		base:     base,
		wallets:  make(map[string]models.Wallet),
		sources:  make(map[models.SourceRef]string),
		costs:    make(map[string]models.Cost),
		receipts: make(map[string]models.Receipt),
		bookings: make(map[string]models.Booking),
	}
}

func (t *memTx) commit() {
	for id, w := range t.wallets {
		t.base.wallets[id] = w
	}
	for _, e := range t.entries {
		t.base.entries[e.ID] = e
		t.base.byWallet[e.WalletID] = append(t.base.byWallet[e.WalletID], e.ID)
	}
	for src, id := range t.sources {
		t.base.sources[src] = id
	}
	for id, c := range t.costs {
		t.base.costs[id] = c
	}
	for id, r := range t.receipts {
		t.base.receipts[id] = r
	}
	for id, b := range t.bookings {
		t.base.bookings[id] = b
	}
}

func (t *memTx) wallet(id string) (models.Wallet, bool) {
	if w, ok := t.wallets[id]; ok {
		return w, true
	}
	w, ok := t.base.wallets[id]
	return w, ok
}

func (t *memTx) allWallets() map[string]models.Wallet {
	out := make(map[string]models.Wallet, len(t.base.wallets)+len(t.wallets))
	for id, w := range t.base.wallets {
		out[id] = w
	}
	for id, w := range t.wallets {
		out[id] = w
	}
	return out
}

func (t *memTx) source(src models.SourceRef) (string, bool) {
	if id, ok := t.sources[src]; ok {
		return id, true
	}
	id, ok := t.base.sources[src]
	return id, ok
}

func (t *memTx) entry(id string) (models.LedgerEntry, bool) {
	for _, e := range t.entries {
		if e.ID == id {
			return e, true
		}
	}
	e, ok := t.base.entries[id]
	return e, ok
}

func (t *memTx) walletEntries(walletID string) []models.LedgerEntry {
	ids := t.base.byWallet[walletID]
	out := make([]models.LedgerEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.base.entries[id])
	}
	for _, e := range t.entries {
		if e.WalletID == walletID {
			out = append(out, e)
		}
	}
	return out
}

func (t *memTx) cost(id string) (models.Cost, bool) {
	if c, ok := t.costs[id]; ok {
		return c, true
	}
	c, ok := t.base.costs[id]
	return c, ok
}

func (t *memTx) allCosts() []models.Cost {
	merged := make(map[string]models.Cost, len(t.base.costs)+len(t.costs))
	for id, c := range t.base.costs {
		merged[id] = c
	}
	for id, c := range t.costs {
		merged[id] = c
	}
	out := make([]models.Cost, 0, len(merged))
	for _, c := range merged {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (t *memTx) receipt(id string) (models.Receipt, bool) {
	if r, ok := t.receipts[id]; ok {
		return r, true
	}
	r, ok := t.base.receipts[id]
	return r, ok
}

func (t *memTx) booking(id string) (models.Booking, bool) {
	if b, ok := t.bookings[id]; ok {
		return b, true
	}
	b, ok := t.base.bookings[id]
	return b, ok
}

func (t *memTx) allBookings() []models.Booking {
	merged := make(map[string]models.Booking, len(t.base.bookings)+len(t.bookings))
	for id, b := range t.base.bookings {
		merged[id] = b
	}
	for id, b := range t.bookings {
		merged[id] = b
	}
	out := make([]models.Booking, 0, len(merged))
	for _, b := range merged {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].StartsAt.Before(out[j].StartsAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortWallets(ws []models.Wallet) {
	sort.Slice(ws, func(i, j int) bool {
		if !ws[i].CreatedAt.Equal(ws[j].CreatedAt) {
			return ws[i].CreatedAt.Before(ws[j].CreatedAt)
		}
		return ws[i].ID < ws[j].ID
	})
}
