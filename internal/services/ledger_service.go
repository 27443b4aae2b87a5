package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"pos-backend/internal/locks"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/internal/timeutil"

	"github.com/google/uuid"
)

// WalletCache is an optional read-through cache of wallet rows. The ledger
// invalidates an entry after every committed change to that wallet.
type WalletCache interface {
	GetWallet(ctx context.Context, id string) (*models.Wallet, bool)
	SetWallet(ctx context.Context, w *models.Wallet)
	InvalidateWallet(ctx context.Context, id string)
}

// LedgerConfig carries the ledger settings from config
type LedgerConfig struct {
	HouseWalletID   string
	DefaultCurrency string
}

// LedgerService owns wallet balances. A balance is only ever written here, as
// the sum of the wallet's entries, inside the transaction that appends to it.
type LedgerService struct {
	Store  repositories.Store
	Locks  locks.Locker
	Clock  timeutil.Clock
	Cache  WalletCache
	Config LedgerConfig
}

func NewLedgerService(store repositories.Store, locker locks.Locker, clock timeutil.Clock, cfg LedgerConfig) *LedgerService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "INR"
	}
	cfg.DefaultCurrency = strings.ToUpper(cfg.DefaultCurrency)
	return &LedgerService{Store: store, Locks: locker, Clock: clock, Config: cfg}
}

// CreateWallet opens a zero-balance wallet. A client has at most one active
// default wallet.
func (s *LedgerService) CreateWallet(ctx context.Context, req *models.CreateWalletRequest) (*models.Wallet, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, fmt.Errorf("%w: wallet needs a client", models.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: wallet needs a name", models.ErrInvalidInput)
	}
	walletType := models.WalletTypeCustom
	if req.Type != "" {
		t, err := models.ParseWalletType(req.Type)
		if err != nil {
			return nil, err
		}
		walletType = t
	}
	currency := req.Currency
	if currency == "" {
		currency = s.Config.DefaultCurrency
	}
	if len(strings.TrimSpace(currency)) != 3 {
		return nil, fmt.Errorf("%w: currency %q", models.ErrInvalidInput, currency)
	}

	now := s.Clock.Now()
	w := &models.Wallet{
		ID:        uuid.NewString(),
		ClientID:  req.ClientID,
		Name:      strings.TrimSpace(req.Name),
		Balance:   models.Zero(currency),
		Type:      walletType,
		IsActive:  true,
		IsDefault: req.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		if w.IsDefault {
			existing, err := tx.Wallets().GetDefault(ctx, w.ClientID)
			switch {
			case err == nil:
				return fmt.Errorf("%w: client %s already has default wallet %s", models.ErrConflict, w.ClientID, existing.ID)
			case !errors.Is(err, models.ErrNotFound):
				return err
			}
		}
		return tx.Wallets().Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Ledger] Wallet %s created for client %s (%s, default=%t)", w.ID, w.ClientID, w.Currency(), w.IsDefault)
	return w, nil
}

// DeactivateWallet soft-deletes a wallet. Its entries stay; new postings
// fail with ErrUnknownWallet.
func (s *LedgerService) DeactivateWallet(ctx context.Context, id string) error {
	unlock, err := s.Locks.Lock(ctx, locks.WalletKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		w, err := tx.Wallets().GetForUpdate(ctx, id)
		if err != nil {
			return walletErr(id, err)
		}
		if !w.IsActive {
			return nil
		}
		return tx.Wallets().SetActive(ctx, id, false, s.Clock.Now())
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	log.Printf("[Ledger] Wallet %s deactivated", id)
	return nil
}

func (s *LedgerService) GetWallet(ctx context.Context, id string) (*models.Wallet, error) {
	if s.Cache != nil {
		if w, ok := s.Cache.GetWallet(ctx, id); ok {
			return w, nil
		}
	}
	w, err := s.Store.Wallets().Get(ctx, id)
	if err != nil {
		return nil, walletErr(id, err)
	}
	if s.Cache != nil {
		s.Cache.SetWallet(ctx, w)
	}
	return w, nil
}

func (s *LedgerService) ListWallets(ctx context.Context, clientID string) ([]models.Wallet, error) {
	return s.Store.Wallets().ListByClient(ctx, clientID)
}

// Post appends a signed entry for source to the wallet and recomputes its
// balance, atomically and under the wallet lock.
func (s *LedgerService) Post(ctx context.Context, walletID string, amount models.Money, src models.SourceRef, description string) (string, error) {
	unlock, err := s.Locks.Lock(ctx, locks.WalletKey(walletID))
	if err != nil {
		return "", err
	}
	defer unlock()

	var entry *models.LedgerEntry
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		var err error
		entry, err = s.postTx(ctx, tx, walletID, amount, src, description)
		return err
	})
	s.recordPost(src, err)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, walletID)
	return entry.ID, nil
}

// postTx is the posting step shared with the cost and receipt flows. The
// caller holds the wallet lock and commits tx.
func (s *LedgerService) postTx(ctx context.Context, tx repositories.Repos, walletID string, amount models.Money, src models.SourceRef, description string) (*models.LedgerEntry, error) {
	if !src.Kind.Valid() || src.ID == "" {
		return nil, fmt.Errorf("%w: ledger source %q", models.ErrInvalidInput, src)
	}

	w, err := tx.Wallets().GetForUpdate(ctx, walletID)
	if err != nil {
		return nil, walletErr(walletID, err)
	}
	if !w.IsActive {
		return nil, fmt.Errorf("%w: wallet %s is inactive", models.ErrUnknownWallet, walletID)
	}
	if amount.Currency != w.Currency() {
		return nil, fmt.Errorf("%w: %s entry for %s wallet %s", models.ErrCurrencyMismatch,
			amount.Currency, w.Currency(), walletID)
	}

	if existing, err := tx.Ledger().GetBySource(ctx, src); err == nil {
		return nil, fmt.Errorf("%w: %s already posted as entry %s", models.ErrDuplicatePosting, src, existing.ID)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := s.Clock.Now()
	entry := &models.LedgerEntry{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		Amount:      amount,
		Source:      src,
		Description: description,
		CreatedAt:   now,
	}
	if err := tx.Ledger().Append(ctx, entry); err != nil {
		return nil, err
	}

	sum, err := tx.Ledger().Sum(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("sum entries of wallet %s: %w", walletID, err)
	}
	if err := tx.Wallets().SetBalance(ctx, walletID, sum, now); err != nil {
		return nil, fmt.Errorf("store balance of wallet %s: %w", walletID, err)
	}
	return entry, nil
}

// Balance returns the cached balance without taking any lock.
func (s *LedgerService) Balance(ctx context.Context, walletID string) (models.Money, error) {
	w, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return models.Money{}, err
	}
	return w.Balance, nil
}

// VerifyBalance compares the stored balance with the sum of entries read in
// the same transaction. It returns ErrBalanceDrift when they differ.
func (s *LedgerService) VerifyBalance(ctx context.Context, walletID string) error {
	return s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		w, err := tx.Wallets().Get(ctx, walletID)
		if err != nil {
			return walletErr(walletID, err)
		}
		sum, err := tx.Ledger().Sum(ctx, walletID)
		if err != nil {
			return err
		}
		if !sum.Equal(w.Balance.Amount) {
			metrics.LedgerBalanceDrift.Inc()
			log.Printf("[Ledger] Balance drift on wallet %s: stored=%s entries=%s", walletID, w.Balance.Amount, sum)
			return fmt.Errorf("%w: wallet %s stored %s, entries sum to %s", models.ErrBalanceDrift,
				walletID, w.Balance.Amount.String(), sum.String())
		}
		return nil
	})
}

// Entries lists a wallet's entries oldest first.
func (s *LedgerService) Entries(ctx context.Context, walletID string) ([]models.LedgerEntry, error) {
	if _, err := s.Store.Wallets().Get(ctx, walletID); err != nil {
		return nil, walletErr(walletID, err)
	}
	return s.Store.Ledger().ListByWallet(ctx, walletID)
}

// Statement returns the wallet with its entries and running balances, read
// from one snapshot.
func (s *LedgerService) Statement(ctx context.Context, walletID string) (*models.Wallet, []models.StatementLine, error) {
	var w *models.Wallet
	var entries []models.LedgerEntry
	err := s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		var err error
		if w, err = tx.Wallets().Get(ctx, walletID); err != nil {
			return walletErr(walletID, err)
		}
		entries, err = tx.Ledger().ListByWallet(ctx, walletID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	lines, err := models.BuildStatement(w.Currency(), entries)
	if err != nil {
		return nil, nil, err
	}
	return w, lines, nil
}

// resolveWallet picks the wallet a cost or receipt posts to: the designated
// wallet, else the client's default, else the house wallet for anonymous
// buyers.
func (s *LedgerService) resolveWallet(ctx context.Context, repos repositories.Repos, clientID, walletID string) (string, error) {
	if walletID != "" {
		return walletID, nil
	}
	if strings.TrimSpace(clientID) == "" {
		if s.Config.HouseWalletID == "" {
			return "", fmt.Errorf("%w: no house wallet configured for anonymous orders", models.ErrUnknownWallet)
		}
		return s.Config.HouseWalletID, nil
	}
	w, err := repos.Wallets().GetDefault(ctx, clientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", fmt.Errorf("%w: client %s has no active default wallet", models.ErrUnknownWallet, clientID)
		}
		return "", err
	}
	return w.ID, nil
}

func (s *LedgerService) invalidate(ctx context.Context, walletID string) {
	if s.Cache != nil {
		s.Cache.InvalidateWallet(ctx, walletID)
	}
}

func (s *LedgerService) recordPost(src models.SourceRef, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrDuplicatePosting):
		result = "duplicate"
	default:
		result = "error"
	}
	metrics.LedgerPostings.WithLabelValues(string(src.Kind), result).Inc()
}

func walletErr(id string, err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: wallet %s", models.ErrUnknownWallet, id)
	}
	return err
}
