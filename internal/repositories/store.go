package repositories

import (
	"context"
	"time"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

// The repository interfaces below are the storage contract of the engine.
// Implementations return models.ErrNotFound for missing rows,
// models.ErrDuplicatePosting when a ledger source is posted twice and
// models.ErrConflict for other uniqueness violations. The engine does not
// trust column constraints and re-validates every invariant itself.

type WalletRepository interface {
	Create(ctx context.Context, w *models.Wallet) error
	Get(ctx context.Context, id string) (*models.Wallet, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Wallet, error)
	GetDefault(ctx context.Context, clientID string) (*models.Wallet, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Wallet, error)
	SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error
	SetActive(ctx context.Context, id string, active bool, at time.Time) error
}

type LedgerRepository interface {
	Append(ctx context.Context, e *models.LedgerEntry) error
	GetBySource(ctx context.Context, src models.SourceRef) (*models.LedgerEntry, error)
	// ListByWallet returns entries oldest first.
	ListByWallet(ctx context.Context, walletID string) ([]models.LedgerEntry, error)
	Sum(ctx context.Context, walletID string) (decimal.Decimal, error)
}

type CostRepository interface {
	Create(ctx context.Context, c *models.Cost) error
	Get(ctx context.Context, id string) (*models.Cost, error)
	GetForUpdate(ctx context.Context, id string) (*models.Cost, error)
	Update(ctx context.Context, c *models.Cost) error
	List(ctx context.Context, filter models.CostFilter) ([]models.Cost, error)
}

type ReceiptRepository interface {
	Create(ctx context.Context, r *models.Receipt) error
	Get(ctx context.Context, id string) (*models.Receipt, error)
	GetForUpdate(ctx context.Context, id string) (*models.Receipt, error)
	Update(ctx context.Context, r *models.Receipt) error
}

type BookingRepository interface {
	Create(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	GetForUpdate(ctx context.Context, id string) (*models.Booking, error)
	Update(ctx context.Context, b *models.Booking) error
	ListRecurringRoots(ctx context.Context) ([]models.Booking, error)
	ListChildren(ctx context.Context, rootID string) ([]models.Booking, error)
}

// Repos groups the repositories bound to one connection or transaction.
type Repos interface {
	Wallets() WalletRepository
	Ledger() LedgerRepository
	Costs() CostRepository
	Receipts() ReceiptRepository
	Bookings() BookingRepository
}

// Store is the storage collaborator. Reads through the embedded Repos see
// committed data only; WithTx runs fn against repositories bound to a single
// transaction and commits when fn returns nil.
type Store interface {
	Repos
	WithTx(ctx context.Context, fn func(tx Repos) error) error
}
