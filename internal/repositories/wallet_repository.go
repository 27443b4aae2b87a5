package repositories

import (
	"context"
	"fmt"
	"time"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type PgWalletRepository struct {
	DB DBTX
}

func NewWalletRepository(db DBTX) *PgWalletRepository {
	return &PgWalletRepository{DB: db}
}

const walletColumns = `id, client_id, name, balance::text, currency, type, is_active, is_default, created_at, updated_at`

func scanWallet(row interface{ Scan(...any) error }) (*models.Wallet, error) {
	var w models.Wallet
	var balance, currency, walletType string
	if err := row.Scan(&w.ID, &w.ClientID, &w.Name, &balance, &currency, &walletType,
		&w.IsActive, &w.IsDefault, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Type = models.WalletType(walletType)
	amount, err := parseNumeric(balance)
	if err != nil {
		return nil, err
	}
	if !w.Type.Valid() {
		return nil, fmt.Errorf("wallet %s has unknown type %q: %w", w.ID, w.Type, models.ErrInvalidInput)
	}
	w.Balance = models.NewMoney(amount, currency)
	return &w, nil
}

// Create inserts a wallet. Balance always starts at zero in storage, the
// ledger owns it from then on.
func (r *PgWalletRepository) Create(ctx context.Context, w *models.Wallet) error {
	query := `
		INSERT INTO wallets (id, client_id, name, balance, currency, type, is_active, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.DB.Exec(ctx, query, w.ID, w.ClientID, w.Name, w.Currency(), string(w.Type),
		w.IsActive, w.IsDefault, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", mapPgError(err))
	}
	return nil
}

func (r *PgWalletRepository) Get(ctx context.Context, id string) (*models.Wallet, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
	w, err := scanWallet(row)
	if err != nil {
		return nil, notFound(err, "wallet", id)
	}
	return w, nil
}

func (r *PgWalletRepository) GetForUpdate(ctx context.Context, id string) (*models.Wallet, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
	w, err := scanWallet(row)
	if err != nil {
		return nil, notFound(err, "wallet", id)
	}
	return w, nil
}

func (r *PgWalletRepository) GetDefault(ctx context.Context, clientID string) (*models.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets
		WHERE client_id = $1 AND is_default AND is_active
		ORDER BY created_at LIMIT 1`
	w, err := scanWallet(r.DB.QueryRow(ctx, query, clientID))
	if err != nil {
		return nil, notFound(err, "default wallet for client", clientID)
	}
	return w, nil
}

func (r *PgWalletRepository) ListByClient(ctx context.Context, clientID string) ([]models.Wallet, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE client_id = $1 ORDER BY created_at, id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, *w)
	}
	return wallets, rows.Err()
}

func (r *PgWalletRepository) SetBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE wallets SET balance = $2::numeric, updated_at = $3 WHERE id = $1`, id, balance.String(), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *PgWalletRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE wallets SET is_active = $2, updated_at = $3 WHERE id = $1`, id, active, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet %s: %w", id, models.ErrNotFound)
	}
	return nil
}
