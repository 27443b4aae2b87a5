package repositories

import (
	"context"
	"fmt"

	"pos-backend/internal/models"

	"github.com/shopspring/decimal"
)

type PgLedgerRepository struct {
	DB DBTX
}

func NewLedgerRepository(db DBTX) *PgLedgerRepository {
	return &PgLedgerRepository{DB: db}
}

const entryColumns = `id, wallet_id, amount::text, currency, source_kind, source_id, COALESCE(description, ''), created_at`

func scanEntry(row interface{ Scan(...any) error }) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var amount, currency, kind string
	if err := row.Scan(&e.ID, &e.WalletID, &amount, &currency, &kind, &e.Source.ID,
		&e.Description, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Source.Kind = models.SourceKind(kind)
	if !e.Source.Kind.Valid() {
		return nil, fmt.Errorf("entry %s has unknown source kind %q: %w", e.ID, kind, models.ErrInvalidInput)
	}
	d, err := parseNumeric(amount)
	if err != nil {
		return nil, err
	}
	e.Amount = models.NewMoney(d, currency)
	return &e, nil
}

// Append inserts an entry. The unique index on (source_kind, source_id)
// rejects a second posting of the same cost or receipt.
func (r *PgLedgerRepository) Append(ctx context.Context, e *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, wallet_id, amount, currency, source_kind, source_id, description, created_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)
	`
	_, err := r.DB.Exec(ctx, query, e.ID, e.WalletID, e.Amount.Amount.String(), e.Amount.Currency,
		string(e.Source.Kind), e.Source.ID, e.Description, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", mapPgError(err))
	}
	return nil
}

func (r *PgLedgerRepository) GetBySource(ctx context.Context, src models.SourceRef) (*models.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE source_kind = $1 AND source_id = $2`
	e, err := scanEntry(r.DB.QueryRow(ctx, query, string(src.Kind), src.ID))
	if err != nil {
		return nil, notFound(err, "entry for", src.String())
	}
	return e, nil
}

// ListByWallet returns all entries for a wallet in posting order
func (r *PgLedgerRepository) ListByWallet(ctx context.Context, walletID string) ([]models.LedgerEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE wallet_id = $1 ORDER BY seq`
	rows, err := r.DB.Query(ctx, query, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Sum returns the balance implied by the wallet's entries
func (r *PgLedgerRepository) Sum(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var sum string
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM ledger_entries WHERE wallet_id = $1`,
		walletID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return parseNumeric(sum)
}
