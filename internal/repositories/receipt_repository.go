package repositories

import (
	"context"
	"fmt"

	"pos-backend/internal/models"
)

type PgReceiptRepository struct {
	DB DBTX
}

func NewReceiptRepository(db DBTX) *PgReceiptRepository {
	return &PgReceiptRepository{DB: db}
}

const receiptColumns = `id, client_id, COALESCE(customer_name, ''), COALESCE(customer_email, ''),
	COALESCE(customer_phone, ''), COALESCE(customer_address, ''), total_amount::text, total::text,
	currency, order_status, source, ledger_entry_id, created_at, updated_at`

func scanReceipt(row interface{ Scan(...any) error }) (*models.Receipt, error) {
	var rc models.Receipt
	var clientID, entryID *string
	var totalAmount, total, currency, status, source string
	if err := row.Scan(&rc.ID, &clientID, &rc.Name, &rc.Email, &rc.Phone, &rc.Address,
		&totalAmount, &total, &currency, &status, &source, &entryID,
		&rc.CreatedAt, &rc.UpdatedAt); err != nil {
		return nil, err
	}

	amount, err := parseNumeric(totalAmount)
	if err != nil {
		return nil, err
	}
	legacy, err := parseNumeric(total)
	if err != nil {
		return nil, err
	}
	// Read both columns as stored; CheckTotals decides whether they agree.
	rc.TotalAmount = models.NewMoney(amount, currency)
	rc.LegacyTotal = legacy
	rc.ClientID = derefString(clientID)
	rc.LedgerEntryID = derefString(entryID)

	rc.Status = models.OrderStatus(status)
	if !rc.Status.Valid() {
		return nil, fmt.Errorf("receipt %s has unknown status %q: %w", rc.ID, status, models.ErrInvalidInput)
	}
	rc.Source = models.OrderSource(source)
	if !rc.Source.Valid() {
		return nil, fmt.Errorf("receipt %s has unknown source %q: %w", rc.ID, source, models.ErrInvalidInput)
	}
	return &rc, nil
}

func (r *PgReceiptRepository) Create(ctx context.Context, rc *models.Receipt) error {
	query := `
		INSERT INTO receipts (id, client_id, customer_name, customer_email, customer_phone, customer_address,
			total_amount, total, currency, order_status, source, ledger_entry_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.DB.Exec(ctx, query, rc.ID, nullableString(rc.ClientID),
		nullableString(rc.Name), nullableString(rc.Email), nullableString(rc.Phone), nullableString(rc.Address),
		rc.TotalAmount.Amount.String(), rc.LegacyTotal.String(), rc.TotalAmount.Currency,
		string(rc.Status), string(rc.Source), nullableString(rc.LedgerEntryID), rc.CreatedAt, rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", mapPgError(err))
	}
	return nil
}

func (r *PgReceiptRepository) Get(ctx context.Context, id string) (*models.Receipt, error) {
	rc, err := scanReceipt(r.DB.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "receipt", id)
	}
	return rc, nil
}

func (r *PgReceiptRepository) GetForUpdate(ctx context.Context, id string) (*models.Receipt, error) {
	rc, err := scanReceipt(r.DB.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "receipt", id)
	}
	return rc, nil
}

// Update persists a lifecycle change. Totals are written together so the
// columns cannot drift through this path.
func (r *PgReceiptRepository) Update(ctx context.Context, rc *models.Receipt) error {
	query := `
		UPDATE receipts SET order_status = $2, ledger_entry_id = $3,
			total_amount = $4::numeric, total = $5::numeric, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.DB.Exec(ctx, query, rc.ID, string(rc.Status), nullableString(rc.LedgerEntryID),
		rc.TotalAmount.Amount.String(), rc.LegacyTotal.String(), rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update receipt: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("receipt %s: %w", rc.ID, models.ErrNotFound)
	}
	return nil
}
