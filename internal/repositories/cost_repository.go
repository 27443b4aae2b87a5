package repositories

import (
	"context"
	"fmt"
	"strings"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

type PgCostRepository struct {
	DB DBTX
}

func NewCostRepository(db DBTX) *PgCostRepository {
	return &PgCostRepository{DB: db}
}

const costColumns = `id, client_id, wallet_id, title, amount::text, currency, COALESCE(category, ''),
	COALESCE(payment_method, ''), status, due_date, is_recurring, recurring_pattern,
	recurrence_end_date, last_generated_date, parent_cost_id, ledger_entry_id, paid_at,
	created_at, updated_at`

func scanCost(row interface{ Scan(...any) error }) (*models.Cost, error) {
	var c models.Cost
	var walletID, entryID *string
	var amount, currency, status string
	var rec recurrenceRow

	targets := []any{&c.ID, &c.ClientID, &walletID, &c.Title, &amount, &currency, &c.Category,
		&c.PaymentMethod, &status, &c.DueDate}
	targets = append(targets, rec.targets()...)
	targets = append(targets, &c.ParentCostID, &entryID, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	d, err := parseNumeric(amount)
	if err != nil {
		return nil, err
	}
	c.Amount = models.NewMoney(d, currency)
	c.DueDate = timeutil.InLocation(c.DueDate)
	c.WalletID = derefString(walletID)
	c.LedgerEntryID = derefString(entryID)
	c.Status = models.CostStatus(status)
	if !c.Status.Valid() {
		return nil, fmt.Errorf("cost %s has unknown status %q: %w", c.ID, status, models.ErrInvalidInput)
	}
	if c.Recurrence, err = rec.model(); err != nil {
		return nil, fmt.Errorf("cost %s: %w", c.ID, err)
	}
	return &c, nil
}

func (r *PgCostRepository) Create(ctx context.Context, c *models.Cost) error {
	query := `
		INSERT INTO costs (id, client_id, wallet_id, title, amount, currency, category, payment_method,
			status, due_date, is_recurring, recurring_pattern, recurrence_end_date, last_generated_date,
			parent_cost_id, ledger_entry_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	args := []any{c.ID, c.ClientID, nullableString(c.WalletID), c.Title, c.Amount.Amount.String(),
		c.Amount.Currency, c.Category, c.PaymentMethod, string(c.Status), c.DueDate}
	args = append(args, recurrenceArgs(c.Recurrence)...)
	args = append(args, c.ParentCostID, nullableString(c.LedgerEntryID), c.PaidAt, c.CreatedAt, c.UpdatedAt)

	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create cost: %w", mapPgError(err))
	}
	return nil
}

func (r *PgCostRepository) Get(ctx context.Context, id string) (*models.Cost, error) {
	c, err := scanCost(r.DB.QueryRow(ctx, `SELECT `+costColumns+` FROM costs WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "cost", id)
	}
	return c, nil
}

func (r *PgCostRepository) GetForUpdate(ctx context.Context, id string) (*models.Cost, error) {
	c, err := scanCost(r.DB.QueryRow(ctx, `SELECT `+costColumns+` FROM costs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "cost", id)
	}
	return c, nil
}

// Update writes the mutable columns: status, settlement and the watermark.
func (r *PgCostRepository) Update(ctx context.Context, c *models.Cost) error {
	query := `
		UPDATE costs SET status = $2, ledger_entry_id = $3, paid_at = $4,
			last_generated_date = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.DB.Exec(ctx, query, c.ID, string(c.Status), nullableString(c.LedgerEntryID),
		c.PaidAt, c.LastGeneratedDate, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update cost: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cost %s: %w", c.ID, models.ErrNotFound)
	}
	return nil
}

func (r *PgCostRepository) List(ctx context.Context, filter models.CostFilter) ([]models.Cost, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DueBefore != nil {
		args = append(args, *filter.DueBefore)
		where = append(where, fmt.Sprintf("due_date < $%d", len(args)))
	}
	if filter.RecurringRoot {
		where = append(where, "is_recurring AND parent_cost_id IS NULL")
	}

	query := `SELECT ` + costColumns + ` FROM costs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY due_date, id`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var costs []models.Cost
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		costs = append(costs, *c)
	}
	return costs, rows.Err()
}
