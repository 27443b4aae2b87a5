package repositories

import (
	"context"
	"fmt"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

type PgBookingRepository struct {
	DB DBTX
}

func NewBookingRepository(db DBTX) *PgBookingRepository {
	return &PgBookingRepository{DB: db}
}

const bookingColumns = `id, client_id, COALESCE(title, ''), starts_at, duration_minutes, is_recurring,
	recurring_pattern, recurrence_end_date, last_generated_date, parent_booking_id, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var rec recurrenceRow
	targets := []any{&b.ID, &b.ClientID, &b.Title, &b.StartsAt, &b.DurationMinutes}
	targets = append(targets, rec.targets()...)
	targets = append(targets, &b.ParentBookingID, &b.CreatedAt)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	b.StartsAt = timeutil.InLocation(b.StartsAt)
	var err error
	if b.Recurrence, err = rec.model(); err != nil {
		return nil, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	return &b, nil
}

func (r *PgBookingRepository) Create(ctx context.Context, b *models.Booking) error {
	query := `
		INSERT INTO bookings (id, client_id, title, starts_at, duration_minutes, is_recurring,
			recurring_pattern, recurrence_end_date, last_generated_date, parent_booking_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	args := []any{b.ID, b.ClientID, b.Title, b.StartsAt, b.DurationMinutes}
	args = append(args, recurrenceArgs(b.Recurrence)...)
	args = append(args, b.ParentBookingID, b.CreatedAt)
	if _, err := r.DB.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create booking: %w", mapPgError(err))
	}
	return nil
}

func (r *PgBookingRepository) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := scanBooking(r.DB.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

func (r *PgBookingRepository) GetForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	b, err := scanBooking(r.DB.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return b, nil
}

// Update only moves the watermark; bookings are otherwise immutable here.
func (r *PgBookingRepository) Update(ctx context.Context, b *models.Booking) error {
	tag, err := r.DB.Exec(ctx, `UPDATE bookings SET last_generated_date = $2 WHERE id = $1`, b.ID, b.LastGeneratedDate)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("booking %s: %w", b.ID, models.ErrNotFound)
	}
	return nil
}

func (r *PgBookingRepository) ListRecurringRoots(ctx context.Context) ([]models.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE is_recurring AND parent_booking_id IS NULL ORDER BY starts_at, id`)
}

func (r *PgBookingRepository) ListChildren(ctx context.Context, rootID string) ([]models.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE parent_booking_id = $1 ORDER BY starts_at, id`, rootID)
}

func (r *PgBookingRepository) list(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}
