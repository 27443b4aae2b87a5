package repositories

import (
	"fmt"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/timeutil"
)

// recurrenceRow holds the recurrence columns shared by costs and bookings
// until they are validated into a models.Recurrence.
type recurrenceRow struct {
	isRecurring   bool
	pattern       *string
	endDate       *time.Time
	lastGenerated *time.Time
}

func (r *recurrenceRow) targets() []any {
	return []any{&r.isRecurring, &r.pattern, &r.endDate, &r.lastGenerated}
}

func (r *recurrenceRow) model() (models.Recurrence, error) {
	pattern, err := models.ParseRecurrencePattern(derefString(r.pattern))
	if err != nil {
		return models.Recurrence{}, fmt.Errorf("stored recurrence: %w", err)
	}
	return models.Recurrence{
		IsRecurring:       r.isRecurring,
		Pattern:           pattern,
		EndDate:           timeutil.InLocationPtr(r.endDate),
		LastGeneratedDate: timeutil.InLocationPtr(r.lastGenerated),
	}, nil
}

func recurrenceArgs(rec models.Recurrence) []any {
	return []any{rec.IsRecurring, nullableString(string(rec.Pattern)), rec.EndDate, rec.LastGeneratedDate}
}
