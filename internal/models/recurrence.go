package models

import (
	"fmt"
	"time"
)

// RecurrencePattern is the rule used to derive future occurrences
type RecurrencePattern string

const (
	PatternWeekly   RecurrencePattern = "weekly"
	PatternBiweekly RecurrencePattern = "biweekly"
	PatternMonthly  RecurrencePattern = "monthly"
)

func (p RecurrencePattern) Valid() bool {
	switch p {
	case PatternWeekly, PatternBiweekly, PatternMonthly:
		return true
	}
	return false
}

// ParseRecurrencePattern accepts the empty string as "no pattern".
func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	if s == "" {
		return "", nil
	}
	p := RecurrencePattern(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown pattern %q", ErrInvalidRecurrence, s)
	}
	return p, nil
}

// Recurrence is shared by costs and bookings. LastGeneratedDate is the
// watermark: the date of the newest occurrence already materialized, or nil
// when only the root exists.
type Recurrence struct {
	IsRecurring       bool              `json:"is_recurring"`
	Pattern           RecurrencePattern `json:"recurring_pattern,omitempty"`
	EndDate           *time.Time        `json:"recurrence_end_date,omitempty"`
	LastGeneratedDate *time.Time        `json:"last_generated_date,omitempty"`
}

// Validate checks the recurrence against the root's anchor date.
func (r Recurrence) Validate(anchor time.Time) error {
	if !r.IsRecurring {
		if r.Pattern != "" || r.EndDate != nil {
			return fmt.Errorf("%w: pattern or end date set on a non-recurring record", ErrInvalidRecurrence)
		}
		return nil
	}
	if r.Pattern == "" {
		return fmt.Errorf("%w: recurring record needs a pattern", ErrInvalidRecurrence)
	}
	if !r.Pattern.Valid() {
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRecurrence, r.Pattern)
	}
	if r.EndDate != nil && r.EndDate.Before(anchor) {
		return fmt.Errorf("%w: end date %s before first occurrence %s", ErrInvalidRecurrence,
			r.EndDate.Format("2006-01-02"), anchor.Format("2006-01-02"))
	}
	return nil
}

// Watermark returns the last generated date, falling back to the anchor.
func (r Recurrence) Watermark(anchor time.Time) time.Time {
	if r.LastGeneratedDate != nil {
		return *r.LastGeneratedDate
	}
	return anchor
}
