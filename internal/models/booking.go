package models

import (
	"fmt"
	"strings"
	"time"
)

// Booking is a scheduled service occurrence. Occurrences generated from a
// recurring root carry ParentBookingID = root id, never an intermediate id.
type Booking struct {
	ID              string    `json:"id"`
	ClientID        string    `json:"client_id"`
	Title           string    `json:"title"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Recurrence
	ParentBookingID *string   `json:"parent_booking_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (b *Booking) IsGenerated() bool {
	return b.ParentBookingID != nil
}

func (b *Booking) Validate() error {
	if strings.TrimSpace(b.ClientID) == "" {
		return fmt.Errorf("%w: booking needs a client", ErrInvalidInput)
	}
	if b.StartsAt.IsZero() {
		return fmt.Errorf("%w: booking needs a start time", ErrInvalidInput)
	}
	if b.DurationMinutes < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidInput)
	}
	if b.IsGenerated() && b.IsRecurring {
		return fmt.Errorf("%w: generated occurrence cannot recur", ErrInvalidRecurrence)
	}
	return b.Recurrence.Validate(b.StartsAt)
}

// CreateBookingRequest is the body for scheduling a booking
type CreateBookingRequest struct {
	ClientID          string    `json:"client_id"`
	Title             string    `json:"title"`
	StartsAt          time.Time `json:"starts_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurringPattern  string    `json:"recurring_pattern"`
	RecurrenceEndDate string    `json:"recurrence_end_date"`
}
