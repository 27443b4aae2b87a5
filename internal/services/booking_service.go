package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/internal/timeutil"

	"github.com/google/uuid"
)

type BookingService struct {
	Store repositories.Store
	Clock timeutil.Clock
}

func NewBookingService(store repositories.Store, clock timeutil.Clock) *BookingService {
	return &BookingService{Store: store, Clock: clock}
}

func (s *BookingService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.Booking, error) {
	pattern, err := models.ParseRecurrencePattern(req.RecurringPattern)
	if err != nil {
		return nil, err
	}
	var end *time.Time
	if req.RecurrenceEndDate != "" {
		d, err := timeutil.ParseDate(req.RecurrenceEndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: recurrence_end_date %q", models.ErrInvalidRecurrence, req.RecurrenceEndDate)
		}
		end = &d
	}

	b := &models.Booking{
		ID:              uuid.NewString(),
		ClientID:        req.ClientID,
		Title:           strings.TrimSpace(req.Title),
		StartsAt:        req.StartsAt,
		DurationMinutes: req.DurationMinutes,
		Recurrence: models.Recurrence{
			IsRecurring: req.IsRecurring,
			Pattern:     pattern,
			EndDate:     end,
		},
		CreatedAt: s.Clock.Now(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.Store.Bookings().Create(ctx, b); err != nil {
		return nil, err
	}
	log.Printf("[Bookings] Booking %s created for client %s (recurring=%t)", b.ID, b.ClientID, b.IsRecurring)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.Store.Bookings().Get(ctx, id)
}

// Occurrences lists the generated occurrences of a root booking.
func (s *BookingService) Occurrences(ctx context.Context, rootID string) ([]models.Booking, error) {
	return s.Store.Bookings().ListChildren(ctx, rootID)
}
