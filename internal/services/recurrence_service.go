package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"pos-backend/internal/locks"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/recurrence"
	"pos-backend/internal/repositories"
	"pos-backend/internal/timeutil"

	"github.com/google/uuid"
)

// RecurrenceService materializes occurrences of recurring roots. The
// occurrences and the root's new watermark are written in one transaction,
// so a crash never leaves generated rows without the watermark that covers
// them.
type RecurrenceService struct {
	Store repositories.Store
	Locks locks.Locker
	Clock timeutil.Clock
}

func NewRecurrenceService(store repositories.Store, locker locks.Locker, clock timeutil.Clock) *RecurrenceService {
	return &RecurrenceService{Store: store, Locks: locker, Clock: clock}
}

// ExpandBooking creates the booking occurrences due up to asOf.
func (s *RecurrenceService) ExpandBooking(ctx context.Context, bookingID string, asOf time.Time) ([]models.Booking, error) {
	unlock, err := s.Locks.Lock(ctx, locks.BookingKey(bookingID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created []models.Booking
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		root, err := tx.Bookings().GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		schedule, err := recurrence.ForBooking(root)
		if err != nil {
			return err
		}

		now := s.Clock.Now()
		created = created[:0]
		for o := range schedule.Occurrences(asOf) {
			b := models.Booking{
				ID:              uuid.NewString(),
				ClientID:        root.ClientID,
				Title:           root.Title,
				StartsAt:        o.Date,
				DurationMinutes: root.DurationMinutes,
				ParentBookingID: &root.ID,
				CreatedAt:       now,
			}
			if err := tx.Bookings().Create(ctx, &b); err != nil {
				return fmt.Errorf("occurrence %d of booking %s: %w", o.Index, root.ID, err)
			}
			created = append(created, b)
		}
		if len(created) == 0 {
			return nil
		}
		last := created[len(created)-1].StartsAt
		root.LastGeneratedDate = &last
		return tx.Bookings().Update(ctx, root)
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		metrics.OccurrencesGenerated.WithLabelValues("booking").Add(float64(len(created)))
		log.Printf("[Recurrence] Booking %s: generated %d occurrence(s) up to %s", bookingID, len(created), asOf.Format(timeutil.DateLayout))
	}
	return created, nil
}

// ExpandCost creates the pending cost occurrences due up to asOf. They copy
// the root's amount, wallet and classification.
func (s *RecurrenceService) ExpandCost(ctx context.Context, costID string, asOf time.Time) ([]models.Cost, error) {
	unlock, err := s.Locks.Lock(ctx, locks.CostKey(costID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created []models.Cost
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		root, err := tx.Costs().GetForUpdate(ctx, costID)
		if err != nil {
			return err
		}
		schedule, err := recurrence.ForCost(root)
		if err != nil {
			return err
		}

		now := s.Clock.Now()
		created = created[:0]
		for o := range schedule.Occurrences(asOf) {
			c := models.Cost{
				ID:            uuid.NewString(),
				ClientID:      root.ClientID,
				WalletID:      root.WalletID,
				Title:         root.Title,
				Amount:        root.Amount,
				Category:      root.Category,
				PaymentMethod: root.PaymentMethod,
				Status:        models.CostPending,
				DueDate:       o.Date,
				ParentCostID:  &root.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Costs().Create(ctx, &c); err != nil {
				return fmt.Errorf("occurrence %d of cost %s: %w", o.Index, root.ID, err)
			}
			created = append(created, c)
		}
		if len(created) == 0 {
			return nil
		}
		last := created[len(created)-1].DueDate
		root.LastGeneratedDate = &last
		root.UpdatedAt = now
		return tx.Costs().Update(ctx, root)
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		metrics.OccurrencesGenerated.WithLabelValues("cost").Add(float64(len(created)))
		log.Printf("[Recurrence] Cost %s: generated %d occurrence(s) up to %s", costID, len(created), asOf.Format(timeutil.DateLayout))
	}
	return created, nil
}
