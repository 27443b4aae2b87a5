package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pos-backend/internal/locks"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CostService struct {
	Store  repositories.Store
	Locks  locks.Locker
	Clock  timeutil.Clock
	Ledger *LedgerService
}

func NewCostService(store repositories.Store, locker locks.Locker, clock timeutil.Clock, ledger *LedgerService) *CostService {
	return &CostService{Store: store, Locks: locker, Clock: clock, Ledger: ledger}
}

// CreateCost parses a request body and records the cost.
func (s *CostService) CreateCost(ctx context.Context, req *models.CreateCostRequest) (*models.Cost, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", models.ErrInvalidInput, req.Amount)
	}
	due, err := timeutil.ParseDate(req.DueDate)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date %q", models.ErrInvalidInput, req.DueDate)
	}
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
	currency := req.Currency
	if currency == "" {
		currency = s.Ledger.Config.DefaultCurrency
	}

	c := &models.Cost{
		ClientID:      req.ClientID,
		WalletID:      req.WalletID,
		Title:         strings.TrimSpace(req.Title),
		Amount:        models.NewMoney(amount, currency),
		Category:      req.Category,
		PaymentMethod: req.PaymentMethod,
		DueDate:       due,
		Recurrence: models.Recurrence{
			IsRecurring: req.IsRecurring,
			Pattern:     pattern,
			EndDate:     end,
		},
	}
	if _, err := s.RecordCost(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordCost validates and stores a new root cost. Status defaults to
// pending; occurrences can only be produced by expansion.
func (s *CostService) RecordCost(ctx context.Context, c *models.Cost) (string, error) {
	if c.IsGenerated() {
		return "", fmt.Errorf("%w: occurrences are generated from their root", models.ErrInvalidRecurrence)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.CostPending
	}
	if c.Status == models.CostPaid {
		return "", fmt.Errorf("%w: a new cost is settled through MarkPaid", models.ErrInvalidInput)
	}
	c.LastGeneratedDate = nil
	c.LedgerEntryID = ""
	c.PaidAt = nil
	if err := c.Validate(); err != nil {
		return "", err
	}

	if c.WalletID != "" {
		w, err := s.Store.Wallets().Get(ctx, c.WalletID)
		if err != nil {
			return "", walletErr(c.WalletID, err)
		}
		if !w.IsActive {
			return "", fmt.Errorf("%w: wallet %s is inactive", models.ErrUnknownWallet, w.ID)
		}
		if w.Currency() != c.Amount.Currency {
			return "", fmt.Errorf("%w: %s cost for %s wallet %s", models.ErrCurrencyMismatch,
				c.Amount.Currency, w.Currency(), w.ID)
		}
	}

	now := s.Clock.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.Store.Costs().Create(ctx, c); err != nil {
		return "", err
	}
	log.Printf("[Costs] Recorded cost %s (%s, %s, recurring=%t)", c.ID, c.Title, c.Amount, c.IsRecurring)
	return c.ID, nil
}

func (s *CostService) GetCost(ctx context.Context, id string) (*models.Cost, error) {
	return s.Store.Costs().Get(ctx, id)
}

func (s *CostService) ListCosts(ctx context.Context, filter models.CostFilter) ([]models.Cost, error) {
	return s.Store.Costs().List(ctx, filter)
}

// MarkPaid settles a pending or overdue cost and debits its wallet in the
// same transaction. Locks are taken cost first, then wallet.
func (s *CostService) MarkPaid(ctx context.Context, costID string) (string, error) {
	unlockCost, err := s.Locks.Lock(ctx, locks.CostKey(costID))
	if err != nil {
		return "", err
	}
	defer unlockCost()

	c, err := s.Store.Costs().Get(ctx, costID)
	if err != nil {
		return "", err
	}
	if c.Status == models.CostPaid {
		return "", fmt.Errorf("%w: cost %s", models.ErrAlreadySettled, costID)
	}
	walletID, err := s.Ledger.resolveWallet(ctx, s.Store, c.ClientID, c.WalletID)
	if err != nil {
		return "", fmt.Errorf("cost %s: %w", costID, err)
	}

	unlockWallet, err := s.Locks.Lock(ctx, locks.WalletKey(walletID))
	if err != nil {
		return "", err
	}
	defer unlockWallet()

	var entryID string
	src := models.CostSource(costID)
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		c, err := tx.Costs().GetForUpdate(ctx, costID)
		if err != nil {
			return err
		}
		if c.Status == models.CostPaid {
			return fmt.Errorf("%w: cost %s", models.ErrAlreadySettled, costID)
		}
		entry, err := s.Ledger.postTx(ctx, tx, walletID, c.Amount.Neg(), src, "Cost: "+c.Title)
		if err != nil {
			return err
		}
		if err := c.Settle(entry.ID, s.Clock.Now()); err != nil {
			return err
		}
		entryID = entry.ID
		return tx.Costs().Update(ctx, c)
	})
	s.Ledger.recordPost(src, err)
	if err != nil {
		return "", err
	}
	s.Ledger.invalidate(ctx, walletID)
	log.Printf("[Costs] Cost %s paid from wallet %s (entry %s)", costID, walletID, entryID)
	return entryID, nil
}

// SweepOverdue flips every pending cost due strictly before asOf's day to
// overdue.
// Running it twice with the same asOf changes nothing the second time.
// Failures on single costs do not stop the sweep; they are joined into the
// returned error.
func (s *CostService) SweepOverdue(ctx context.Context, asOf time.Time) ([]string, error) {
	var errs []error
	ids, err := s.sweepOverdue(ctx, asOf, func(id string, err error) {
		errs = append(errs, fmt.Errorf("cost %s: %w", id, err))
	})
	if err != nil {
		errs = append(errs, err)
	}
	return ids, errors.Join(errs...)
}

func (s *CostService) sweepOverdue(ctx context.Context, asOf time.Time, onFailure func(id string, err error)) ([]string, error) {
	// Due dates are calendar days: a cost is overdue from the day after.
	asOf = timeutil.StartOfDay(asOf)
	due, err := s.Store.Costs().List(ctx, models.CostFilter{Status: models.CostPending, DueBefore: &asOf})
	if err != nil {
		return nil, fmt.Errorf("list pending costs: %w", err)
	}

	var changed []string
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		flipped, err := s.markOverdue(ctx, candidate.ID, asOf)
		if err != nil {
			onFailure(candidate.ID, err)
			continue
		}
		if flipped {
			changed = append(changed, candidate.ID)
		}
	}
	return changed, nil
}

func (s *CostService) markOverdue(ctx context.Context, costID string, asOf time.Time) (bool, error) {
	unlock, err := s.Locks.Lock(ctx, locks.CostKey(costID))
	if err != nil {
		return false, err
	}
	defer unlock()

	var flipped bool
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		c, err := tx.Costs().GetForUpdate(ctx, costID)
		if err != nil {
			return err
		}
		if flipped = c.MarkOverdue(asOf); !flipped {
			return nil
		}
		return tx.Costs().Update(ctx, c)
	})
	return flipped, err
}

// CorrectStatus applies the explicit overdue to pending correction.
func (s *CostService) CorrectStatus(ctx context.Context, costID string, to models.CostStatus) (*models.Cost, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: cost status %q", models.ErrInvalidInput, to)
	}
	unlock, err := s.Locks.Lock(ctx, locks.CostKey(costID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *models.Cost
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		c, err := tx.Costs().GetForUpdate(ctx, costID)
		if err != nil {
			return err
		}
		if err := c.Correct(to, s.Clock.Now()); err != nil {
			return err
		}
		out = c
		return tx.Costs().Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[Costs] Cost %s corrected to %s", costID, to)
	return out, nil
}
