package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pos-backend/internal/locks"
	"pos-backend/internal/metrics"
	"pos-backend/internal/models"
	"pos-backend/internal/repositories"
	"pos-backend/internal/timeutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptService runs the order lifecycle shared by the POS and the public
// website: pending, then exactly one of completed or cancelled.
type ReceiptService struct {
	Store  repositories.Store
	Locks  locks.Locker
	Clock  timeutil.Clock
	Ledger *LedgerService
}

func NewReceiptService(store repositories.Store, locker locks.Locker, clock timeutil.Clock, ledger *LedgerService) *ReceiptService {
	return &ReceiptService{Store: store, Locks: locker, Clock: clock, Ledger: ledger}
}

// Create opens a pending order. Either total field may be sent; when both
// are sent they must agree.
func (s *ReceiptService) Create(ctx context.Context, req *models.CreateReceiptRequest) (*models.Receipt, error) {
	total, err := requestTotal(req.TotalAmount, req.Total)
	if err != nil {
		return nil, err
	}
	source, err := models.ParseOrderSource(req.Source)
	if err != nil {
		return nil, err
	}
	currency := req.Currency
	if currency == "" {
		currency = s.Ledger.Config.DefaultCurrency
	}

	now := s.Clock.Now()
	r := &models.Receipt{
		ID:       uuid.NewString(),
		ClientID: strings.TrimSpace(req.ClientID),
		CustomerContact: models.CustomerContact{
			Name:    strings.TrimSpace(req.CustomerName),
			Email:   strings.TrimSpace(req.CustomerEmail),
			Phone:   strings.TrimSpace(req.CustomerPhone),
			Address: strings.TrimSpace(req.CustomerAddress),
		},
		Status:    models.OrderPending,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.SetTotal(models.NewMoney(total, currency))
	if err := r.ValidateCustomer(); err != nil {
		return nil, err
	}

	if err := s.Store.Receipts().Create(ctx, r); err != nil {
		return nil, err
	}
	log.Printf("[Receipts] Receipt %s opened via %s for %s", r.ID, r.Source, r.TotalAmount)
	return r, nil
}

func requestTotal(totalAmount, total string) (decimal.Decimal, error) {
	totalAmount, total = strings.TrimSpace(totalAmount), strings.TrimSpace(total)
	if totalAmount == "" && total == "" {
		return decimal.Zero, fmt.Errorf("%w: receipt needs a total", models.ErrInvalidInput)
	}

	parse := func(field, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s %q", models.ErrInvalidInput, field, v)
		}
		if d.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: negative %s", models.ErrInvalidInput, field)
		}
		return d, nil
	}

	var canonical, legacy decimal.Decimal
	var err error
	if totalAmount != "" {
		if canonical, err = parse("total_amount", totalAmount); err != nil {
			return decimal.Zero, err
		}
	}
	if total != "" {
		if legacy, err = parse("total", total); err != nil {
			return decimal.Zero, err
		}
	}
	switch {
	case totalAmount == "":
		return legacy, nil
	case total == "":
		return canonical, nil
	case !canonical.Equal(legacy):
		return decimal.Zero, fmt.Errorf("%w: total_amount=%s total=%s", models.ErrTotalMismatch, canonical, legacy)
	}
	return canonical, nil
}

func (s *ReceiptService) Get(ctx context.Context, id string) (*models.Receipt, error) {
	return s.Store.Receipts().Get(ctx, id)
}

// Complete moves a pending receipt to completed and credits its total to the
// client's default wallet, or the house wallet for anonymous buyers, in one
// transaction. Locks are taken receipt first, then wallet.
func (s *ReceiptService) Complete(ctx context.Context, receiptID string) (string, error) {
	unlockReceipt, err := s.Locks.Lock(ctx, locks.ReceiptKey(receiptID))
	if err != nil {
		return "", err
	}
	defer unlockReceipt()

	r, err := s.Store.Receipts().Get(ctx, receiptID)
	if err != nil {
		return "", err
	}
	if r.Status != models.OrderPending {
		return "", fmt.Errorf("%w: receipt %s is %s", models.ErrInvalidTransition, receiptID, r.Status)
	}
	if err := r.CheckTotals(); err != nil {
		return "", err
	}
	walletID, err := s.Ledger.resolveWallet(ctx, s.Store, r.ClientID, "")
	if err != nil {
		return "", fmt.Errorf("receipt %s: %w", receiptID, err)
	}

	unlockWallet, err := s.Locks.Lock(ctx, locks.WalletKey(walletID))
	if err != nil {
		return "", err
	}
	defer unlockWallet()

	var entryID string
	src := models.ReceiptSource(receiptID)
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		r, err := tx.Receipts().GetForUpdate(ctx, receiptID)
		if err != nil {
			return err
		}
		if err := r.ValidateCustomer(); err != nil {
			return err
		}
		if err := r.CheckTotals(); err != nil {
			return err
		}
		if err := r.Transition(models.OrderCompleted, s.Clock.Now()); err != nil {
			return err
		}
		entry, err := s.Ledger.postTx(ctx, tx, walletID, r.TotalAmount, src, "Receipt "+receiptID)
		if err != nil {
			return err
		}
		r.LedgerEntryID = entry.ID
		entryID = entry.ID
		return tx.Receipts().Update(ctx, r)
	})
	s.Ledger.recordPost(src, err)
	if err != nil {
		return "", err
	}
	s.Ledger.invalidate(ctx, walletID)
	metrics.ReceiptTransitions.WithLabelValues(string(models.OrderCompleted), string(r.Source)).Inc()
	log.Printf("[Receipts] Receipt %s completed into wallet %s (entry %s)", receiptID, walletID, entryID)
	return entryID, nil
}

// Cancel moves a pending receipt to cancelled. Nothing is posted.
func (s *ReceiptService) Cancel(ctx context.Context, receiptID string) (*models.Receipt, error) {
	unlock, err := s.Locks.Lock(ctx, locks.ReceiptKey(receiptID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *models.Receipt
	err = s.Store.WithTx(ctx, func(tx repositories.Repos) error {
		r, err := tx.Receipts().GetForUpdate(ctx, receiptID)
		if err != nil {
			return err
		}
		if err := r.Transition(models.OrderCancelled, s.Clock.Now()); err != nil {
			return err
		}
		out = r
		return tx.Receipts().Update(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	metrics.ReceiptTransitions.WithLabelValues(string(models.OrderCancelled), string(out.Source)).Inc()
	log.Printf("[Receipts] Receipt %s cancelled", receiptID)
	return out, nil
}
