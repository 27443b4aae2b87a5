package models

import (
	"fmt"
	"strings"
	"time"
)

// CostStatus is the settlement state of an expense
type CostStatus string

const (
	CostPending CostStatus = "pending"
	CostPaid    CostStatus = "paid"
	CostOverdue CostStatus = "overdue"
)

func (s CostStatus) Valid() bool {
	switch s {
	case CostPending, CostPaid, CostOverdue:
		return true
	}
	return false
}

// Cost is an expense recorded against a client. Generated occurrences of a
// recurring cost point at their root through ParentCostID and are never
// recurring themselves.
type Cost struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	WalletID      string     `json:"wallet_id,omitempty"` // empty = client's default wallet
	Title         string     `json:"title"`
	Amount        Money      `json:"amount"`
	Category      string     `json:"category"`
	PaymentMethod string     `json:"payment_method"`
	Status        CostStatus `json:"status"`
	DueDate       time.Time  `json:"due_date"`
	Recurrence
	ParentCostID  *string    `json:"parent_cost_id,omitempty"`
	LedgerEntryID string     `json:"ledger_entry_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate enforces the invariants storage does not.
func (c *Cost) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return fmt.Errorf("%w: cost needs a client", ErrInvalidInput)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: cost needs a title", ErrInvalidInput)
	}
	if !c.Amount.Amount.IsPositive() {
		return fmt.Errorf("%w: cost amount must be positive", ErrInvalidInput)
	}
	if c.Amount.Currency == "" {
		return fmt.Errorf("%w: cost needs a currency", ErrInvalidInput)
	}
	if c.DueDate.IsZero() {
		return fmt.Errorf("%w: cost needs a due date", ErrInvalidInput)
	}
	if !c.Status.Valid() {
		return fmt.Errorf("%w: cost status %q", ErrInvalidInput, c.Status)
	}
	if c.IsGenerated() && c.IsRecurring {
		return fmt.Errorf("%w: generated occurrence cannot recur", ErrInvalidRecurrence)
	}
	return c.Recurrence.Validate(c.DueDate)
}

func (c *Cost) IsGenerated() bool {
	return c.ParentCostID != nil
}

// Settle moves a pending or overdue cost to paid.
func (c *Cost) Settle(entryID string, at time.Time) error {
	switch c.Status {
	case CostPaid:
		return fmt.Errorf("%w: cost %s", ErrAlreadySettled, c.ID)
	case CostPending, CostOverdue:
		c.Status = CostPaid
		c.LedgerEntryID = entryID
		c.PaidAt = &at
		c.UpdatedAt = at
		return nil
	}
	return fmt.Errorf("%w: cost %s in status %q", ErrInvalidTransition, c.ID, c.Status)
}

// MarkOverdue flips a pending cost due strictly before asOf. It reports
// whether anything changed.
func (c *Cost) MarkOverdue(asOf time.Time) bool {
	if c.Status != CostPending || !c.DueDate.Before(asOf) {
		return false
	}
	c.Status = CostOverdue
	c.UpdatedAt = asOf
	return true
}

// Correct is the one backward move: overdue back to pending, e.g. after the
// due date was renegotiated.
func (c *Cost) Correct(to CostStatus, at time.Time) error {
	if c.Status == CostOverdue && to == CostPending {
		c.Status = CostPending
		c.UpdatedAt = at
		return nil
	}
	return fmt.Errorf("%w: cost %s from %q to %q", ErrInvalidTransition, c.ID, c.Status, to)
}

// CreateCostRequest is the body for recording a cost
type CreateCostRequest struct {
	ClientID          string `json:"client_id"`
	WalletID          string `json:"wallet_id"`
	Title             string `json:"title"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Category          string `json:"category"`
	PaymentMethod     string `json:"payment_method"`
	DueDate           string `json:"due_date"`
	IsRecurring       bool   `json:"is_recurring"`
	RecurringPattern  string `json:"recurring_pattern"`
	RecurrenceEndDate string `json:"recurrence_end_date"`
}

// CostFilter narrows cost listings
type CostFilter struct {
	Status        CostStatus
	DueBefore     *time.Time
	RecurringRoot bool
}
