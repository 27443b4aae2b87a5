package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the receipt lifecycle state
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves this state.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled
}

// OrderSource is the channel the order came in on
type OrderSource string

const (
	SourcePOS     OrderSource = "pos"
	SourceWebsite OrderSource = "website"
)

func (s OrderSource) Valid() bool {
	return s == SourcePOS || s == SourceWebsite
}

// ParseOrderSource defaults an empty channel to pos.
func ParseOrderSource(s string) (OrderSource, error) {
	if s == "" {
		return SourcePOS, nil
	}
	src := OrderSource(s)
	if !src.Valid() {
		return "", fmt.Errorf("%w: order source %q", ErrInvalidInput, s)
	}
	return src, nil
}

// CustomerContact identifies an anonymous public buyer
type CustomerContact struct {
	Name    string `json:"customer_name,omitempty"`
	Email   string `json:"customer_email,omitempty"`
	Phone   string `json:"customer_phone,omitempty"`
	Address string `json:"customer_address,omitempty"`
}

// Present reports whether any contact field is filled in.
func (c CustomerContact) Present() bool {
	return strings.TrimSpace(c.Name+c.Email+c.Phone+c.Address) != ""
}

// Receipt unifies POS and website orders. TotalAmount is canonical; the
// legacy total column is kept equal to it and only written through SetTotal.
type Receipt struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id,omitempty"`
	CustomerContact
	TotalAmount   Money           `json:"total_amount"`
	LegacyTotal   decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"order_status"`
	Source        OrderSource     `json:"source"`
	LedgerEntryID string          `json:"ledger_entry_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SetTotal writes the canonical total and the legacy column together.
func (r *Receipt) SetTotal(total Money) {
	r.TotalAmount = total
	r.LegacyTotal = total.Amount
}

// Total is the legacy accessor.
func (r *Receipt) Total() decimal.Decimal {
	return r.LegacyTotal
}

// CheckTotals fails when a writer outside this package let the columns drift.
func (r *Receipt) CheckTotals() error {
	if !r.TotalAmount.Amount.Equal(r.LegacyTotal) {
		return fmt.Errorf("%w: receipt %s total_amount=%s total=%s", ErrTotalMismatch,
			r.ID, r.TotalAmount.Amount.String(), r.LegacyTotal.String())
	}
	return nil
}

// IsAnonymous reports whether the order belongs to a public buyer.
func (r *Receipt) IsAnonymous() bool {
	return strings.TrimSpace(r.ClientID) == ""
}

// ValidateCustomer enforces client XOR contact; an anonymous buyer needs at
// least a name.
func (r *Receipt) ValidateCustomer() error {
	hasClient := !r.IsAnonymous()
	hasContact := r.CustomerContact.Present()
	switch {
	case hasClient && hasContact:
		return fmt.Errorf("%w: both client and customer contact given", ErrAmbiguousCustomer)
	case !hasClient && !hasContact:
		return fmt.Errorf("%w: neither client nor customer contact given", ErrAmbiguousCustomer)
	case !hasClient && strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: anonymous buyer needs a customer name", ErrAmbiguousCustomer)
	}
	return nil
}

var receiptTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderCompleted, OrderCancelled},
}

// Transition moves the receipt along the lifecycle.
func (r *Receipt) Transition(to OrderStatus, at time.Time) error {
	for _, allowed := range receiptTransitions[r.Status] {
		if allowed == to {
			r.Status = to
			r.UpdatedAt = at
			return nil
		}
	}
	return fmt.Errorf("%w: receipt %s from %q to %q", ErrInvalidTransition, r.ID, r.Status, to)
}

// CreateReceiptRequest is the body for opening an order. Total is the
// legacy field some POS terminals still send.
type CreateReceiptRequest struct {
	ClientID        string `json:"client_id"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	TotalAmount     string `json:"total_amount"`
	Total           string `json:"total"`
	Currency        string `json:"currency"`
	Source          string `json:"source"`
}
