package models

import (
	"fmt"
	"time"
)

// WalletType tags what a wallet is used for
type WalletType string

const (
	WalletTypeCustom   WalletType = "custom"
	WalletTypeBusiness WalletType = "business"
	WalletTypePersonal WalletType = "personal"
)

func (t WalletType) Valid() bool {
	switch t {
	case WalletTypeCustom, WalletTypeBusiness, WalletTypePersonal:
		return true
	}
	return false
}

// ParseWalletType rejects values outside the closed set.
func ParseWalletType(s string) (WalletType, error) {
	t := WalletType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: wallet type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// Wallet is a named balance owned by one client. Balance is a cache of the
// sum of the wallet's ledger entries and is only written by the ledger.
type Wallet struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"client_id"`
	Name      string     `json:"name"`
	Balance   Money      `json:"balance"`
	Type      WalletType `json:"type"`
	IsActive  bool       `json:"is_active"`
	IsDefault bool       `json:"is_default"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Currency is the wallet's currency code; entries must match it.
func (w *Wallet) Currency() string {
	return w.Balance.Currency
}

// CreateWalletRequest is the body for opening a wallet
type CreateWalletRequest struct {
	ClientID  string `json:"client_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Type      string `json:"type"`
	IsDefault bool   `json:"is_default"`
}
