package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pos-backend/internal/models"
)

const walletKeyFmt = "wallet:summary:%s"

// WalletCache keeps wallet rows in Redis for the balance read path. The
// ledger invalidates a wallet after every committed posting, so a cached
// balance is never older than the last commit plus the TTL.
type WalletCache struct {
	TTL time.Duration
}

func NewWalletCache(ttl time.Duration) *WalletCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &WalletCache{TTL: ttl}
}

func walletKey(id string) string {
	return fmt.Sprintf(walletKeyFmt, id)
}

func (c *WalletCache) GetWallet(ctx context.Context, id string) (*models.Wallet, bool) {
	data, ok := GetCached(ctx, walletKey(id))
	if !ok {
		return nil, false
	}
	var w models.Wallet
	if err := json.Unmarshal(data, &w); err != nil {
		InvalidateKeys(ctx, walletKey(id))
		return nil, false
	}
	return &w, true
}

func (c *WalletCache) SetWallet(ctx context.Context, w *models.Wallet) {
	data, err := json.Marshal(w)
	if err != nil {
		return
	}
	SetCached(ctx, walletKey(w.ID), data, c.TTL)
}

func (c *WalletCache) InvalidateWallet(ctx context.Context, id string) {
	InvalidateKeys(ctx, walletKey(id))
}
